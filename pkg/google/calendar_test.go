package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func googleServer(t *testing.T, pages ...[]*gcal.Event) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))

		page := 0
		if token := r.URL.Query().Get("pageToken"); token != "" {
			page = 1
		}
		resp := gcal.Events{Items: pages[page]}
		if page+1 < len(pages) {
			resp.NextPageToken = "next"
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func testCalendar(t *testing.T, srv *httptest.Server, loc *time.Location) *Calendar {
	t.Helper()
	service, err := gcal.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return newGoogleCalendar(service, "primary", loc)
}

func TestCalendar_GetEvents(t *testing.T) {
	// given
	srv := googleServer(t,
		[]*gcal.Event{
			{
				Summary: "Plan: Q1",
				Start:   &gcal.EventDateTime{DateTime: "2024-03-04T10:00:00+09:00", TimeZone: "Asia/Tokyo"},
				End:     &gcal.EventDateTime{DateTime: "2024-03-04T11:00:00+09:00", TimeZone: "Asia/Tokyo"},
				Attendees: []*gcal.EventAttendee{
					{Email: "me@example.com", Self: true, Organizer: true, ResponseStatus: "accepted"},
					{Email: "dev@example.com", ResponseStatus: "accepted"},
				},
				ColorId: "11",
			},
			{
				Summary: "Offsite",
				Start:   &gcal.EventDateTime{Date: "2024-03-05"},
				End:     &gcal.EventDateTime{Date: "2024-03-06"},
				ExtendedProperties: &gcal.EventExtendedProperties{
					Private: map[string]string{"categories": "Travel, Team"},
				},
			},
		},
		[]*gcal.Event{
			{
				Summary: "Invite",
				Start:   &gcal.EventDateTime{DateTime: "2024-03-07T09:00:00Z"},
				End:     &gcal.EventDateTime{DateTime: "2024-03-07T09:30:00Z"},
				Attendees: []*gcal.EventAttendee{
					{Email: "me@example.com", Self: true, ResponseStatus: "needsAction"},
				},
			},
			{
				Summary: "Dropped",
				Status:  "cancelled",
				Start:   &gcal.EventDateTime{DateTime: "2024-03-08T09:00:00Z"},
				End:     &gcal.EventDateTime{DateTime: "2024-03-08T09:30:00Z"},
			},
			{
				Summary: "Broken",
				Start:   &gcal.EventDateTime{DateTime: "yesterday"},
				End:     &gcal.EventDateTime{DateTime: "2024-03-08T09:30:00Z"},
			},
		},
	)
	defer srv.Close()
	utc := time.UTC
	cal := testCalendar(t, srv, utc)

	// when
	events, err := cal.GetEvents(context.Background(),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, utc), time.Date(2024, time.April, 1, 0, 0, 0, 0, utc))

	// then
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.Equal(t, calendar.StatusMeeting, events[0].Status)
	assert.Equal(t, 60, events[0].DurationMinutes)
	assert.Equal(t, "Tomato", events[0].Categories)
	assert.Equal(t, "Asia/Tokyo", events[0].Start.Location().String())
	assert.Equal(t, 10, events[0].Start.Hour())

	assert.Equal(t, calendar.StatusNormal, events[1].Status)
	assert.Equal(t, 24*60, events[1].DurationMinutes)
	assert.Equal(t, "Travel, Team", events[1].Categories)

	assert.Equal(t, calendar.StatusRequest, events[2].Status)
	assert.Equal(t, calendar.StatusCancelled, events[3].Status)

	assert.Equal(t, "Broken", events[4].Subject)
	assert.ErrorIs(t, events[4].Err, calendar.ErrItemAccess)
}

func TestCalendar_GetEventsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"calendar not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()
	cal := testCalendar(t, srv, nil)

	_, err := cal.GetEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))

	assert.Error(t, err)
}

func TestServiceImpl_RequiresToken(t *testing.T) {
	auth := NewGoogleAuth(config.Google{TokenFile: filepath.Join(t.TempDir(), "token.json")})

	_, err := NewService(auth).GetCalendar(context.Background(), "primary", nil)

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGoogleAuth_TokenRoundTrip(t *testing.T) {
	// given
	tokenFile := filepath.Join(t.TempDir(), "google", "token.json")
	auth := NewGoogleAuth(config.Google{ClientId: "client", TokenFile: tokenFile})
	expiry := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

	// when
	require.NoError(t, auth.saveToken(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}))
	token, err := auth.getToken()

	// then
	require.NoError(t, err)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))
	info, err := os.Stat(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, auth.Logout())
	token, err = auth.getToken()
	require.NoError(t, err)
	assert.Nil(t, token)
}
