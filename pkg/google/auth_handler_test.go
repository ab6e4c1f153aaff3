package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/klokku/meetstats/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenServer answers the authorization code exchange and records the
// redirect_uri it was called with.
func tokenServer(t *testing.T, redirects chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		redirects <- r.PostForm.Get("redirect_uri")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startTestLogin(t *testing.T, tokenURL string) (*GoogleAuth, *LoginSession, url.Values) {
	t.Helper()
	auth := NewGoogleAuth(config.Google{ClientId: "client-id", TokenFile: filepath.Join(t.TempDir(), "token.json")})
	auth.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokenURL}
	session, err := auth.StartLogin("127.0.0.1:0")
	require.NoError(t, err)
	consent, err := url.Parse(session.URL())
	require.NoError(t, err)
	return auth, session, consent.Query()
}

func TestLoginSession_URL(t *testing.T) {
	_, session, query := startTestLogin(t, "http://127.0.0.1:1/token")
	defer cancelledWait(session)

	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.NotEmpty(t, query.Get("state"))
	redirect, err := url.Parse(query.Get("redirect_uri"))
	require.NoError(t, err)
	assert.Equal(t, "http", redirect.Scheme)
	assert.Equal(t, "127.0.0.1", redirect.Hostname())
	assert.NotEqual(t, "0", redirect.Port())
	assert.Equal(t, "/callback", redirect.Path)
}

func TestLoginSession_StoresToken(t *testing.T) {
	// given
	redirects := make(chan string, 1)
	srv := tokenServer(t, redirects)
	auth, session, query := startTestLogin(t, srv.URL)

	// when
	resp, err := http.Get(query.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(query.Get("state")))
	require.NoError(t, err)
	resp.Body.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = session.Wait(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, query.Get("redirect_uri"), <-redirects)
	token, err := auth.getToken()
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
}

func TestLoginSession_OAuthCallback(t *testing.T) {
	tests := []struct {
		name       string
		query      func(state string) string
		wantStatus int
		wantErr    error
		finished   bool
	}{
		{
			name:       "unknown state",
			query:      func(string) string { return "code=the-code&state=forged" },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing code",
			query:      func(state string) string { return "state=" + state },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "access denied",
			query:      func(state string) string { return "error=access_denied&state=" + state },
			wantStatus: http.StatusForbidden,
			wantErr:    ErrAuthorizationDenied,
			finished:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			auth, session, query := startTestLogin(t, "http://127.0.0.1:1/token")
			req := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query(url.QueryEscape(query.Get("state"))), nil)
			rr := httptest.NewRecorder()

			// when
			session.OAuthCallback(rr, req)

			// then
			assert.Equal(t, tt.wantStatus, rr.Code)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			err := session.Wait(ctx)
			if tt.finished {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			}
			token, err := auth.getToken()
			require.NoError(t, err)
			assert.Nil(t, token)
		})
	}
}

func cancelledWait(session *LoginSession) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = session.Wait(ctx)
}
