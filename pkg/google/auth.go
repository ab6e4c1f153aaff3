package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/klokku/meetstats/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// GoogleAuth keeps the read-only calendar token in a local file.
type GoogleAuth struct {
	tokenFile   string
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(cfg config.Google) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
	return &GoogleAuth{tokenFile: cfg.TokenFile, oauthConfig: oauthConfig}
}

// exchange trades an authorization code for a token and stores it. The
// redirect URL must be the one the code was issued for.
func (g *GoogleAuth) exchange(ctx context.Context, redirectURL string, code string) error {
	oauthConfig := *g.oauthConfig
	oauthConfig.RedirectURL = redirectURL
	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		err := fmt.Errorf("unable to exchange code for token: %w", err)
		log.Error(err)
		return err
	}
	return g.saveToken(token)
}

func (g *GoogleAuth) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(g.tokenFile), 0o700); err != nil {
		return err
	}
	body, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.tokenFile, body, 0o600); err != nil {
		return fmt.Errorf("unable to store Google auth token: %w", err)
	}
	log.Debugf("Stored Google auth token in %s", g.tokenFile)
	return nil
}

func (g *GoogleAuth) getToken() (*oauth2.Token, error) {
	body, err := os.ReadFile(g.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to read Google auth token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("unable to decode Google auth token: %w", err)
	}
	return &token, nil
}

func (g *GoogleAuth) getClient(ctx context.Context) (*http.Client, error) {
	token, err := g.getToken()
	if err != nil {
		log.Error(err)
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(ctx, token), nil
}

// Logout forgets the stored token.
func (g *GoogleAuth) Logout() error {
	err := os.Remove(g.tokenFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
