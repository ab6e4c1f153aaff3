package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const callbackPath = "/callback"

var ErrAuthorizationDenied = errors.New("google authorization was not granted")

// LoginSession is one authorization code flow. Google redirects the browser
// to a short-lived listener on the loopback interface, which checks the state
// nonce and stores the token.
type LoginSession struct {
	auth        *GoogleAuth
	redirectURL string
	state       string
	server      *http.Server
	done        chan error
	once        sync.Once
}

// StartLogin listens on addr ("127.0.0.1:0" picks a free port) until Wait
// returns.
func (g *GoogleAuth) StartLogin(addr string) (*LoginSession, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to listen for the Google redirect: %w", err)
	}
	s := &LoginSession{
		auth:        g,
		redirectURL: "http://" + listener.Addr().String() + callbackPath,
		state:       uuid.NewString(),
		done:        make(chan error, 1),
	}
	router := mux.NewRouter()
	router.HandleFunc(callbackPath, s.OAuthCallback).Methods("GET")
	s.server = &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.finish(err)
		}
	}()
	log.Debugf("Waiting for the Google redirect on %s", s.redirectURL)
	return s, nil
}

// URL is the consent page to open in the browser.
func (s *LoginSession) URL() string {
	oauthConfig := *s.auth.oauthConfig
	oauthConfig.RedirectURL = s.redirectURL
	return oauthConfig.AuthCodeURL(s.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Wait blocks until the callback was handled or ctx is done, then stops the listener.
func (s *LoginSession) Wait(ctx context.Context) error {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LoginSession) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.FormValue("state") != s.state {
		log.Warn("Ignoring Google redirect with an unknown state")
		http.Error(w, "unknown login state", http.StatusBadRequest)
		return
	}
	if reason := r.FormValue("error"); reason != "" {
		s.finish(fmt.Errorf("%w: %s", ErrAuthorizationDenied, reason))
		http.Error(w, "Access was not granted. You can close this window.", http.StatusForbidden)
		return
	}
	code := r.FormValue("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	if err := s.auth.exchange(r.Context(), s.redirectURL, code); err != nil {
		s.finish(err)
		http.Error(w, "Failed to store the Google token. See the terminal for details.", http.StatusInternalServerError)
		return
	}
	s.finish(nil)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("meetstats is connected to Google Calendar. You can close this window.\n"))
}

func (s *LoginSession) finish(err error) {
	s.once.Do(func() { s.done <- err })
}
