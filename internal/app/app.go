package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Application wires dependencies, router, and server lifecycle.
type Application struct {
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the HTTP application, ready to Run().
func NewApplication(deps *Dependencies) *Application {
	r := mux.NewRouter()

	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         deps.Cfg.Http.Addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{deps: deps, router: r, srv: srv}
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errs <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
