package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/internal/database"
	"github.com/klokku/meetstats/internal/event_bus"
	"github.com/klokku/meetstats/internal/utils"
	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/klokku/meetstats/pkg/calendar_provider"
	"github.com/klokku/meetstats/pkg/export"
	"github.com/klokku/meetstats/pkg/google"
	log "github.com/sirupsen/logrus"
)

const appName = "meetstats"

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Cfg   config.Application
	Clock utils.Clock
	Bus   *event_bus.EventBus

	DB *pgxpool.Pool

	GoogleAuth    *google.GoogleAuth
	GoogleService *google.ServiceImpl

	StubCalendar    *calendar.MemoryCalendar
	EventRepository *calendar.RepositoryImpl
	EventService    *calendar.Service
	EventHandler    *calendar.Handler

	CalendarProvider *calendar_provider.CalendarProvider

	Notifier      export.Notifier
	ExportService *export.Service
	ExportHandler *export.Handler
}

// BuildDependencies wires all services. The database is only opened when withDB is set,
// so file and Google exports run without Postgres.
func BuildDependencies(ctx context.Context, cfg config.Application, withDB bool) (*Dependencies, error) {
	deps := &Dependencies{
		Cfg:   cfg,
		Clock: &utils.SystemClock{},
		Bus:   event_bus.NewEventBus(),
	}

	if withDB {
		if err := database.Migrate(cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.DB = db
		deps.EventRepository = calendar.NewRepository(db)
		deps.EventService = calendar.NewService(deps.EventRepository)
		deps.EventHandler = calendar.NewHandler(deps.EventService)
	}

	deps.GoogleAuth = google.NewGoogleAuth(cfg.Source.Google)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.StubCalendar = calendar.NewMemoryCalendar()

	var store calendar.Source
	if deps.EventService != nil {
		store = deps.EventService
	}
	deps.CalendarProvider = calendar_provider.NewCalendarProvider(cfg.Source, deps.GoogleService, store, deps.StubCalendar)

	if cfg.Report.Notify {
		deps.Notifier = export.NewDesktopNotifier(appName)
	} else {
		deps.Notifier = export.LogNotifier{}
	}
	deps.ExportService = export.NewService(deps.CalendarProvider, deps.Bus, deps.Clock, cfg.Report, deps.Notifier)

	loc, err := deps.CalendarProvider.Location()
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.ExportHandler = export.NewHandler(deps.ExportService, cfg.Filter, loc)

	log.Debugf("Dependencies ready, source %s, database %t", cfg.Source.Type, withDB)
	return deps, nil
}

// needsDatabase tells whether the configured source reads from Postgres.
func needsDatabase(cfg config.Application) bool {
	return cfg.Source.Type == calendar_provider.SourcePostgres
}

func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
