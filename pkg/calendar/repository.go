package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Repository keeps imported events so reports can be built offline.
type Repository interface {
	StoreEvents(ctx context.Context, events []Event) (int, error)
	GetEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	DeleteAll(ctx context.Context) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

// StoreEvents inserts all readable events in one transaction and returns how many were stored.
// Events that carry an access error are skipped.
func (r *RepositoryImpl) StoreEvents(ctx context.Context, events []Event) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertEvent = `
		INSERT INTO calendar_event (uid, subject, start_time, start_tz, duration_minutes, status, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (uid) DO UPDATE SET
			subject = EXCLUDED.subject,
			start_time = EXCLUDED.start_time,
			start_tz = EXCLUDED.start_tz,
			duration_minutes = EXCLUDED.duration_minutes,
			status = EXCLUDED.status,
			categories = EXCLUDED.categories`

	batch := &pgx.Batch{}
	for _, event := range events {
		if event.Err != nil {
			log.Debugf("skipping unreadable event %q: %v", event.Subject, event.Err)
			continue
		}
		uid := event.UID.UUID
		if !event.UID.Valid {
			uid = uuid.New()
		}
		batch.Queue(insertEvent,
			uid,
			event.Subject,
			event.Start,
			event.Start.Location().String(),
			event.DurationMinutes,
			int16(event.Status),
			event.Categories,
		)
	}
	stored := batch.Len()
	if stored > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			err := fmt.Errorf("failed to insert calendar events: %w", err)
			log.Error(err)
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return stored, nil
}

// GetEvents returns events starting in [from, to) ordered by start time.
func (r *RepositoryImpl) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := `SELECT uid, subject, start_time, start_tz, duration_minutes, status, categories
			  FROM calendar_event
			  WHERE start_time >= $1
			    AND start_time < $2
			  ORDER BY start_time, subject`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		var event Event
		var startTz string
		var status int16
		err := rows.Scan(&event.UID, &event.Subject, &event.Start, &startTz, &event.DurationMinutes, &status, &event.Categories)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		event.Status = MeetingStatus(status)
		if loc, err := time.LoadLocation(startTz); err == nil {
			event.Start = event.Start.In(loc)
		} else {
			log.Warnf("unknown time zone %q stored for event %s", startTz, event.UID.UUID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read calendar events: %w", err)
	}
	return events, nil
}

func (r *RepositoryImpl) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "DELETE FROM calendar_event")
	if err != nil {
		err := fmt.Errorf("could not delete calendar events: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
