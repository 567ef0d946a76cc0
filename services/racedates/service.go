// Package racedates keeps the local catalog of race days driving
// batch extraction: which dates had meetings, at which venue, and how
// far their extraction got.
package racedates

import (
	"context"
	"database/sql"
	"fmt"

	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/lib/timezone"
	"hkracing-backend/services/racedates/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/racedates")

// Status is a race day's extraction state in the catalog.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusNoRacing  Status = "no_racing"
	StatusFailed    Status = "failed"
)

// RaceDay is one meeting in the catalog. Races is how many races the
// meeting card listed, 0 when unknown.
type RaceDay struct {
	Date   string
	Venue  hkjc.Venue
	Races  int
	Status Status
	Note   string
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) (Store, error) {
	_, err := database.Exec(db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return Store{db: database}, nil
}

// Seed inserts race days that are not yet in the catalog. a day with
// an empty Status is seeded pending; a caller that already knows the
// outcome (e.g. a probed no-racing day) can seed it settled. days
// already present keep their status; re-seeding a processed range is
// a no-op.
func (s Store) Seed(ctx context.Context, days []RaceDay) error {
	ctx, span := tracer.Start(ctx, "Seed")
	defer span.End()
	span.SetAttributes(attribute.Int("count", len(days)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()

	now := timezone.Now().Unix()
	for _, day := range days {
		status := day.Status
		if status == "" {
			status = StatusPending
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO race_days (race_date, venue, races, status, note, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			day.Date, string(day.Venue), day.Races, string(status), day.Note, now,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Pending lists catalog days still awaiting extraction whose races are
// settled, i.e. strictly before today in Hong Kong. the current day is
// never returned even after the last race, so a meeting is only
// scraped once its card is final.
func (s Store) Pending(ctx context.Context) ([]RaceDay, error) {
	ctx, span := tracer.Start(ctx, "Pending")
	defer span.End()

	cutoff := timezone.Now().Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx,
		`SELECT race_date, venue, races, status, note FROM race_days
		 WHERE status = ? AND race_date < ?
		 ORDER BY race_date, venue`,
		string(StatusPending), cutoff,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	days, err := scanDays(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(days)))
	return days, nil
}

// ByStatus lists catalog days in a given state, oldest first.
func (s Store) ByStatus(ctx context.Context, status Status) ([]RaceDay, error) {
	ctx, span := tracer.Start(ctx, "ByStatus")
	defer span.End()
	span.SetAttributes(attribute.String("status", string(status)))

	rows, err := s.db.QueryContext(ctx,
		`SELECT race_date, venue, races, status, note FROM race_days
		 WHERE status = ? ORDER BY race_date, venue`,
		string(status),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

func scanDays(rows *sql.Rows) ([]RaceDay, error) {
	var days []RaceDay
	for rows.Next() {
		var day RaceDay
		var venue, status string
		err := rows.Scan(&day.Date, &venue, &day.Races, &status, &day.Note)
		if err != nil {
			return nil, err
		}
		day.Venue = hkjc.Venue(venue)
		day.Status = Status(status)
		days = append(days, day)
	}
	return days, rows.Err()
}

// SetStatus records the outcome of extracting one race day.
func (s Store) SetStatus(ctx context.Context, date string, venue hkjc.Venue, status Status, note string) error {
	ctx, span := tracer.Start(ctx, "SetStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("race_date", date),
		attribute.String("venue", string(venue)),
		attribute.String("status", string(status)),
	)

	res, err := s.db.ExecContext(ctx,
		`UPDATE race_days SET status = ?, note = ?, updated_at = ? WHERE race_date = ? AND venue = ?`,
		string(status), note, timezone.Now().Unix(), date, string(venue),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if affected == 0 {
		err := fmt.Errorf("race day %s %s not in catalog", date, venue)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// CountByStatus reports catalog totals per state.
func (s Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ctx, span := tracer.Start(ctx, "CountByStatus")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM race_days GROUP BY status`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	counts := map[Status]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}
