package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"geo-reminders/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is ISO-8601 with fixed-width nanoseconds so that stored UTC
// timestamps order lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateTables(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS reminders (
    id                 TEXT PRIMARY KEY,
    title              TEXT    NOT NULL,
    description        TEXT    NOT NULL DEFAULT '',
    latitude           REAL    NOT NULL,
    longitude          REAL    NOT NULL,
    radius_m           INTEGER NOT NULL,
    address            TEXT    NOT NULL DEFAULT '',
    active             INTEGER NOT NULL DEFAULT 1,
    notification_title TEXT    NOT NULL,
    notification_body  TEXT    NOT NULL,
    created_at         TEXT    NOT NULL,
    triggered_at       TEXT
);
`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("create table reminders: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, r *model.Reminder) (string, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()

	query := `
INSERT INTO reminders (id, title, description, latitude, longitude, radius_m, address, active, notification_title, notification_body, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Title,
		r.Description,
		r.Latitude,
		r.Longitude,
		r.RadiusM,
		r.Address,
		boolToInt(r.Active),
		r.NotificationTitle,
		r.NotificationBody,
		r.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return "", &model.StorageError{Op: "create", Err: err}
	}
	return r.ID, nil
}

const selectColumns = `id, title, description, latitude, longitude, radius_m, address, active, notification_title, notification_body, created_at, triggered_at`

func (s *Store) GetAll(ctx context.Context) ([]model.Reminder, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM reminders
ORDER BY created_at DESC;
`, selectColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &model.StorageError{Op: "get all", Err: err}
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (s *Store) List(ctx context.Context, page, pageSize int) ([]model.Reminder, error) {
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
SELECT %s
FROM reminders
ORDER BY created_at DESC
LIMIT ? OFFSET ?;
`, selectColumns)

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, &model.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.Reminder, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM reminders
WHERE id = ?;
`, selectColumns)

	r, err := scanReminder(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "get by id", Err: err}
	}
	return r, nil
}

// Update applies only the fields set in upd. An empty update is a
// successful no-op; an unknown id returns model.ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, upd model.ReminderUpdate) error {
	if upd.Empty() {
		return nil
	}

	var sets []string
	var args []any
	set := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}

	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Latitude != nil {
		set("latitude", *upd.Latitude)
	}
	if upd.Longitude != nil {
		set("longitude", *upd.Longitude)
	}
	if upd.RadiusM != nil {
		set("radius_m", *upd.RadiusM)
	}
	if upd.Address != nil {
		set("address", *upd.Address)
	}
	if upd.Active != nil {
		set("active", boolToInt(*upd.Active))
	}
	if upd.NotificationTitle != nil {
		set("notification_title", *upd.NotificationTitle)
	}
	if upd.NotificationBody != nil {
		set("notification_body", *upd.NotificationBody)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE reminders SET %s WHERE id = ?;", strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &model.StorageError{Op: "update", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &model.StorageError{Op: "update", Err: err}
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the record. Deleting a nonexistent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?;`, id)
	if err != nil {
		return &model.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// MarkTriggered sets triggered_at to now. Once set it only moves forward;
// it is never cleared except by deleting the record.
func (s *Store) MarkTriggered(ctx context.Context, id string) error {
	query := `
UPDATE reminders
SET triggered_at = ?
WHERE id = ?;
`
	res, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return &model.StorageError{Op: "mark triggered", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &model.StorageError{Op: "mark triggered", Err: err}
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*model.Reminder, error) {
	var (
		r           model.Reminder
		active      int
		createdAt   string
		triggeredAt sql.NullString
	)
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.Latitude,
		&r.Longitude,
		&r.RadiusM,
		&r.Address,
		&active,
		&r.NotificationTitle,
		&r.NotificationBody,
		&createdAt,
		&triggeredAt,
	)
	if err != nil {
		return nil, err
	}

	r.Active = active == 1
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if triggeredAt.Valid {
		t, err := time.Parse(timeLayout, triggeredAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse triggered_at: %w", err)
		}
		r.TriggeredAt = &t
	}
	return &r, nil
}

func scanReminders(rows *sql.Rows) ([]model.Reminder, error) {
	var result []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
