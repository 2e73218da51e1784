package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iabalyuk/gorzdravbot/ident"
	"github.com/iabalyuk/gorzdravbot/logging"
)

// SQLiteStorage represents a persistent storage using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	logger *logging.Logger
	now    func() time.Time
}

var _ StorageInterface = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (creating if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string, logger *logging.Logger) (*SQLiteStorage, error) {
	if dbPath == "" {
		dbPath = "gorzdrav.db"
	}
	if logger == nil {
		logger = logging.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; the checker and the handlers share it.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := migrateSchema(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		logger: logger,
		now:    time.Now,
	}, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS doctors (
			id TEXT PRIMARY KEY,
			district_id TEXT NOT NULL,
			facility_id INTEGER NOT NULL,
			specialty_id TEXT NOT NULL,
			doctor_id TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create doctors table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			watching INTEGER NOT NULL DEFAULT 0,
			doctor_id TEXT REFERENCES doctors(id),
			last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_users_watching_doctor ON users(watching, doctor_id)`)
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

// migrateSchema adds columns introduced after the first release.
func migrateSchema(db *sql.DB, logger *logging.Logger) error {
	exists, err := columnExists(db, "users", "day_window")
	if err != nil {
		return err
	}
	if !exists {
		logger.Info("schema migration: adding day_window column to users")
		if _, err := db.Exec("ALTER TABLE users ADD COLUMN day_window INTEGER"); err != nil {
			return fmt.Errorf("failed to add day_window column: %w", err)
		}
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to query table info for %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			typeName  string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typeName, &notnull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan table info row: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating table info rows: %w", err)
	}
	return false, nil
}

// RecreateUser deletes and re-inserts the profile in one transaction.
func (s *SQLiteStorage) RecreateUser(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (id, watching, doctor_id, last_seen, day_window) VALUES (?, 0, NULL, ?, NULL)",
		userID, s.now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert user %d: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetUser returns the user's profile.
func (s *SQLiteStorage) GetUser(ctx context.Context, userID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, watching, doctor_id, last_seen, day_window FROM users WHERE id = ?", userID)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return u, nil
}

// DeleteUser removes the user's profile.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return nil
}

// SetWatching toggles the subscription flag.
func (s *SQLiteStorage) SetWatching(ctx context.Context, userID int64, watching bool) error {
	return s.updateUser(ctx, userID, "UPDATE users SET watching = ? WHERE id = ?", watching, userID)
}

// SetDayWindow stores the day window, clearing it for days <= 0.
func (s *SQLiteStorage) SetDayWindow(ctx context.Context, userID int64, days int) error {
	var window sql.NullInt64
	if days > 0 {
		window = sql.NullInt64{Int64: int64(days), Valid: true}
	}
	return s.updateUser(ctx, userID, "UPDATE users SET day_window = ? WHERE id = ?", window, userID)
}

// Touch updates last_seen.
func (s *SQLiteStorage) Touch(ctx context.Context, userID int64) error {
	return s.updateUser(ctx, userID, "UPDATE users SET last_seen = ? WHERE id = ?", s.now().UTC(), userID)
}

// SetUserDoctor assigns a stored doctor to the user.
func (s *SQLiteStorage) SetUserDoctor(ctx context.Context, userID int64, doctorID string) error {
	return s.updateUser(ctx, userID, "UPDATE users SET doctor_id = ? WHERE id = ?", doctorID, userID)
}

func (s *SQLiteStorage) updateUser(ctx context.Context, userID int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDoctor inserts the doctor unless a row with the same identity exists.
func (s *SQLiteStorage) AddDoctor(ctx context.Context, key ident.DoctorKey) (string, error) {
	id := ident.DoctorID(key)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO doctors (id, district_id, facility_id, specialty_id, doctor_id)
		 VALUES (?, ?, ?, ?, ?)`,
		id, key.DistrictID, key.FacilityID, key.SpecialtyID, key.DoctorID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add doctor %s: %w", id, err)
	}
	return id, nil
}

// GetDoctor returns a stored doctor by identity hash.
func (s *SQLiteStorage) GetDoctor(ctx context.Context, doctorID string) (*Doctor, error) {
	var d Doctor
	err := s.db.QueryRowContext(ctx,
		"SELECT id, district_id, facility_id, specialty_id, doctor_id FROM doctors WHERE id = ?", doctorID,
	).Scan(&d.ID, &d.DistrictID, &d.FacilityID, &d.SpecialtyID, &d.DoctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor %s: %w", doctorID, err)
	}
	return &d, nil
}

// GetUserDoctor returns the doctor assigned to the user.
func (s *SQLiteStorage) GetUserDoctor(ctx context.Context, userID int64) (*Doctor, error) {
	var d Doctor
	err := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.district_id, d.facility_id, d.specialty_id, d.doctor_id
		FROM users u JOIN doctors d ON d.id = u.doctor_id
		WHERE u.id = ?`, userID,
	).Scan(&d.ID, &d.DistrictID, &d.FacilityID, &d.SpecialtyID, &d.DoctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor of user %d: %w", userID, err)
	}
	return &d, nil
}

// ActiveDoctorsWithUsers joins doctors with their watching users.
func (s *SQLiteStorage) ActiveDoctorsWithUsers(ctx context.Context) ([]WatchedDoctor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.district_id, d.facility_id, d.specialty_id, d.doctor_id,
		       u.id, u.watching, u.doctor_id, u.last_seen, u.day_window
		FROM doctors d JOIN users u ON u.doctor_id = d.id
		WHERE u.watching = 1
		ORDER BY d.id, u.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched doctors: %w", err)
	}
	defer rows.Close()

	var out []WatchedDoctor
	for rows.Next() {
		var (
			d      Doctor
			u      User
			docRef sql.NullString
			window sql.NullInt64
		)
		if err := rows.Scan(
			&d.ID, &d.DistrictID, &d.FacilityID, &d.SpecialtyID, &d.DoctorID,
			&u.ID, &u.Watching, &docRef, &u.LastSeen, &window,
		); err != nil {
			return nil, fmt.Errorf("failed to scan watched doctor row: %w", err)
		}
		fillUser(&u, docRef, window)

		if n := len(out); n > 0 && out[n-1].Doctor.ID == d.ID {
			out[n-1].Users = append(out[n-1].Users, u)
			continue
		}
		out = append(out, WatchedDoctor{Doctor: d, Users: []User{u}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watched doctor rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u      User
		docRef sql.NullString
		window sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Watching, &docRef, &u.LastSeen, &window); err != nil {
		return nil, err
	}
	fillUser(&u, docRef, window)
	return &u, nil
}

func fillUser(u *User, docRef sql.NullString, window sql.NullInt64) {
	if docRef.Valid {
		u.DoctorID = docRef.String
	}
	if window.Valid {
		w := int(window.Int64)
		u.DayWindow = &w
	}
}
