package database

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
	"github.com/rs/zerolog/log"

	"github.com/taskdeck/taskdeck-be/internal/auth"
)

// New creates a new database connection pool.
func New(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);

	CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		due_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
	CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id BIGINT REFERENCES users (id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// Seed inserts a development admin and a regular user when the users table
// is empty. Never called in production.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	accounts := []struct {
		name, email, password, role string
	}{
		{"Admin User", "admin@example.com", "admin123", "admin"},
		{"Regular User", "user@example.com", "user123", "user"},
	}

	for _, a := range accounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return err
		}
		_, err = db.Exec(
			"INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4)",
			a.name, a.email, hash, a.role,
		)
		if err != nil {
			return err
		}
	}

	log.Info().Msg("Seeded development accounts")
	return nil
}
