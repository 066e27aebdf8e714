// Package repo persists user accounts and saved analysis runs in Postgres.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// RunSummary lists a saved run without its payloads.
type RunSummary struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is a saved analysis: the request and its computed result, stored as
// JSON so older runs survive schema evolution.
type Run struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetByLogin(ctx context.Context, login string) (int, string, error)

	SaveRun(ctx context.Context, userID int, name string, input, result json.RawMessage) (int, error)
	ListRuns(ctx context.Context, userID int) ([]RunSummary, error)
	GetRun(ctx context.Context, userID, runID int) (Run, error)
	DeleteRun(ctx context.Context, userID, runID int) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	return id, err
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, "", nil
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *PostgresRepository) SaveRun(ctx context.Context, userID int, name string, input, result json.RawMessage) (int, error) {
	var id int
	query := "INSERT INTO runs (user_id, name, input, result) VALUES ($1, $2, $3, $4) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, userID, name, input, result).Scan(&id)
	return id, err
}

func (r *PostgresRepository) ListRuns(ctx context.Context, userID int) ([]RunSummary, error) {
	query := "SELECT id, name, created_at FROM runs WHERE user_id=$1 ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetRun(ctx context.Context, userID, runID int) (Run, error) {
	var run Run
	query := "SELECT id, name, input, result, created_at FROM runs WHERE id=$1 AND user_id=$2"
	err := r.db.QueryRowContext(ctx, query, runID, userID).
		Scan(&run.ID, &run.Name, &run.Input, &run.Result, &run.CreatedAt)
	return run, err
}

func (r *PostgresRepository) DeleteRun(ctx context.Context, userID, runID int) error {
	query := "DELETE FROM runs WHERE id=$1 AND user_id=$2"
	res, err := r.db.ExecContext(ctx, query, runID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
