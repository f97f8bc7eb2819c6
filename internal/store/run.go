package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Run represents one processed video or live capture session.
type Run struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is still going
	Frames     int
}

// Finished reports whether the run has been marked complete.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// RunRepository provides CRUD operations for runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create inserts a new run into the database.
func (r *RunRepository) Create(run *Run) error {
	run.StartedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO runs (id, source, started_at, frames) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.StartedAt, run.Frames,
	)
	if err != nil {
		return err
	}

	return nil
}

// Finish marks a run complete and records its final frame count.
func (r *RunRepository) Finish(id string, frames int) error {
	result, err := r.db.Exec(
		`UPDATE runs SET finished_at = ?, frames = ? WHERE id = ?`,
		time.Now(), frames, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run := &Run{}
	var finishedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, source, started_at, finished_at, frames FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Source, &run.StartedAt, &finishedAt, &run.Frames)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return run, nil
}

// List retrieves all runs, newest first.
func (r *RunRepository) List() ([]*Run, error) {
	rows, err := r.db.Query(
		`SELECT id, source, started_at, finished_at, frames FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var finishedAt sql.NullTime

		err := rows.Scan(&run.ID, &run.Source, &run.StartedAt, &finishedAt, &run.Frames)
		if err != nil {
			return nil, err
		}

		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// Delete removes a run and, through foreign keys, its frames and events.
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
