package store

import (
	"database/sql"
	"time"
)

// Frame represents one frame's tracking measurements within a run.
type Frame struct {
	ID         int64
	RunID      string
	Index      int
	Strategy   string
	LeftValid  bool
	RightValid bool
	Curvature  float64
	Offset     float64
	CreatedAt  time.Time
}

// FrameRepository provides storage for per-frame measurements.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Insert stores a frame measurement.
func (r *FrameRepository) Insert(f *Frame) error {
	f.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO frames (run_id, frame_index, strategy, left_valid, right_valid, curvature, offset_m, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Index, f.Strategy, f.LeftValid, f.RightValid, f.Curvature, f.Offset, f.CreatedAt,
	)
	if err != nil {
		return err
	}

	f.ID, err = result.LastInsertId()
	return err
}

// ListByRun retrieves all frame measurements of a run in frame order.
func (r *FrameRepository) ListByRun(runID string) ([]*Frame, error) {
	rows, err := r.db.Query(
		`SELECT id, run_id, frame_index, strategy, left_valid, right_valid, curvature, offset_m, created_at
		 FROM frames WHERE run_id = ? ORDER BY frame_index ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []*Frame
	for rows.Next() {
		f := &Frame{}
		err := rows.Scan(&f.ID, &f.RunID, &f.Index, &f.Strategy,
			&f.LeftValid, &f.RightValid, &f.Curvature, &f.Offset, &f.CreatedAt)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// CountByRun returns the number of stored frames for a run.
func (r *FrameRepository) CountByRun(runID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM frames WHERE run_id = ?`, runID).Scan(&count)
	return count, err
}
