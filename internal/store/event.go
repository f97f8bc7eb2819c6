package store

import (
	"database/sql"
	"time"
)

// EventType identifies what happened at a frame.
type EventType string

const (
	// EventLaneDeparture means the vehicle drifted past the departure threshold.
	EventLaneDeparture EventType = "lane_departure"
	// EventLaneLost means both boundary fits failed validation.
	EventLaneLost EventType = "lane_lost"
	// EventLaneReacquired means tracking recovered after a loss.
	EventLaneReacquired EventType = "lane_reacquired"
	// EventSceneCut means the footage cut to a different scene.
	EventSceneCut EventType = "scene_cut"
)

// Event represents a notable moment within a run.
type Event struct {
	ID         int64
	RunID      string
	FrameIndex int
	Type       EventType
	Detail     string
	CreatedAt  time.Time
}

// EventRepository provides storage for run events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Insert stores an event.
func (r *EventRepository) Insert(e *Event) error {
	e.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO events (run_id, frame_index, type, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.FrameIndex, string(e.Type), e.Detail, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListByRun retrieves all events of a run in frame order.
func (r *EventRepository) ListByRun(runID string) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, run_id, frame_index, type, detail, created_at
		 FROM events WHERE run_id = ? ORDER BY frame_index ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var eventType string

		err := rows.Scan(&e.ID, &e.RunID, &e.FrameIndex, &eventType, &e.Detail, &e.CreatedAt)
		if err != nil {
			return nil, err
		}

		e.Type = EventType(eventType)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
