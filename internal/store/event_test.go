package store

import (
	"testing"
)

func TestEventRepository_InsertAndList(t *testing.T) {
	s := newTestStore(t)

	if err := s.Runs().Create(&Run{ID: "run-1", Source: "camera:0"}); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	repo := s.Events()
	events := []*Event{
		{RunID: "run-1", FrameIndex: 12, Type: EventLaneDeparture, Detail: "offset 0.82m"},
		{RunID: "run-1", FrameIndex: 47, Type: EventLaneLost},
		{RunID: "run-1", FrameIndex: 55, Type: EventLaneReacquired},
	}
	for _, e := range events {
		if err := repo.Insert(e); err != nil {
			t.Fatalf("failed to insert event at frame %d: %v", e.FrameIndex, err)
		}
		if e.ID == 0 {
			t.Errorf("event at frame %d should get a database ID", e.FrameIndex)
		}
	}

	listed, err := repo.ListByRun("run-1")
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 events, got %d", len(listed))
	}
	if listed[0].Type != EventLaneDeparture {
		t.Errorf("Type mismatch: got %q, want %q", listed[0].Type, EventLaneDeparture)
	}
	if listed[0].Detail != "offset 0.82m" {
		t.Errorf("Detail mismatch: got %q, want %q", listed[0].Detail, "offset 0.82m")
	}
	if listed[1].FrameIndex != 47 {
		t.Errorf("FrameIndex mismatch: got %d, want 47", listed[1].FrameIndex)
	}
}

func TestEventRepository_RejectsUnknownType(t *testing.T) {
	s := newTestStore(t)

	if err := s.Runs().Create(&Run{ID: "run-1", Source: "camera:0"}); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	err := s.Events().Insert(&Event{RunID: "run-1", FrameIndex: 0, Type: "mystery"})
	if err == nil {
		t.Error("expected the type check constraint to reject an unknown event type")
	}
}

func TestEventRepository_CascadeDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Runs().Create(&Run{ID: "run-1", Source: "camera:0"}); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if err := s.Events().Insert(&Event{RunID: "run-1", FrameIndex: 3, Type: EventSceneCut}); err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	if err := s.Runs().Delete("run-1"); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	listed, err := s.Events().ListByRun("run-1")
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected events to cascade on run delete, got %d left", len(listed))
	}
}
