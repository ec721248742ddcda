package ladder

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"testing"
	"time"
)

type recordedWrite struct {
	query string
	args  []interface{}
}

// recordingExec captures the statements writeWin issues.
type recordingExec struct {
	writes []recordedWrite
}

func (r *recordingExec) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	r.writes = append(r.writes, recordedWrite{query: query, args: args})
	return driver.RowsAffected(1), nil
}

func TestNoopWinStillSetsCooldown(t *testing.T) {
	ex := &recordingExec{}
	until := time.Now().UTC().Add(24 * time.Hour)

	// Winner at rank 2 beats rank 9: nothing slides.
	plan := planShift(2, 9)
	if !plan.noop {
		t.Fatal("Winner above loser must plan a no-op")
	}

	if err := writeWin(context.Background(), ex, plan, 21, 99, until); err != nil {
		t.Fatalf("writeWin failed: %v", err)
	}

	if len(ex.writes) != 1 {
		t.Fatalf("No-op win issued %d writes, want just the cooldown", len(ex.writes))
	}
	w := ex.writes[0]
	if !strings.Contains(w.query, "cooldown_until") {
		t.Errorf("Only write is not the cooldown: %s", w.query)
	}
	if w.args[0] != until || w.args[1] != 99 {
		t.Errorf("Cooldown write args %v, want [%v 99]", w.args, until)
	}
}

func TestShiftWritesSlideThenCooldown(t *testing.T) {
	ex := &recordingExec{}
	until := time.Now().UTC().Add(24 * time.Hour)

	// Winner at rank 7 takes rank 3.
	plan := planShift(7, 3)
	if err := writeWin(context.Background(), ex, plan, 21, 99, until); err != nil {
		t.Fatalf("writeWin failed: %v", err)
	}

	if len(ex.writes) != 3 {
		t.Fatalf("Shift issued %d writes, want 3", len(ex.writes))
	}

	slide := ex.writes[0]
	if !strings.Contains(slide.query, "rank = rank + 1") {
		t.Errorf("First write is not the slide: %s", slide.query)
	}
	if slide.args[0] != 3 || slide.args[1] != 7 {
		t.Errorf("Slide range args %v, want [3 7]", slide.args)
	}

	place := ex.writes[1]
	if !strings.Contains(place.query, "SET rank = $1") {
		t.Errorf("Second write is not the winner placement: %s", place.query)
	}
	if place.args[0] != 3 || place.args[1] != 21 {
		t.Errorf("Placement args %v, want [3 21]", place.args)
	}

	cooldown := ex.writes[2]
	if !strings.Contains(cooldown.query, "cooldown_until") {
		t.Errorf("Last write is not the cooldown: %s", cooldown.query)
	}
	if cooldown.args[1] != 99 {
		t.Errorf("Cooldown set for member %v, want the loser 99", cooldown.args[1])
	}
}
