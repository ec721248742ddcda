package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/cueladder/backend/internal/models"
)

// DBSink appends events to the activity_log table, the append-only audit
// trail behind the activity feed.
type DBSink struct {
	db *sqlx.DB
}

func NewDBSink(db *sqlx.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Emit(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		log.Printf("[EVENTS] Marshal %s for activity log failed: %v", ev.Type, err)
		payload = []byte("{}")
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (event_type, payload, created_at) VALUES ($1, $2, $3)`,
		ev.Type, payload, ev.At); err != nil {
		log.Printf("[EVENTS] Activity log insert for %s failed: %v", ev.Type, err)
	}
}

// RecentActivity returns the newest entries, optionally filtered by type.
func RecentActivity(ctx context.Context, db *sqlx.DB, eventType string, limit, offset int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.ActivityEntry
	if eventType != "" {
		err := db.SelectContext(ctx, &entries, `
			SELECT id, event_type, payload, created_at
			FROM activity_log
			WHERE event_type = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, eventType, limit, offset)
		return entries, err
	}

	err := db.SelectContext(ctx, &entries, `
		SELECT id, event_type, payload, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return entries, err
}
