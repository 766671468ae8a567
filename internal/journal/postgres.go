package journal

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS session_events (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	kind        TEXT NOT NULL,
	role        TEXT NOT NULL,
	participant TEXT NOT NULL,
	data        TEXT NOT NULL
)`

const insertEvent = `
INSERT INTO session_events (id, session_id, created_at, kind, role, participant, data)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

const selectEvents = `
SELECT id, session_id, created_at, kind, role, participant, data
FROM session_events
WHERE session_id = $1
ORDER BY id`

// PostgresSink keeps the journal in the session_events table for later evaluation.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseUrl string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseUrl)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createEventsTable); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresSink{
		pool: pool,
	}, nil
}

func (s *PostgresSink) Write(ctx context.Context, events []*Event) error {
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertEvent, e.Id, e.SessionId, e.Time, e.Kind, e.Role, e.Participant, e.Data)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// Events returns the journal of one session in creation order.
func (s *PostgresSink) Events(ctx context.Context, sessionId string) ([]*Event, error) {
	rows, err := s.pool.Query(ctx, selectEvents, sessionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.Id, &e.SessionId, &e.Time, &e.Kind, &e.Role, &e.Participant, &e.Data); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
