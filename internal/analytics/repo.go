package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkellner/modelstore/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

// Insert stores one event row; replays are swallowed by the primary key.
func (r *Repo) Insert(ctx context.Context, env *orders.Envelope) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO analytics_events(event_id, event_type, occurred_at, producer, correlation_id, payload)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (event_id) DO NOTHING
	`, env.EventID, env.EventType, env.OccurredAt, env.Producer, env.CorrelationID, []byte(env.Payload))
	return err
}
