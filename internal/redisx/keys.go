package redisx

import "time"

const (
	// Cached order JSON keyed by checkout session: order:session:{session_id}
	KeyOrderBySession = "order:session:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
