package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCompleted  = "OrderCompleted"
	EventAssetDownloaded = "AssetDownloaded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCompletedPayload struct {
	OrderID         string `json:"order_id"`
	StripeSessionID string `json:"stripe_session_id"`
	CustomerEmail   string `json:"customer_email"`
	ModelID         string `json:"model_id"`
	ModelSlug       string `json:"model_slug"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

type AssetDownloadedPayload struct {
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	ModelSlug     string `json:"model_slug"`
	DownloadCount int    `json:"download_count"`
	MaxDownloads  int    `json:"max_downloads"`
}
