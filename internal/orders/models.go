package orders

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Order is the durable record of a purchase. Model title/slug are snapshots
// taken at purchase time so later catalog edits never alter history.
type Order struct {
	ID              string            `json:"id"`
	StripeSessionID string            `json:"stripe_session_id"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerName    string            `json:"customer_name"`
	ModelID         string            `json:"model_id"`
	ModelTitle      string            `json:"model_title"`
	ModelSlug       string            `json:"model_slug"`
	AmountCents     int64             `json:"amount_cents"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	Status          Status            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	DownloadExpires *time.Time        `json:"download_expires_at"`
	DownloadCount   int               `json:"download_count"`
	MaxDownloads    int               `json:"max_downloads"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
