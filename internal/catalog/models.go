package catalog

import "time"

type ModelStatus string

const (
	ModelActive   ModelStatus = "active"
	ModelInactive ModelStatus = "inactive"
	ModelArchived ModelStatus = "archived"
)

// Model is one sellable financial model. Read-mostly; orders snapshot its
// title/slug at purchase time instead of referencing it live.
type Model struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	FileURL     string      `json:"file_url"`
	ExcelURL    string      `json:"excel_url"`
	PriceCents  int64       `json:"price_cents"`
	Status      ModelStatus `json:"status"`
	Tags        []string    `json:"tags"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
