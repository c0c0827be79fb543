package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("model not found")

type Repo struct{ DB *pgxpool.Pool }

const modelColumns = `id, slug, title, description, category, file_url,
	excel_url, price_cents, status, tags, created_at, updated_at`

func scanModel(row pgx.Row) (*Model, error) {
	var m Model
	err := row.Scan(&m.ID, &m.Slug, &m.Title, &m.Description, &m.Category,
		&m.FileURL, &m.ExcelURL, &m.PriceCents, &m.Status, &m.Tags,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) ListActive(ctx context.Context) ([]Model, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+modelColumns+` FROM models
		WHERE status='active' ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (*Model, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+modelColumns+` FROM models WHERE slug=$1`, slug)
	return scanModel(row)
}

// ModelFileURLs satisfies the download gate's model lookup.
func (r *Repo) ModelFileURLs(ctx context.Context, modelID string) (excelURL, fileURL string, err error) {
	err = r.DB.QueryRow(ctx, `SELECT excel_url, file_url FROM models WHERE id=$1`,
		modelID).Scan(&excelURL, &fileURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return excelURL, fileURL, err
}
