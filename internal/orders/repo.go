package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, stripe_session_id, customer_email, customer_name,
	model_id, model_title, model_slug, amount_cents, currency, status,
	payment_status, download_expires_at, download_count, max_downloads,
	metadata, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var meta []byte
	err := row.Scan(&o.ID, &o.StripeSessionID, &o.CustomerEmail, &o.CustomerName,
		&o.ModelID, &o.ModelTitle, &o.ModelSlug, &o.AmountCents, &o.Currency, &o.Status,
		&o.PaymentStatus, &o.DownloadExpires, &o.DownloadCount, &o.MaxDownloads,
		&meta, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &o.Metadata)
	}
	o.Amount = float64(o.AmountCents) / 100
	return &o, nil
}

func (r *Repo) FindBySession(ctx context.Context, sessionID string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id=$1`, sessionID)
	return scanOrder(row)
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	return scanOrder(row)
}

// Insert materializes a reconciled order. The unique constraint on
// stripe_session_id resolves concurrent first-time reconciliations: the loser
// gets inserted=false and must re-fetch instead of erroring.
func (r *Repo) Insert(ctx context.Context, o *Order) (inserted bool, err error) {
	meta, err := json.Marshal(o.Metadata)
	if err != nil {
		return false, err
	}
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, stripe_session_id, customer_email, customer_name,
			model_id, model_title, model_slug, amount_cents, currency, status,
			payment_status, download_expires_at, download_count, max_downloads, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (stripe_session_id) DO NOTHING
	`, o.ID, o.StripeSessionID, o.CustomerEmail, o.CustomerName,
		o.ModelID, o.ModelTitle, o.ModelSlug, o.AmountCents, o.Currency, o.Status,
		o.PaymentStatus, o.DownloadExpires, o.DownloadCount, o.MaxDownloads, meta)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// BackfillExpiry sets download_expires_at on legacy rows that predate the
// download window. The IS NULL guard makes it a one-time backfill.
func (r *Repo) BackfillExpiry(ctx context.Context, id string, expires time.Time) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE orders SET download_expires_at=$2, updated_at=now()
		WHERE id=$1 AND download_expires_at IS NULL`, id, expires)
	return err
}

// ClaimDownload increments download_count iff a slot remains. The quota check
// runs inside the UPDATE itself, so two concurrent claims against one
// remaining slot resolve to exactly one success.
func (r *Repo) ClaimDownload(ctx context.Context, id string) (count int, claimed bool, err error) {
	err = r.DB.QueryRow(ctx, `
		UPDATE orders SET download_count = download_count + 1, updated_at=now()
		WHERE id=$1 AND download_count < max_downloads
		RETURNING download_count`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
