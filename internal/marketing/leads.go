package marketing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Lead struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Interest  string    `json:"interest"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) InsertLead(ctx context.Context, l *Lead) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO leads(id, email, name, company, interest)
		VALUES ($1,$2,$3,$4,$5)`, l.ID, l.Email, l.Name, l.Company, l.Interest)
	return err
}
