package shortener

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	db "github.com/sundayezeilo/shortlink/internal/db/sqlc"
	"github.com/sundayezeilo/shortlink/internal/errx"
)

// querier is an internal interface that abstracts *db.Queries
type querier interface {
	GetLink(ctx context.Context, id string) (db.Link, error)
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	UpdateLinkTarget(ctx context.Context, arg db.UpdateLinkTargetParams) (int64, error)
}

type repo struct {
	q querier
}

// NewRepository creates a PostgreSQL-backed Repository over sqlc queries.
func NewRepository(q querier) Repository {
	return &repo{q: q}
}

func toDomainLink(x db.Link) Link {
	return Link{
		ID:        x.ID,
		TargetURL: x.TargetUrl,
	}
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isIDUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Storage, err)
	}
}

func (r *repo) Get(ctx context.Context, id string) (Link, error) {
	const op = "shortener.repo.Get"

	row, err := r.q.GetLink(ctx, id)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return toDomainLink(row), nil
}

func (r *repo) Insert(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.Insert"

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		ID:        link.ID,
		TargetUrl: link.TargetURL,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return toDomainLink(row), nil
}

func (r *repo) UpdateTarget(ctx context.Context, id, targetURL string) (int64, error) {
	const op = "shortener.repo.UpdateTarget"

	n, err := r.q.UpdateLinkTarget(ctx, db.UpdateLinkTargetParams{
		ID:        id,
		TargetUrl: targetURL,
	})
	if err != nil {
		return 0, mapRepoError(op, err)
	}
	return n, nil
}
