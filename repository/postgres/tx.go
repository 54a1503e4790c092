package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/teamtasks/repository"
)

type transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Transactor that binds a pgx transaction to the context.
func NewTransactor(pool *pgxpool.Pool) repository.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(repository.MarkTx(context.WithValue(ctx, txKey{}, tx)))
	})
}
