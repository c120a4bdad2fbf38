package postgres

import (
	"context"

	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
)

// SearchOptions configures paged searches for every repository in this package.
type SearchOptions struct {
	CountPolicy query.CountPolicy
	// Concurrent lets content and count run on two pooled connections at once.
	Concurrent bool
	// Snapshot pins content and count to one repeatable-read transaction.
	Snapshot bool
}

func (o SearchOptions) builderOptions() query.Options {
	// one transaction means one connection, which cannot serve two queries at once
	return query.Options{CountPolicy: o.CountPolicy, Concurrent: o.Concurrent && !o.Snapshot}
}

// searchPage runs b.SearchPage with the transaction rules of this package: inside an
// outer transaction both plans go sequentially through it; with Snapshot set a
// read-only repeatable-read transaction is opened around them.
func searchPage[C, T any](ctx context.Context, tx repository.TxManager, b *query.Builder[C, T], snapshot bool, c C, p query.PageRequest) (query.Page[T], error) {
	if err := p.Validate(); err != nil {
		return query.Page[T]{}, err
	}
	if _, inTx := txFrom(ctx); inTx {
		return b.Sequential().SearchPage(ctx, c, p)
	}
	if !snapshot {
		return b.SearchPage(ctx, c, p)
	}
	var page query.Page[T]
	err := tx.WithinSnapshot(ctx, func(ctx context.Context) error {
		var err error
		page, err = b.Sequential().SearchPage(ctx, c, p)
		return err
	})
	if err != nil {
		return query.Page[T]{}, err
	}
	return page, nil
}
