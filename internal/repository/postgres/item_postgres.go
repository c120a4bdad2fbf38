package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
	"github.com/rs/zerolog"
)

var itemPlanner = query.Planner[model.ItemSearch]{
	Content: func(c model.ItemSearch) sq.SelectBuilder {
		b := psql.Select("i.id", "i.name", "i.price", "i.stock_quantity", "i.category", "i.created_at").
			From("items i")
		return query.Filter(b, itemWhere(c))
	},
	Count: func(c model.ItemSearch) sq.SelectBuilder {
		return query.Filter(psql.Select("COUNT(i.id)").From("items i"), itemWhere(c))
	},
	Sortable: map[string]string{
		"id":             "i.id",
		"name":           "i.name",
		"price":          "i.price",
		"stock_quantity": "i.stock_quantity",
		"category":       "i.category",
		"created_at":     "i.created_at",
	},
	DefaultOrder: []string{"i.id ASC"},
}

func itemWhere(c model.ItemSearch) sq.Sqlizer {
	return query.All(
		query.ContainsText("i.name", c.Name),
		query.EqText("i.category", strings.ToLower(c.Category)),
		query.Goe("i.price", c.PriceGoe),
		query.Loe("i.price", c.PriceLoe),
	)
}

func scanItem(row pgx.Row) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.StockQuantity, &it.Category, &it.CreatedAt)
	return it, err
}

func collectItem(row pgx.CollectableRow) (model.Item, error) { return scanItem(row) }

type itemRepository struct {
	pool     *pgxpool.Pool
	tx       repository.TxManager
	search   *query.Builder[model.ItemSearch, model.Item]
	snapshot bool
}

func NewItemRepository(pool *pgxpool.Pool, opts SearchOptions, logger zerolog.Logger) repository.ItemRepository {
	l := logger.With().Str("component", "item_repository").Logger()
	return &itemRepository{
		pool:     pool,
		tx:       NewTxManager(pool),
		search:   query.NewBuilder(itemPlanner, newExecutor(pool, collectItem), opts.builderOptions(), l),
		snapshot: opts.Snapshot,
	}
}

const itemColumns = `id, name, price, stock_quantity, category, created_at`

func (r *itemRepository) Create(ctx context.Context, it model.Item) (model.Item, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Item{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO items (name, price, stock_quantity, category)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+itemColumns,
		it.Name, it.Price, it.StockQuantity, it.Category,
	)
	out, err := scanItem(row)
	if err != nil {
		return model.Item{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (model.Item, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetForUpdate is only meaningful inside WithinTx; on the bare pool the lock
// is released as soon as the statement completes.
func (r *itemRepository) GetForUpdate(ctx context.Context, id int64) (model.Item, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

func (r *itemRepository) get(ctx context.Context, sql string, id int64) (model.Item, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Item{}, err
	}
	out, err := scanItem(getQ(ctx, r.pool).QueryRow(ctx, sql, id))
	if err != nil {
		return model.Item{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *itemRepository) UpdateStock(ctx context.Context, id int64, stock int) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `UPDATE items SET stock_quantity = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *itemRepository) Update(ctx context.Context, it model.Item) (model.Item, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Item{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE items SET name = $2, price = $3, stock_quantity = $4
		 WHERE id = $1
		 RETURNING `+itemColumns,
		it.ID, it.Name, it.Price, it.StockQuantity,
	)
	out, err := scanItem(row)
	if err != nil {
		return model.Item{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *itemRepository) SearchPage(ctx context.Context, c model.ItemSearch, p query.PageRequest) (query.Page[model.Item], error) {
	return searchPage(ctx, r.tx, r.search, r.snapshot, c, p)
}

var _ repository.ItemRepository = (*itemRepository)(nil)
