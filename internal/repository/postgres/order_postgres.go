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

const (
	orderItemCount  = "COUNT(oi.id)"
	orderTotalPrice = "COALESCE(SUM(oi.order_price * oi.count), 0)"
)

// orderPlanner pages order summaries. Content joins order lines, which multiplies
// rows, so it groups by order; the count never touches order_items and joins
// members only for the member name filter.
var orderPlanner = query.Planner[model.OrderSearch]{
	Content: func(c model.OrderSearch) sq.SelectBuilder {
		b := psql.Select("o.id", "m.username", "o.order_date", "o.status", orderItemCount, orderTotalPrice).
			From("orders o").
			Join("members m ON m.id = o.member_id").
			LeftJoin("order_items oi ON oi.order_id = o.id").
			GroupBy("o.id", "m.username", "o.order_date", "o.status")
		return query.Filter(b, orderWhere(c))
	},
	Count: func(c model.OrderSearch) sq.SelectBuilder {
		b := psql.Select("COUNT(DISTINCT o.id)").From("orders o")
		if strings.TrimSpace(c.MemberName) != "" {
			b = b.Join("members m ON m.id = o.member_id")
		}
		return query.Filter(b, orderWhere(c))
	},
	Sortable: map[string]string{
		"id":          "o.id",
		"order_date":  "o.order_date",
		"status":      "o.status",
		"member_name": "m.username",
		"item_count":  orderItemCount,
		"total_price": orderTotalPrice,
	},
	DefaultOrder: []string{"o.id DESC"},
}

func orderWhere(c model.OrderSearch) sq.Sqlizer {
	return query.All(
		query.ContainsText("m.username", c.MemberName),
		query.EqText("o.status", strings.ToUpper(c.Status)),
	)
}

func scanOrderSummary(row pgx.CollectableRow) (model.OrderSummary, error) {
	var s model.OrderSummary
	err := row.Scan(&s.OrderID, &s.MemberName, &s.OrderDate, &s.Status, &s.ItemCount, &s.TotalPrice)
	return s, err
}

type orderRepository struct {
	pool     *pgxpool.Pool
	tx       repository.TxManager
	search   *query.Builder[model.OrderSearch, model.OrderSummary]
	snapshot bool
}

func NewOrderRepository(pool *pgxpool.Pool, opts SearchOptions, logger zerolog.Logger) repository.OrderRepository {
	l := logger.With().Str("component", "order_repository").Logger()
	return &orderRepository{
		pool:     pool,
		tx:       NewTxManager(pool),
		search:   query.NewBuilder(orderPlanner, newExecutor(pool, scanOrderSummary), opts.builderOptions(), l),
		snapshot: opts.Snapshot,
	}
}

// Create inserts the order and its lines. Callers wrap it in WithinTx so a
// failed line leaves no partial order behind.
func (r *orderRepository) Create(ctx context.Context, o model.Order) (model.Order, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Order{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO orders (member_id, status, delivery_status, city, street, zipcode)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, order_date`,
		o.MemberID, o.Status, o.DeliveryStatus, o.Address.City, o.Address.Street, o.Address.Zipcode,
	)
	out := o
	if err := row.Scan(&out.ID, &out.OrderDate); err != nil {
		return model.Order{}, repository.MapPgError(err)
	}
	out.Items = make([]model.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		it.OrderID = out.ID
		err := exec.QueryRow(ctx,
			`INSERT INTO order_items (order_id, item_id, order_price, count)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			it.OrderID, it.ItemID, it.OrderPrice, it.Count,
		).Scan(&it.ID)
		if err != nil {
			return model.Order{}, repository.MapPgError(err)
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (model.Order, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Order{}, err
	}
	exec := getQ(ctx, r.pool)
	var o model.Order
	err := exec.QueryRow(ctx,
		`SELECT id, member_id, order_date, status, delivery_status, city, street, zipcode
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.MemberID, &o.OrderDate, &o.Status, &o.DeliveryStatus,
		&o.Address.City, &o.Address.Street, &o.Address.Zipcode)
	if err != nil {
		return model.Order{}, repository.MapPgError(err)
	}

	rows, err := exec.Query(ctx,
		`SELECT id, order_id, item_id, order_price, count
		 FROM order_items WHERE order_id = $1 ORDER BY id`, id,
	)
	if err != nil {
		return model.Order{}, repository.MapPgError(err)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.OrderItem, error) {
		var it model.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.OrderPrice, &it.Count)
		return it, err
	})
	if err != nil {
		return model.Order{}, repository.MapPgError(err)
	}
	return o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SearchPage(ctx context.Context, c model.OrderSearch, p query.PageRequest) (query.Page[model.OrderSummary], error) {
	return searchPage(ctx, r.tx, r.search, r.snapshot, c, p)
}

var _ repository.OrderRepository = (*orderRepository)(nil)
