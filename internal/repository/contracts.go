package repository

import (
	"context"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// WithinSnapshot runs fn in a read-only repeatable-read transaction so that
// several reads observe the same point in time.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
	WithinSnapshot(ctx context.Context, fn TxFunc) error
}

// TeamRepository declares persistence operations for teams.
type TeamRepository interface {
	Create(ctx context.Context, t model.Team) (model.Team, error)
	GetByID(ctx context.Context, id int64) (model.Team, error)
}

// MemberRepository declares persistence and search operations for members.
// Search methods never filter on blank or nil criteria fields.
type MemberRepository interface {
	Create(ctx context.Context, m model.Member) (model.Member, error)
	GetByID(ctx context.Context, id int64) (model.Member, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Search(ctx context.Context, c model.MemberSearch) ([]model.MemberTeam, error)
	SearchPage(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Page[model.MemberTeam], error)
	SearchSlice(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Slice[model.MemberTeam], error)
}

// ItemRepository declares persistence and search operations for items.
type ItemRepository interface {
	Create(ctx context.Context, it model.Item) (model.Item, error)
	GetByID(ctx context.Context, id int64) (model.Item, error)
	// GetForUpdate locks the item row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (model.Item, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
	// Update overwrites name, price and stock; category is fixed at creation.
	Update(ctx context.Context, it model.Item) (model.Item, error)
	SearchPage(ctx context.Context, c model.ItemSearch, p query.PageRequest) (query.Page[model.Item], error)
}

// OrderRepository declares persistence and search operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o model.Order) (model.Order, error)
	GetByID(ctx context.Context, id int64) (model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SearchPage(ctx context.Context, c model.OrderSearch, p query.PageRequest) (query.Page[model.OrderSummary], error)
}
