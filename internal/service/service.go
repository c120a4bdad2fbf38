// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 { // protective case
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewInvalidInputError lets outer layers report field errors found before a use case runs.
func NewInvalidInputError(fe []FieldError) error { return newInvalidInput(fe) }

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// TeamService defines team-oriented use cases.
type TeamService interface {
	CreateTeam(ctx context.Context, name string) (model.Team, error)
	GetTeam(ctx context.Context, id int64) (model.Team, error)
}

// MemberService defines member registration and member search use cases.
type MemberService interface {
	JoinMember(ctx context.Context, m model.Member) (model.Member, error)
	GetMember(ctx context.Context, id int64) (model.Member, error)
	SearchMembers(ctx context.Context, c model.MemberSearch) ([]model.MemberTeam, error)
	SearchMemberPage(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Page[model.MemberTeam], error)
	SearchMemberSlice(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Slice[model.MemberTeam], error)
}

// ItemService defines catalogue use cases.
type ItemService interface {
	SaveItem(ctx context.Context, it model.Item) (model.Item, error)
	GetItem(ctx context.Context, id int64) (model.Item, error)
	UpdateItem(ctx context.Context, id int64, name string, price int64, stock int) (model.Item, error)
	SearchItems(ctx context.Context, c model.ItemSearch, p query.PageRequest) (query.Page[model.Item], error)
}

// OrderService defines ordering use cases.
type OrderService interface {
	PlaceOrder(ctx context.Context, memberID, itemID int64, count int) (model.Order, error)
	CancelOrder(ctx context.Context, orderID int64) error
	SearchOrders(ctx context.Context, c model.OrderSearch, p query.PageRequest) (query.Page[model.OrderSummary], error)
}
