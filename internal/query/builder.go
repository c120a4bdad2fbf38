package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Executor runs plans against the store. Implementations must release rows and
// connections on every return path.
type Executor[T any] interface {
	ExecuteList(ctx context.Context, plan sq.Sqlizer) ([]T, error)
	ExecuteCount(ctx context.Context, plan sq.Sqlizer) (int64, error)
}

// Planner describes how criteria of type C become plans.
// Content and Count must apply the same predicates; Count projects only a
// COUNT aggregate and joins only what its predicates need.
type Planner[C any] struct {
	Content func(c C) sq.SelectBuilder
	Count   func(c C) sq.SelectBuilder
	// Sortable maps public field names to column expressions.
	Sortable map[string]string
	// DefaultOrder is used when the request carries no ordering, and is appended
	// after requested terms as a tiebreaker. It should end on a unique column.
	DefaultOrder []string
}

// CountPolicy decides when the count query may be skipped.
type CountPolicy string

const (
	// CountAlways always runs the count query.
	CountAlways CountPolicy = "always"
	// CountFirstPage skips it when page 0 came back partially filled.
	CountFirstPage CountPolicy = "first_page"
	// CountAnyPage also skips it for later pages that came back partially filled.
	CountAnyPage CountPolicy = "any_page"
)

// ParseCountPolicy maps a config value to a CountPolicy; empty means CountFirstPage.
func ParseCountPolicy(s string) (CountPolicy, error) {
	switch p := CountPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CountFirstPage, nil
	case CountAlways, CountFirstPage, CountAnyPage:
		return p, nil
	default:
		return "", fmt.Errorf("unknown count policy %q", s)
	}
}

// mayskip reports whether the count could be avoided for this page index at all.
func (p CountPolicy) mayskip(index int) bool {
	switch p {
	case CountFirstPage:
		return index == 0
	case CountAnyPage:
		return true
	default:
		return false
	}
}

// skippedTotal returns the total implied by a partially filled page, if the policy allows it.
func (p CountPolicy) skippedTotal(req PageRequest, fetched int) (int64, bool) {
	if fetched >= req.Size || !p.mayskip(req.Index) {
		return 0, false
	}
	if req.Index == 0 {
		return int64(fetched), true
	}
	// An empty later page says nothing about how many rows precede it.
	if fetched == 0 {
		return 0, false
	}
	return int64(req.Offset() + fetched), true
}

// Options tunes page execution.
type Options struct {
	CountPolicy CountPolicy
	// Concurrent dispatches content and count together when the count cannot be skipped.
	// Must stay false when the executor is bound to a single connection or transaction.
	Concurrent bool
}

// Builder composes and executes filtered, paged reads for criteria C producing rows T.
type Builder[C, T any] struct {
	planner Planner[C]
	exec    Executor[T]
	opts    Options
	log     zerolog.Logger
}

// NewBuilder wires a builder. A zero CountPolicy means CountFirstPage.
func NewBuilder[C, T any](planner Planner[C], exec Executor[T], opts Options, logger zerolog.Logger) *Builder[C, T] {
	if opts.CountPolicy == "" {
		opts.CountPolicy = CountFirstPage
	}
	l := logger.With().Str("module", "query").Logger()
	return &Builder[C, T]{planner: planner, exec: exec, opts: opts, log: l}
}

// Sequential returns a copy of b that never dispatches content and count together.
func (b *Builder[C, T]) Sequential() *Builder[C, T] {
	if !b.opts.Concurrent {
		return b
	}
	cp := *b
	cp.opts.Concurrent = false
	return &cp
}

// ContentPlan is the ordered, windowed content plan for c and req.
func (b *Builder[C, T]) ContentPlan(c C, req PageRequest) (sq.SelectBuilder, error) {
	q, err := b.ordered(c, req.Sort)
	if err != nil {
		return q, err
	}
	return q.Offset(uint64(req.Offset())).Limit(uint64(req.Limit())), nil
}

// CountPlan is the count plan for c. It carries no ordering or window.
func (b *Builder[C, T]) CountPlan(c C) sq.SelectBuilder {
	return b.planner.Count(c)
}

func (b *Builder[C, T]) ordered(c C, sort []Order) (sq.SelectBuilder, error) {
	q := b.planner.Content(c)
	if len(sort) == 0 {
		if len(b.planner.DefaultOrder) > 0 {
			q = q.OrderBy(b.planner.DefaultOrder...)
		}
		return q, nil
	}
	terms := make([]string, 0, len(sort)+len(b.planner.DefaultOrder))
	used := make(map[string]bool, len(sort))
	for _, o := range sort {
		col, ok := b.planner.Sortable[o.Field]
		if !ok {
			return q, fmt.Errorf("%w: unknown sort field %q", ErrInvalidPageRequest, o.Field)
		}
		dir, ok := ParseDirection(string(o.Direction))
		if !ok {
			return q, fmt.Errorf("%w: unknown sort direction %q", ErrInvalidPageRequest, o.Direction)
		}
		terms = append(terms, col+" "+string(dir))
		used[col] = true
	}
	// rows tied on the requested columns keep one order across offsets
	for _, term := range b.planner.DefaultOrder {
		col, _, _ := strings.Cut(term, " ")
		if !used[col] {
			terms = append(terms, term)
		}
	}
	return q.OrderBy(terms...), nil
}

// Search returns every row matching c in the default order.
func (b *Builder[C, T]) Search(ctx context.Context, c C) ([]T, error) {
	q, err := b.ordered(c, nil)
	if err != nil {
		return nil, err
	}
	rows, err := b.exec.ExecuteList(ctx, q)
	if err != nil {
		return nil, execErr("content", err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// SearchPage returns one page of rows matching c together with the total count.
func (b *Builder[C, T]) SearchPage(ctx context.Context, c C, req PageRequest) (Page[T], error) {
	if err := req.Validate(); err != nil {
		return Page[T]{}, err
	}
	content, err := b.ContentPlan(c, req)
	if err != nil {
		return Page[T]{}, err
	}
	count := b.CountPlan(c)

	start := time.Now()
	var (
		rows    []T
		total   int64
		skipped bool
	)
	if b.opts.Concurrent && !b.opts.CountPolicy.mayskip(req.Index) {
		rows, total, err = b.fetchConcurrently(ctx, content, count)
	} else {
		rows, total, skipped, err = b.fetchSequentially(ctx, content, count, req)
	}
	if err != nil {
		b.log.Debug().Err(err).Int("page", req.Index).Int("size", req.Size).Msg("page query failed")
		return Page[T]{}, err
	}

	page := NewPage(rows, req, total)
	b.log.Debug().
		Int("page", req.Index).
		Int("size", req.Size).
		Int("rows", len(page.Content)).
		Int64("total", page.TotalElements).
		Bool("count_skipped", skipped).
		Dur("took", time.Since(start)).
		Msg("page fetched")
	return page, nil
}

func (b *Builder[C, T]) fetchSequentially(ctx context.Context, content, count sq.Sqlizer, req PageRequest) ([]T, int64, bool, error) {
	rows, err := b.exec.ExecuteList(ctx, content)
	if err != nil {
		return nil, 0, false, execErr("content", err)
	}
	if total, ok := b.opts.CountPolicy.skippedTotal(req, len(rows)); ok {
		return rows, total, true, nil
	}
	total, err := b.exec.ExecuteCount(ctx, count)
	if err != nil {
		return nil, 0, false, execErr("count", err)
	}
	return rows, total, false, nil
}

func (b *Builder[C, T]) fetchConcurrently(ctx context.Context, content, count sq.Sqlizer) ([]T, int64, error) {
	var (
		rows  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := b.exec.ExecuteList(gctx, content)
		if err != nil {
			return execErr("content", err)
		}
		rows = r
		return nil
	})
	g.Go(func() error {
		n, err := b.exec.ExecuteCount(gctx, count)
		if err != nil {
			return execErr("count", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SearchSlice returns one page without counting, using a single row of lookahead.
func (b *Builder[C, T]) SearchSlice(ctx context.Context, c C, req PageRequest) (Slice[T], error) {
	if err := req.Validate(); err != nil {
		return Slice[T]{}, err
	}
	q, err := b.ordered(c, req.Sort)
	if err != nil {
		return Slice[T]{}, err
	}
	q = q.Offset(uint64(req.Offset())).Limit(uint64(req.Size + 1))
	rows, err := b.exec.ExecuteList(ctx, q)
	if err != nil {
		return Slice[T]{}, execErr("slice", err)
	}
	return NewSlice(rows, req), nil
}
