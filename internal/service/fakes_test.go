package service_test

import (
	"context"
	"sort"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
)

type fakeTeamRepo struct {
	nextID int64
	items  map[int64]model.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{nextID: 1, items: map[int64]model.Team{}}
}

func (f *fakeTeamRepo) Create(_ context.Context, t model.Team) (model.Team, error) {
	for _, v := range f.items {
		if v.Name == t.Name {
			return model.Team{}, repository.ErrAlreadyExists
		}
	}
	t.ID = f.nextID
	f.nextID++
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id int64) (model.Team, error) {
	it, ok := f.items[id]
	if !ok {
		return model.Team{}, repository.ErrNotFound
	}
	return it, nil
}

var _ repository.TeamRepository = (*fakeTeamRepo)(nil)

// fakeMemberRepo records the last page request so clamping can be asserted.
type fakeMemberRepo struct {
	nextID   int64
	members  map[int64]model.Member
	lastPage query.PageRequest
	pageErr  error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{nextID: 1, members: map[int64]model.Member{}}
}

func (f *fakeMemberRepo) Create(_ context.Context, m model.Member) (model.Member, error) {
	m.ID = f.nextID
	f.nextID++
	f.members[m.ID] = m
	return m, nil
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id int64) (model.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return model.Member{}, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeMemberRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, m := range f.members {
		if m.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberRepo) rows() []model.MemberTeam {
	out := make([]model.MemberTeam, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, model.MemberTeam{MemberID: m.ID, Username: m.Username, Age: m.Age, TeamID: m.TeamID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

func (f *fakeMemberRepo) Search(_ context.Context, _ model.MemberSearch) ([]model.MemberTeam, error) {
	return f.rows(), nil
}

func (f *fakeMemberRepo) SearchPage(_ context.Context, _ model.MemberSearch, p query.PageRequest) (query.Page[model.MemberTeam], error) {
	f.lastPage = p
	if f.pageErr != nil {
		return query.Page[model.MemberTeam]{}, f.pageErr
	}
	if err := p.Validate(); err != nil {
		return query.Page[model.MemberTeam]{}, err
	}
	all := f.rows()
	from := min(p.Offset(), len(all))
	to := min(from+p.Size, len(all))
	return query.NewPage(all[from:to], p, int64(len(all))), nil
}

func (f *fakeMemberRepo) SearchSlice(_ context.Context, _ model.MemberSearch, p query.PageRequest) (query.Slice[model.MemberTeam], error) {
	f.lastPage = p
	all := f.rows()
	from := min(p.Offset(), len(all))
	to := min(from+p.Size+1, len(all))
	return query.NewSlice(all[from:to], p), nil
}

var _ repository.MemberRepository = (*fakeMemberRepo)(nil)

type fakeItemRepo struct {
	nextID   int64
	items    map[int64]model.Item
	locked   []int64
	lastPage query.PageRequest
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{nextID: 1, items: map[int64]model.Item{}}
}

func (f *fakeItemRepo) Create(_ context.Context, it model.Item) (model.Item, error) {
	it.ID = f.nextID
	f.nextID++
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeItemRepo) GetByID(_ context.Context, id int64) (model.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return model.Item{}, repository.ErrNotFound
	}
	return it, nil
}

func (f *fakeItemRepo) GetForUpdate(ctx context.Context, id int64) (model.Item, error) {
	f.locked = append(f.locked, id)
	return f.GetByID(ctx, id)
}

func (f *fakeItemRepo) UpdateStock(_ context.Context, id int64, stock int) error {
	it, ok := f.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.StockQuantity = stock
	f.items[id] = it
	return nil
}

func (f *fakeItemRepo) Update(_ context.Context, it model.Item) (model.Item, error) {
	cur, ok := f.items[it.ID]
	if !ok {
		return model.Item{}, repository.ErrNotFound
	}
	cur.Name, cur.Price, cur.StockQuantity = it.Name, it.Price, it.StockQuantity
	f.items[it.ID] = cur
	return cur, nil
}

func (f *fakeItemRepo) SearchPage(_ context.Context, _ model.ItemSearch, p query.PageRequest) (query.Page[model.Item], error) {
	f.lastPage = p
	return query.NewPage([]model.Item{}, p, 0), nil
}

var _ repository.ItemRepository = (*fakeItemRepo)(nil)

type fakeOrderRepo struct {
	nextID   int64
	orders   map[int64]model.Order
	lastPage query.PageRequest
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: map[int64]model.Order{}}
}

func (f *fakeOrderRepo) Create(_ context.Context, o model.Order) (model.Order, error) {
	o.ID = f.nextID
	f.nextID++
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	f.orders[id] = o
	return nil
}

func (f *fakeOrderRepo) SearchPage(_ context.Context, _ model.OrderSearch, p query.PageRequest) (query.Page[model.OrderSummary], error) {
	f.lastPage = p
	return query.NewPage([]model.OrderSummary{}, p, 0), nil
}

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

// fakeTx runs fn inline and counts calls; it cannot roll back, so tests
// only assert state on the success path.
type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.calls++
	return fn(ctx)
}

func (f *fakeTx) WithinSnapshot(ctx context.Context, fn repository.TxFunc) error {
	f.calls++
	return fn(ctx)
}

var _ repository.TxManager = (*fakeTx)(nil)
