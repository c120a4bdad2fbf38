package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/member-search-service/internal/handler"
	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
	"github.com/maxviazov/member-search-service/internal/service"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// fakeInvalid replicates aggregated validation error semantics.
type fakeInvalid struct{ fe []service.FieldError }

func (f *fakeInvalid) Error() string                { return service.ErrInvalidInput.Error() }
func (f *fakeInvalid) Unwrap() error                { return service.ErrInvalidInput }
func (f *fakeInvalid) Fields() []service.FieldError { return f.fe }

type stubTeamService struct {
	team model.Team
	err  error
}

func (s *stubTeamService) CreateTeam(context.Context, string) (model.Team, error) { return s.team, s.err }
func (s *stubTeamService) GetTeam(context.Context, int64) (model.Team, error)     { return s.team, s.err }

// stubMemberService records the last criteria and page request it was called with.
type stubMemberService struct {
	lastSearch model.MemberSearch
	lastPage   query.PageRequest
	rows       []model.MemberTeam
	err        error
}

func (s *stubMemberService) JoinMember(_ context.Context, m model.Member) (model.Member, error) {
	m.ID = 1
	return m, s.err
}
func (s *stubMemberService) GetMember(context.Context, int64) (model.Member, error) {
	return model.Member{}, s.err
}
func (s *stubMemberService) SearchMembers(_ context.Context, c model.MemberSearch) ([]model.MemberTeam, error) {
	s.lastSearch = c
	return s.rows, s.err
}
func (s *stubMemberService) SearchMemberPage(_ context.Context, c model.MemberSearch, p query.PageRequest) (query.Page[model.MemberTeam], error) {
	s.lastSearch, s.lastPage = c, p
	if s.err != nil {
		return query.Page[model.MemberTeam]{}, s.err
	}
	return query.NewPage(s.rows, p, 5), nil
}
func (s *stubMemberService) SearchMemberSlice(_ context.Context, c model.MemberSearch, p query.PageRequest) (query.Slice[model.MemberTeam], error) {
	s.lastSearch, s.lastPage = c, p
	return query.NewSlice(s.rows, p), s.err
}

type stubItemService struct {
	lastPage   query.PageRequest
	lastUpdate model.Item
}

func (s *stubItemService) SaveItem(_ context.Context, it model.Item) (model.Item, error) {
	return it, nil
}
func (s *stubItemService) GetItem(context.Context, int64) (model.Item, error) {
	return model.Item{}, repository.ErrNotFound
}
func (s *stubItemService) UpdateItem(_ context.Context, id int64, name string, price int64, stock int) (model.Item, error) {
	s.lastUpdate = model.Item{ID: id, Name: name, Price: price, StockQuantity: stock}
	if id == 404 {
		return model.Item{}, repository.ErrNotFound
	}
	return s.lastUpdate, nil
}
func (s *stubItemService) SearchItems(_ context.Context, _ model.ItemSearch, p query.PageRequest) (query.Page[model.Item], error) {
	s.lastPage = p
	return query.NewPage([]model.Item{}, p, 0), nil
}

type stubOrderService struct{ cancelErr error }

func (s *stubOrderService) PlaceOrder(context.Context, int64, int64, int) (model.Order, error) {
	return model.Order{}, model.ErrNotEnoughStock
}
func (s *stubOrderService) CancelOrder(context.Context, int64) error { return s.cancelErr }
func (s *stubOrderService) SearchOrders(_ context.Context, _ model.OrderSearch, p query.PageRequest) (query.Page[model.OrderSummary], error) {
	return query.NewPage([]model.OrderSummary{}, p, 0), nil
}

type fixture struct {
	r       *gin.Engine
	teams   *stubTeamService
	members *stubMemberService
	items   *stubItemService
	orders  *stubOrderService
}

func newFixture(p handler.Pinger) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		r:       gin.New(),
		teams:   &stubTeamService{},
		members: &stubMemberService{},
		items:   &stubItemService{},
		orders:  &stubOrderService{},
	}
	handler.Register(f.r, p, handler.Services{Teams: f.teams, Members: f.members, Items: f.items, Orders: f.orders}, handler.Paging{DefaultSize: 7})
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, httptest.NewRequest(method, path, rd))
	return w
}

func TestHealth(t *testing.T) {
	f := newFixture(stubPinger{})
	for _, path := range []string{"/live", "/ready", handler.APIV1Prefix + "/health/live", handler.APIV1Prefix + "/health/ready"} {
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, path, nil).Code, path)
	}

	down := newFixture(stubPinger{err: errors.New("dial tcp: refused")})
	w := down.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "refused")
}

func TestDocs(t *testing.T) {
	f := newFixture(stubPinger{})
	w := f.do(http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi:")
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/docs", nil).Code)
}

func TestTeamHandler(t *testing.T) {
	f := newFixture(stubPinger{})
	f.teams.team = model.Team{ID: 1, Name: "teamA"}
	w := f.do(http.MethodPost, handler.APIV1Prefix+"/teams", map[string]string{"name": "teamA"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	f.teams.err = &fakeInvalid{fe: []service.FieldError{{Field: "name", Message: "must not be empty"}}}
	w = f.do(http.MethodPost, handler.APIV1Prefix+"/teams", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")

	f.teams.err = repository.ErrNotFound
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, handler.APIV1Prefix+"/teams/42", nil).Code)
}

func TestMemberHandler_SearchPage(t *testing.T) {
	f := newFixture(stubPinger{})
	teamB := "teamB"
	f.members.rows = []model.MemberTeam{{MemberID: 3, Username: "member3", Age: 30, TeamName: &teamB}}

	w := f.do(http.MethodGet, handler.APIV1Prefix+"/members/page?team_name=teamB&age_goe=25&age_loe=40&page=1&size=3&sort=username,desc&sort=age", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "teamB", f.members.lastSearch.TeamName)
	require.NotNil(t, f.members.lastSearch.AgeGoe)
	assert.Equal(t, 25, *f.members.lastSearch.AgeGoe)
	assert.Equal(t, 40, *f.members.lastSearch.AgeLoe)
	assert.Equal(t, query.PageRequest{Index: 1, Size: 3, Sort: []query.Order{
		{Field: "username", Direction: query.Desc},
		{Field: "age", Direction: query.Asc},
	}}, f.members.lastPage)

	var page query.Page[model.MemberTeam]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Content, 1)
}

func TestMemberHandler_PageDefaults(t *testing.T) {
	f := newFixture(stubPinger{})
	w := f.do(http.MethodGet, handler.APIV1Prefix+"/members/slice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, query.PageRequest{Index: 0, Size: 7}, f.members.lastPage)
}

func TestMemberHandler_BadPaging(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"size not a number", "size=abc", "invalid_page_request"},
		{"page not a number", "page=x", "invalid_page_request"},
		{"bad direction", "sort=username,sideways", "invalid_page_request"},
		{"age not a number", "age_goe=old", "invalid_input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(stubPinger{})
			w := f.do(http.MethodGet, handler.APIV1Prefix+"/members/page?"+tc.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
}

func TestMemberHandler_ErrorsFromQueryLayer(t *testing.T) {
	f := newFixture(stubPinger{})
	f.members.err = fmt.Errorf("%w: size must be gt 0", query.ErrInvalidPageRequest)
	w := f.do(http.MethodGet, handler.APIV1Prefix+"/members/page?size=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, f.members.lastPage.Size)

	f.members.err = &query.ExecutionError{Op: "count", Err: errors.New("conn reset")}
	w = f.do(http.MethodGet, handler.APIV1Prefix+"/members/page", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "conn reset")
}

func TestMemberHandler_Join(t *testing.T) {
	f := newFixture(stubPinger{})
	w := f.do(http.MethodPost, handler.APIV1Prefix+"/members", map[string]any{"username": "member1", "age": 10, "city": "Seoul"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m model.Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "Seoul", m.Address.City)

	f.members.err = repository.ErrAlreadyExists
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, handler.APIV1Prefix+"/members", map[string]any{"username": "member1"}).Code)
}

func TestItemAndOrderHandlers(t *testing.T) {
	f := newFixture(stubPinger{})

	w := f.do(http.MethodGet, handler.APIV1Prefix+"/items?name=book&size=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, f.items.lastPage.Size)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, handler.APIV1Prefix+"/items/9", nil).Code)

	w = f.do(http.MethodPost, handler.APIV1Prefix+"/orders", map[string]any{"member_id": 1, "item_id": 1, "count": 99})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "not_enough_stock")

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, handler.APIV1Prefix+"/orders/1/cancel", nil).Code)
	f.orders.cancelErr = model.ErrAlreadyDelivered
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, handler.APIV1Prefix+"/orders/1/cancel", nil).Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, handler.APIV1Prefix+"/orders?status=ORDER", nil).Code)
}

func TestItemHandler_Update(t *testing.T) {
	f := newFixture(stubPinger{})
	w := f.do(http.MethodPut, handler.APIV1Prefix+"/items/3", map[string]any{"name": "Go Book", "price": 25000, "stock_quantity": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.Item{ID: 3, Name: "Go Book", Price: 25000, StockQuantity: 8}, f.items.lastUpdate)

	w = f.do(http.MethodPut, handler.APIV1Prefix+"/items/404", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPut, handler.APIV1Prefix+"/items/3", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_NonNumericID(t *testing.T) {
	f := newFixture(stubPinger{})
	cases := []struct{ method, path string }{
		{http.MethodGet, "/teams/abc"},
		{http.MethodGet, "/members/abc"},
		{http.MethodGet, "/items/abc"},
		{http.MethodPut, "/items/abc"},
		{http.MethodPost, "/orders/abc/cancel"},
	}
	for _, tc := range cases {
		w := f.do(tc.method, handler.APIV1Prefix+tc.path, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), "must be a valid integer", tc.path)
	}
}
