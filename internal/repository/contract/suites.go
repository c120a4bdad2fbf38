package contract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
)

type TeamFactory func(t *testing.T) (repository.TeamRepository, func())

type MemberFactory func(t *testing.T) (repo repository.MemberRepository, teams repository.TeamRepository, cleanup func())

type ItemFactory func(t *testing.T) (repository.ItemRepository, func())

type OrderFactory func(t *testing.T) (repo repository.OrderRepository, mkMember func(ctx context.Context, name string) (int64, error), mkItem func(ctx context.Context, price int64) (int64, error), cleanup func())

type TxFactory func(t *testing.T) (tx repository.TxManager, teams repository.TeamRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func RunTeamRepositoryContract(t *testing.T, makeRepo TeamFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Team{Name: "teamA"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.ID != created.ID || got.Name != created.Name {
			t.Fatalf("mismatch: %+v", got)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.GetByID(context.Background(), 999999)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create_duplicate_name_conflict", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, model.Team{Name: "Dup"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		_, err := repo.Create(ctx, model.Team{Name: "Dup"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

// seedMembers creates teamA (member1, member2) and teamB (member3, member4)
// with ages 10, 20, 30 and 40.
func seedMembers(t *testing.T, repo repository.MemberRepository, teams repository.TeamRepository) []model.Member {
	t.Helper()
	ctx := context.Background()
	a, err := teams.Create(ctx, model.Team{Name: "teamA"})
	if err != nil {
		t.Fatalf("seed teamA: %v", err)
	}
	b, err := teams.Create(ctx, model.Team{Name: "teamB"})
	if err != nil {
		t.Fatalf("seed teamB: %v", err)
	}
	out := make([]model.Member, 0, 4)
	for i, teamID := range []int64{a.ID, a.ID, b.ID, b.ID} {
		id := teamID
		m, err := repo.Create(ctx, model.Member{Username: fmt.Sprintf("member%d", i+1), Age: (i + 1) * 10, TeamID: &id})
		if err != nil {
			t.Fatalf("seed member%d: %v", i+1, err)
		}
		out = append(out, m)
	}
	return out
}

// seedTiedAges adds three teamless members to seedMembers, giving 7 rows with ages
// 10, 20, 20, 20, 30, 30, 40.
func seedTiedAges(t *testing.T, repo repository.MemberRepository, teams repository.TeamRepository) {
	t.Helper()
	seedMembers(t, repo, teams)
	for i, age := range []int{20, 20, 30} {
		if _, err := repo.Create(context.Background(), model.Member{Username: fmt.Sprintf("member%d", i+5), Age: age}); err != nil {
			t.Fatalf("seed member%d: %v", i+5, err)
		}
	}
}

func usernames(rows []model.MemberTeam) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Username)
	}
	return out
}

func intp(v int) *int { return &v }

func RunMemberRepositoryContract(t *testing.T, makeRepo MemberFactory) {
	t.Helper()

	t.Run("create_get_and_exists", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Member{Username: "solo", Age: 33, Address: model.Address{City: "Seoul"}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Username != "solo" || got.TeamID != nil || got.Address.City != "Seoul" {
			t.Fatalf("mismatch: %+v", got)
		}
		ok, err := repo.ExistsByUsername(ctx, "solo")
		if err != nil || !ok {
			t.Fatalf("expected exists, got %v %v", ok, err)
		}
		if _, err := repo.Create(ctx, model.Member{Username: "solo", Age: 1}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("search_skips_absent_criteria", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedMembers(t, repo, teams)
		rows, err := repo.Search(context.Background(), model.MemberSearch{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows, got %d", len(rows))
		}
	})

	t.Run("search_combines_criteria", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedMembers(t, repo, teams)
		c := model.MemberSearch{AgeGoe: intp(25), AgeLoe: intp(40), TeamName: "teamB"}
		rows, err := repo.Search(context.Background(), c)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		got := usernames(rows)
		if len(got) != 2 || got[0] != "member3" || got[1] != "member4" {
			t.Fatalf("unexpected rows: %v", got)
		}
		for _, r := range rows {
			if r.TeamName == nil || *r.TeamName != "teamB" {
				t.Fatalf("unexpected team: %+v", r)
			}
		}
	})

	t.Run("page_descending_by_username", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedMembers(t, repo, teams)
		if _, err := repo.Create(context.Background(), model.Member{Username: "member5", Age: 50}); err != nil {
			t.Fatalf("seed member5: %v", err)
		}
		req := query.Of(0, 3, query.Order{Field: "username", Direction: query.Desc})
		page, err := repo.SearchPage(context.Background(), model.MemberSearch{}, req)
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		got := usernames(page.Content)
		if len(got) != 3 || got[0] != "member5" || got[1] != "member4" || got[2] != "member3" {
			t.Fatalf("unexpected content: %v", got)
		}
		if page.TotalElements != 5 || page.TotalPages != 2 || !page.First || !page.HasNext {
			t.Fatalf("unexpected metadata: %+v", page)
		}
	})

	t.Run("page_beyond_range_is_empty", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedMembers(t, repo, teams)
		page, err := repo.SearchPage(context.Background(), model.MemberSearch{}, query.Of(10, 3))
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if len(page.Content) != 0 || page.HasNext || page.TotalElements != 4 {
			t.Fatalf("unexpected page: %+v", page)
		}
	})

	t.Run("partial_first_page_total", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedMembers(t, repo, teams)
		page, err := repo.SearchPage(context.Background(), model.MemberSearch{TeamName: "teamA"}, query.Of(0, 10))
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if len(page.Content) != 2 || page.TotalElements != 2 || page.TotalPages != 1 || !page.Last {
			t.Fatalf("unexpected page: %+v", page)
		}
	})

	t.Run("invalid_page_request", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		for _, req := range []query.PageRequest{query.Of(0, 0), query.Of(-1, 3), query.Of(math.MaxInt64/2, 3)} {
			_, err := repo.SearchPage(context.Background(), model.MemberSearch{}, req)
			if !errors.Is(err, query.ErrInvalidPageRequest) {
				t.Fatalf("expected ErrInvalidPageRequest for %+v, got %v", req, err)
			}
		}
	})

	t.Run("repeated_page_is_identical", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedTiedAges(t, repo, teams)
		ctx := context.Background()
		seen := map[int64]int{}
		for idx := 0; idx < 3; idx++ {
			req := query.Of(idx, 3, query.Order{Field: "age", Direction: query.Asc})
			first, err := repo.SearchPage(ctx, model.MemberSearch{}, req)
			if err != nil {
				t.Fatalf("page %d: %v", idx, err)
			}
			second, err := repo.SearchPage(ctx, model.MemberSearch{}, req)
			if err != nil {
				t.Fatalf("page %d again: %v", idx, err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("page %d differs between calls:\n%+v\n%+v", idx, first, second)
			}
			for _, r := range first.Content {
				seen[r.MemberID]++
			}
		}
		// ties on age must not repeat or drop rows across pages
		if len(seen) != 7 {
			t.Fatalf("expected 7 distinct members across pages, got %d", len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("member %d appeared on %d pages", id, n)
			}
		}
	})

	t.Run("page_length_matches_remaining_rows", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedTiedAges(t, repo, teams)
		const total, size = 7, 3
		for _, idx := range []int{0, 1, 2, 3, 5} {
			page, err := repo.SearchPage(context.Background(), model.MemberSearch{}, query.Of(idx, size))
			if err != nil {
				t.Fatalf("page %d: %v", idx, err)
			}
			want := max(0, min(size, total-idx*size))
			if len(page.Content) != want {
				t.Fatalf("page %d: expected %d rows, got %d", idx, want, len(page.Content))
			}
			if page.TotalElements != total || page.HasNext != ((idx+1)*size < total) {
				t.Fatalf("page %d: unexpected metadata %+v", idx, page)
			}
		}
	})

	t.Run("slice_lookahead", func(t *testing.T) {
		repo, teams, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedMembers(t, repo, teams)
		s, err := repo.SearchSlice(context.Background(), model.MemberSearch{}, query.Of(0, 3))
		if err != nil {
			t.Fatalf("slice: %v", err)
		}
		if len(s.Content) != 3 || !s.HasNext {
			t.Fatalf("unexpected first slice: %+v", s)
		}
		s, err = repo.SearchSlice(context.Background(), model.MemberSearch{}, query.Of(1, 3))
		if err != nil {
			t.Fatalf("slice: %v", err)
		}
		if len(s.Content) != 1 || s.HasNext || !s.Last {
			t.Fatalf("unexpected second slice: %+v", s)
		}
	})
}

func RunItemRepositoryContract(t *testing.T, makeRepo ItemFactory) {
	t.Helper()

	t.Run("stock_update_and_lock", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		it, err := repo.Create(ctx, model.Item{Name: "SQL Book", Price: 10000, StockQuantity: 10, Category: model.CategoryBook})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.UpdateStock(ctx, it.ID, 7); err != nil {
			t.Fatalf("update stock: %v", err)
		}
		got, err := repo.GetForUpdate(ctx, it.ID)
		if err != nil {
			t.Fatalf("get for update: %v", err)
		}
		if got.StockQuantity != 7 {
			t.Fatalf("expected stock 7, got %d", got.StockQuantity)
		}
		if err := repo.UpdateStock(ctx, 999999, 1); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		it, err := repo.Create(ctx, model.Item{Name: "Go Book", Price: 20000, StockQuantity: 3, Category: model.CategoryBook})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		it.Name, it.Price, it.StockQuantity = "Go Book 2nd", 25000, 9
		got, err := repo.Update(ctx, it)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Name != "Go Book 2nd" || got.Price != 25000 || got.StockQuantity != 9 || got.Category != model.CategoryBook {
			t.Fatalf("unexpected item: %+v", got)
		}
		if _, err := repo.Update(ctx, model.Item{ID: 999999, Name: "x"}); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("search_page_by_name_and_price", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seed := []model.Item{
			{Name: "Go Book", Price: 20000, StockQuantity: 1, Category: model.CategoryBook},
			{Name: "SQL Book", Price: 10000, StockQuantity: 1, Category: model.CategoryBook},
			{Name: "Go Album", Price: 5000, StockQuantity: 1, Category: model.CategoryAlbum},
		}
		for _, it := range seed {
			if _, err := repo.Create(ctx, it); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		goe := int64(8000)
		page, err := repo.SearchPage(ctx, model.ItemSearch{Name: "book", PriceGoe: &goe},
			query.Of(0, 10, query.Order{Field: "price", Direction: query.Asc}))
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if page.TotalElements != 2 || len(page.Content) != 2 || page.Content[0].Name != "SQL Book" {
			t.Fatalf("unexpected page: %+v", page)
		}
	})
}

func RunOrderRepositoryContract(t *testing.T, makeRepo OrderFactory) {
	t.Helper()

	t.Run("create_get_and_status", func(t *testing.T) {
		repo, mkMember, mkItem, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		memberID, err := mkMember(ctx, "buyer")
		if err != nil {
			t.Fatalf("seed member: %v", err)
		}
		itemID, err := mkItem(ctx, 1000)
		if err != nil {
			t.Fatalf("seed item: %v", err)
		}
		created, err := repo.Create(ctx, model.Order{
			MemberID:       memberID,
			Status:         model.OrderStatusOrder,
			DeliveryStatus: model.DeliveryReady,
			Items:          []model.OrderItem{{ItemID: itemID, OrderPrice: 1000, Count: 3}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.UpdateStatus(ctx, created.ID, model.OrderStatusCancel); err != nil {
			t.Fatalf("update status: %v", err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != model.OrderStatusCancel || len(got.Items) != 1 || got.TotalPrice() != 3000 {
			t.Fatalf("unexpected order: %+v", got)
		}
	})

	t.Run("search_page_counts_orders_not_lines", func(t *testing.T) {
		repo, mkMember, mkItem, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		memberID, err := mkMember(ctx, "userA")
		if err != nil {
			t.Fatalf("seed member: %v", err)
		}
		other, err := mkMember(ctx, "userB")
		if err != nil {
			t.Fatalf("seed member: %v", err)
		}
		i1, _ := mkItem(ctx, 100)
		i2, _ := mkItem(ctx, 200)
		for _, mid := range []int64{memberID, memberID, other} {
			_, err := repo.Create(ctx, model.Order{
				MemberID:       mid,
				Status:         model.OrderStatusOrder,
				DeliveryStatus: model.DeliveryReady,
				Items:          []model.OrderItem{{ItemID: i1, OrderPrice: 100, Count: 1}, {ItemID: i2, OrderPrice: 200, Count: 2}},
			})
			if err != nil {
				t.Fatalf("seed order: %v", err)
			}
		}
		page, err := repo.SearchPage(ctx, model.OrderSearch{MemberName: "usera"}, query.Of(0, 1))
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if page.TotalElements != 2 || len(page.Content) != 1 || !page.HasNext {
			t.Fatalf("unexpected page: %+v", page)
		}
		s := page.Content[0]
		if s.MemberName != "userA" || s.ItemCount != 2 || s.TotalPrice != 500 {
			t.Fatalf("unexpected summary: %+v", s)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, teams, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := teams.Create(ctx, model.Team{Name: "TxCommit"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := teams.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, teams, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		errMarker := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := teams.Create(ctx, model.Team{Name: "TxRollback"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := teams.GetByID(ctx, createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})

	t.Run("snapshot_is_read_only", func(t *testing.T) {
		tx, teams, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		err := tx.WithinSnapshot(context.Background(), func(ctx context.Context) error {
			_, err := teams.Create(ctx, model.Team{Name: "NoWrite"})
			return err
		})
		if err == nil {
			t.Fatal("expected write inside snapshot to fail")
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
