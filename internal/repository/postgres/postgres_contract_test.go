package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
	"github.com/maxviazov/member-search-service/internal/repository/contract"
	"github.com/rs/zerolog"
)

var (
	db     *sql.DB
	pool   *pgxpool.Pool
	dsn    string
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// allow skipping contract tests unless explicitly enabled
		skippy = true
		os.Exit(m.Run())
	}

	dsn = buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	var err error
	db, err = sql.Open("pgx", dsn)
	if err != nil {
		fmt.Println("[contract] sql open error:", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		fmt.Println("[contract] db ping error:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := repository.MigrateDB(ctx, db, zerolog.Nop()); err != nil {
		fmt.Println("[contract] migrate error:", err)
		os.Exit(1)
	}

	pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	db.Close()
	os.Exit(code)
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	db := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), os.Getenv("POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || db == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateAll(t *testing.T) {
	t.Helper()
	stmts := []string{
		"TRUNCATE TABLE order_items RESTART IDENTITY CASCADE",
		"TRUNCATE TABLE orders RESTART IDENTITY CASCADE",
		"TRUNCATE TABLE items RESTART IDENTITY CASCADE",
		"TRUNCATE TABLE members RESTART IDENTITY CASCADE",
		"TRUNCATE TABLE teams RESTART IDENTITY CASCADE",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}
	}
}

// Factories used by contract suites

func makeTeamRepo(t *testing.T) (repository.TeamRepository, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	return NewTeamRepository(pool), func() { truncateAll(t) }
}

func memberFactory(opts SearchOptions) contract.MemberFactory {
	return func(t *testing.T) (repository.MemberRepository, repository.TeamRepository, func()) {
		skipIfNeeded(t)
		truncateAll(t)
		return NewMemberRepository(pool, opts, zerolog.Nop()), NewTeamRepository(pool), func() { truncateAll(t) }
	}
}

func makeItemRepo(t *testing.T) (repository.ItemRepository, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	return NewItemRepository(pool, SearchOptions{}, zerolog.Nop()), func() { truncateAll(t) }
}

func makeOrderRepo(t *testing.T) (repository.OrderRepository, func(ctx context.Context, name string) (int64, error), func(ctx context.Context, price int64) (int64, error), func()) {
	skipIfNeeded(t)
	truncateAll(t)
	members := NewMemberRepository(pool, SearchOptions{}, zerolog.Nop())
	items := NewItemRepository(pool, SearchOptions{}, zerolog.Nop())
	mkMember := func(ctx context.Context, name string) (int64, error) {
		m, err := members.Create(ctx, model.Member{Username: name, Age: 20})
		if err != nil {
			return 0, err
		}
		return m.ID, nil
	}
	mkItem := func(ctx context.Context, price int64) (int64, error) {
		it, err := items.Create(ctx, model.Item{Name: "seed", Price: price, StockQuantity: 100, Category: model.CategoryBook})
		if err != nil {
			return 0, err
		}
		return it.ID, nil
	}
	return NewOrderRepository(pool, SearchOptions{}, zerolog.Nop()), mkMember, mkItem, func() { truncateAll(t) }
}

func makeTx(t *testing.T) (repository.TxManager, repository.TeamRepository, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	return NewTxManager(pool), NewTeamRepository(pool), func() { truncateAll(t) }
}

func makePinger(t *testing.T) (repository.Pinger, func()) {
	skipIfNeeded(t)
	return NewPinger(pool), func() {}
}

// Wire the contract suites to Postgres factories

func TestTeamRepository_PostgresContract(t *testing.T) {
	contract.RunTeamRepositoryContract(t, makeTeamRepo)
}

func TestMemberRepository_PostgresContract(t *testing.T) {
	cases := map[string]SearchOptions{
		"sequential": {CountPolicy: query.CountFirstPage},
		"always":     {CountPolicy: query.CountAlways},
		"concurrent": {CountPolicy: query.CountAlways, Concurrent: true},
		"any_page":   {CountPolicy: query.CountAnyPage, Concurrent: true},
		"snapshot":   {CountPolicy: query.CountFirstPage, Concurrent: true, Snapshot: true},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			contract.RunMemberRepositoryContract(t, memberFactory(opts))
		})
	}
}

func TestItemRepository_PostgresContract(t *testing.T) {
	contract.RunItemRepositoryContract(t, makeItemRepo)
}

func TestOrderRepository_PostgresContract(t *testing.T) {
	contract.RunOrderRepositoryContract(t, makeOrderRepo)
}

func TestTxManager_PostgresContract(t *testing.T) {
	contract.RunTxManagerContract(t, makeTx)
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, makePinger)
}
