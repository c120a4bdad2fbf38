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

// memberPlanner builds member/team search plans. The count joins teams only
// when a team name filter needs it.
var memberPlanner = query.Planner[model.MemberSearch]{
	Content: func(c model.MemberSearch) sq.SelectBuilder {
		b := psql.Select("m.id", "m.username", "m.age", "t.id", "t.name").
			From("members m").
			LeftJoin("teams t ON t.id = m.team_id")
		return query.Filter(b, memberWhere(c))
	},
	Count: func(c model.MemberSearch) sq.SelectBuilder {
		b := psql.Select("COUNT(m.id)").From("members m")
		if strings.TrimSpace(c.TeamName) != "" {
			b = b.Join("teams t ON t.id = m.team_id")
		}
		return query.Filter(b, memberWhere(c))
	},
	Sortable: map[string]string{
		"id":        "m.id",
		"username":  "m.username",
		"age":       "m.age",
		"team_name": "t.name",
	},
	DefaultOrder: []string{"m.id ASC"},
}

func memberWhere(c model.MemberSearch) sq.Sqlizer {
	return query.All(
		query.EqText("m.username", c.Username),
		query.EqText("t.name", c.TeamName),
		query.Goe("m.age", c.AgeGoe),
		query.Loe("m.age", c.AgeLoe),
	)
}

func scanMemberTeam(row pgx.CollectableRow) (model.MemberTeam, error) {
	var m model.MemberTeam
	err := row.Scan(&m.MemberID, &m.Username, &m.Age, &m.TeamID, &m.TeamName)
	return m, err
}

type memberRepository struct {
	pool     *pgxpool.Pool
	tx       repository.TxManager
	search   *query.Builder[model.MemberSearch, model.MemberTeam]
	snapshot bool
}

func NewMemberRepository(pool *pgxpool.Pool, opts SearchOptions, logger zerolog.Logger) repository.MemberRepository {
	l := logger.With().Str("component", "member_repository").Logger()
	return &memberRepository{
		pool:     pool,
		tx:       NewTxManager(pool),
		search:   query.NewBuilder(memberPlanner, newExecutor(pool, scanMemberTeam), opts.builderOptions(), l),
		snapshot: opts.Snapshot,
	}
}

const memberColumns = `id, username, age, team_id, city, street, zipcode, created_at`

func scanMember(row pgx.Row) (model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.Username, &m.Age, &m.TeamID,
		&m.Address.City, &m.Address.Street, &m.Address.Zipcode, &m.CreatedAt)
	return m, err
}

func (r *memberRepository) Create(ctx context.Context, m model.Member) (model.Member, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Member{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO members (username, age, team_id, city, street, zipcode)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+memberColumns,
		m.Username, m.Age, m.TeamID, m.Address.City, m.Address.Street, m.Address.Zipcode,
	)
	out, err := scanMember(row)
	if err != nil {
		return model.Member{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (model.Member, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Member{}, err
	}
	exec := getQ(ctx, r.pool)
	out, err := scanMember(exec.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		return model.Member{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *memberRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	exec := getQ(ctx, r.pool)
	err := exec.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *memberRepository) Search(ctx context.Context, c model.MemberSearch) ([]model.MemberTeam, error) {
	return r.search.Search(ctx, c)
}

func (r *memberRepository) SearchPage(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Page[model.MemberTeam], error) {
	return searchPage(ctx, r.tx, r.search, r.snapshot, c, p)
}

func (r *memberRepository) SearchSlice(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Slice[model.MemberTeam], error) {
	return r.search.SearchSlice(ctx, c, p)
}

var _ repository.MemberRepository = (*memberRepository)(nil)
