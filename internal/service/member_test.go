package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
	"github.com/maxviazov/member-search-service/internal/service"
)

func newMemberService(t *testing.T) (service.MemberService, *fakeMemberRepo, *fakeTeamRepo) {
	t.Helper()
	members, teams := newFakeMemberRepo(), newFakeTeamRepo()
	svc := service.NewMemberService(members, teams, service.PageLimits{Default: 10, Max: 50}, zerolog.New(io.Discard))
	return svc, members, teams
}

func TestMemberService_JoinMember(t *testing.T) {
	svc, _, teams := newMemberService(t)
	ctx := context.Background()
	team, err := teams.Create(ctx, model.Team{Name: "teamA"})
	require.NoError(t, err)

	m, err := svc.JoinMember(ctx, model.Member{Username: " member1 ", Age: 10, TeamID: &team.ID})
	require.NoError(t, err)
	assert.Equal(t, "member1", m.Username)

	_, err = svc.JoinMember(ctx, model.Member{Username: "member1", Age: 20})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	missing := int64(404)
	_, err = svc.JoinMember(ctx, model.Member{Username: "member2", Age: 20, TeamID: &missing})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, "team_id", service.FieldErrors(err)[0].Field)

	_, err = svc.JoinMember(ctx, model.Member{Username: "", Age: -1})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Len(t, service.FieldErrors(err), 2)
}

func TestMemberService_SearchMemberPage(t *testing.T) {
	svc, members, _ := newMemberService(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := members.Create(ctx, model.Member{Username: fmt.Sprintf("member%d", i), Age: i * 10})
		require.NoError(t, err)
	}

	t.Run("oversized page is clamped", func(t *testing.T) {
		_, err := svc.SearchMemberPage(ctx, model.MemberSearch{}, query.Of(0, 1000))
		require.NoError(t, err)
		assert.Equal(t, 50, members.lastPage.Size)
	})

	t.Run("beyond range is empty", func(t *testing.T) {
		page, err := svc.SearchMemberPage(ctx, model.MemberSearch{}, query.Of(10, 3))
		require.NoError(t, err)
		assert.Empty(t, page.Content)
		assert.False(t, page.HasNext)
		assert.EqualValues(t, 5, page.TotalElements)
	})

	t.Run("invalid page passes through", func(t *testing.T) {
		_, err := svc.SearchMemberPage(ctx, model.MemberSearch{}, query.Of(-1, 3))
		assert.ErrorIs(t, err, query.ErrInvalidPageRequest)
		_, err = svc.SearchMemberPage(ctx, model.MemberSearch{}, query.Of(0, 0))
		assert.ErrorIs(t, err, query.ErrInvalidPageRequest)
	})

	t.Run("negative age bound", func(t *testing.T) {
		neg := -5
		_, err := svc.SearchMemberPage(ctx, model.MemberSearch{AgeGoe: &neg}, query.Of(0, 3))
		require.ErrorIs(t, err, service.ErrInvalidInput)
		assert.Equal(t, "age_goe", service.FieldErrors(err)[0].Field)
	})

	t.Run("store failure surfaces unchanged", func(t *testing.T) {
		boom := &query.ExecutionError{Op: "count", Err: fmt.Errorf("connection reset")}
		members.pageErr = boom
		t.Cleanup(func() { members.pageErr = nil })
		_, err := svc.SearchMemberPage(ctx, model.MemberSearch{}, query.Of(0, 3))
		assert.ErrorIs(t, err, query.ErrQueryExecution)
		assert.Same(t, boom, err)
	})
}

func TestMemberService_SearchMemberSlice(t *testing.T) {
	svc, members, _ := newMemberService(t)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		_, err := members.Create(ctx, model.Member{Username: fmt.Sprintf("member%d", i), Age: i})
		require.NoError(t, err)
	}
	sl, err := svc.SearchMemberSlice(ctx, model.MemberSearch{}, query.Of(0, 3))
	require.NoError(t, err)
	assert.Len(t, sl.Content, 3)
	assert.True(t, sl.HasNext)

	sl, err = svc.SearchMemberSlice(ctx, model.MemberSearch{}, query.Of(1, 3))
	require.NoError(t, err)
	assert.Len(t, sl.Content, 1)
	assert.True(t, sl.Last)
}
