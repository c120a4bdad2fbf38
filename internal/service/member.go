package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maxviazov/member-search-service/internal/model"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
	"github.com/rs/zerolog"
)

type memberService struct {
	members repository.MemberRepository
	teams   repository.TeamRepository
	limits  PageLimits
	log     zerolog.Logger
}

func NewMemberService(members repository.MemberRepository, teams repository.TeamRepository, limits PageLimits, logger zerolog.Logger) MemberService {
	l := logger.With().Str("module", "service").Str("component", "member").Logger()
	return &memberService{members: members, teams: teams, limits: limits.orDefault(), log: l}
}

// JoinMember registers a member. Usernames are unique; the repository's unique
// index still backs the pre-check against concurrent joins.
func (s *memberService) JoinMember(ctx context.Context, m model.Member) (model.Member, error) {
	start := time.Now()
	m.Username = strings.TrimSpace(m.Username)
	m.Address.City = strings.TrimSpace(m.Address.City)
	m.Address.Street = strings.TrimSpace(m.Address.Street)
	m.Address.Zipcode = strings.TrimSpace(m.Address.Zipcode)

	var ferrs []FieldError
	if m.Username == "" {
		ferrs = append(ferrs, FieldError{Field: "username", Message: "must not be empty"})
	} else if ln := len([]rune(m.Username)); ln > 50 {
		ferrs = append(ferrs, FieldError{Field: "username", Message: "length must be <= 50"})
	}
	if m.Age < 0 || m.Age > 150 {
		ferrs = append(ferrs, FieldError{Field: "age", Message: "must be between 0 and 150"})
	}
	if m.TeamID != nil && *m.TeamID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "team_id", Message: "must be > 0"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("member validation failed")
		return model.Member{}, err
	}

	exists, err := s.members.ExistsByUsername(ctx, m.Username)
	if err != nil {
		return model.Member{}, err
	}
	if exists {
		return model.Member{}, repository.ErrAlreadyExists
	}
	if m.TeamID != nil {
		if _, err := s.teams.GetByID(ctx, *m.TeamID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Member{}, newInvalidInput([]FieldError{{Field: "team_id", Message: "team does not exist"}})
			}
			return model.Member{}, err
		}
	}

	out, err := s.members.Create(ctx, m)
	if err != nil {
		s.log.Error().Err(err).Str("username", m.Username).Msg("join member failed")
		return model.Member{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("member_id", out.ID).Msg("member joined")
	return out, nil
}

func (s *memberService) GetMember(ctx context.Context, id int64) (model.Member, error) {
	if id <= 0 {
		return model.Member{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return s.members.GetByID(ctx, id)
}

func validateMemberSearch(c model.MemberSearch) error {
	return newInvalidInput(checkRange(nil, "age", c.AgeGoe, c.AgeLoe))
}

func (s *memberService) SearchMembers(ctx context.Context, c model.MemberSearch) ([]model.MemberTeam, error) {
	if err := validateMemberSearch(c); err != nil {
		return nil, err
	}
	out, err := s.members.Search(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Msg("search members failed")
		return nil, err
	}
	return out, nil
}

func (s *memberService) SearchMemberPage(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Page[model.MemberTeam], error) {
	if err := validateMemberSearch(c); err != nil {
		return query.Page[model.MemberTeam]{}, err
	}
	p = clampPage(p, s.limits)
	page, err := s.members.SearchPage(ctx, c, p)
	if err != nil {
		if !errors.Is(err, query.ErrInvalidPageRequest) {
			s.log.Error().Err(err).Int("page", p.Index).Int("size", p.Size).Msg("search member page failed")
		}
		return query.Page[model.MemberTeam]{}, err
	}
	return page, nil
}

func (s *memberService) SearchMemberSlice(ctx context.Context, c model.MemberSearch, p query.PageRequest) (query.Slice[model.MemberTeam], error) {
	if err := validateMemberSearch(c); err != nil {
		return query.Slice[model.MemberTeam]{}, err
	}
	p = clampPage(p, s.limits)
	sl, err := s.members.SearchSlice(ctx, c, p)
	if err != nil {
		if !errors.Is(err, query.ErrInvalidPageRequest) {
			s.log.Error().Err(err).Int("page", p.Index).Int("size", p.Size).Msg("search member slice failed")
		}
		return query.Slice[model.MemberTeam]{}, err
	}
	return sl, nil
}
