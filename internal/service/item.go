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

type itemService struct {
	items  repository.ItemRepository
	limits PageLimits
	log    zerolog.Logger
}

func NewItemService(items repository.ItemRepository, limits PageLimits, logger zerolog.Logger) ItemService {
	l := logger.With().Str("module", "service").Str("component", "item").Logger()
	return &itemService{items: items, limits: limits.orDefault(), log: l}
}

func (s *itemService) SaveItem(ctx context.Context, it model.Item) (model.Item, error) {
	start := time.Now()
	it.Name = strings.TrimSpace(it.Name)
	it.Category = strings.ToLower(strings.TrimSpace(it.Category))

	ferrs := checkItem(it)
	if !isValidCategory(it.Category) {
		ferrs = append(ferrs, FieldError{Field: "category", Message: "must be one of book, album, movie"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("item validation failed")
		return model.Item{}, err
	}

	out, err := s.items.Create(ctx, it)
	if err != nil {
		s.log.Error().Err(err).Str("name", it.Name).Msg("save item failed")
		return model.Item{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("item_id", out.ID).Msg("item saved")
	return out, nil
}

// UpdateItem edits name, price and stock of an existing item.
func (s *itemService) UpdateItem(ctx context.Context, id int64, name string, price int64, stock int) (model.Item, error) {
	it := model.Item{ID: id, Name: strings.TrimSpace(name), Price: price, StockQuantity: stock}
	ferrs := checkItem(it)
	if id <= 0 {
		ferrs = append([]FieldError{{Field: "id", Message: "must be > 0"}}, ferrs...)
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("item validation failed")
		return model.Item{}, err
	}

	out, err := s.items.Update(ctx, it)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("item_id", id).Msg("update item failed")
		}
		return model.Item{}, err
	}
	s.log.Info().Int64("item_id", id).Msg("item updated")
	return out, nil
}

func checkItem(it model.Item) []FieldError {
	var ferrs []FieldError
	if it.Name == "" {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "must not be empty"})
	} else if ln := len([]rune(it.Name)); ln > 100 {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "length must be <= 100"})
	}
	if it.Price < 0 {
		ferrs = append(ferrs, FieldError{Field: "price", Message: "must be >= 0"})
	}
	if it.StockQuantity < 0 {
		ferrs = append(ferrs, FieldError{Field: "stock_quantity", Message: "must be >= 0"})
	}
	return ferrs
}

func (s *itemService) GetItem(ctx context.Context, id int64) (model.Item, error) {
	if id <= 0 {
		return model.Item{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return s.items.GetByID(ctx, id)
}

func (s *itemService) SearchItems(ctx context.Context, c model.ItemSearch, p query.PageRequest) (query.Page[model.Item], error) {
	ferrs := checkRange(nil, "price", c.PriceGoe, c.PriceLoe)
	if strings.TrimSpace(c.Category) != "" && !isValidCategory(c.Category) {
		ferrs = append(ferrs, FieldError{Field: "category", Message: "must be one of book, album, movie"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return query.Page[model.Item]{}, err
	}
	p = clampPage(p, s.limits)
	page, err := s.items.SearchPage(ctx, c, p)
	if err != nil {
		if !errors.Is(err, query.ErrInvalidPageRequest) {
			s.log.Error().Err(err).Int("page", p.Index).Int("size", p.Size).Msg("search items failed")
		}
		return query.Page[model.Item]{}, err
	}
	return page, nil
}
