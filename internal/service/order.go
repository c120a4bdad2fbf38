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

type orderService struct {
	tx      repository.TxManager
	orders  repository.OrderRepository
	members repository.MemberRepository
	items   repository.ItemRepository
	limits  PageLimits
	log     zerolog.Logger
}

func NewOrderService(tx repository.TxManager, orders repository.OrderRepository, members repository.MemberRepository, items repository.ItemRepository, limits PageLimits, logger zerolog.Logger) OrderService {
	l := logger.With().Str("module", "service").Str("component", "order").Logger()
	return &orderService{tx: tx, orders: orders, members: members, items: items, limits: limits.orDefault(), log: l}
}

// PlaceOrder locks the item row, takes the stock and records the order in one transaction.
// The order ships to the member's address.
func (s *orderService) PlaceOrder(ctx context.Context, memberID, itemID int64, count int) (model.Order, error) {
	start := time.Now()
	var ferrs []FieldError
	if memberID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "member_id", Message: "must be > 0"})
	}
	if itemID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "item_id", Message: "must be > 0"})
	}
	if count <= 0 {
		ferrs = append(ferrs, FieldError{Field: "count", Message: "must be > 0"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.Order{}, err
	}

	var out model.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		member, err := s.members.GetByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newInvalidInput([]FieldError{{Field: "member_id", Message: "member does not exist"}})
			}
			return err
		}
		item, err := s.items.GetForUpdate(ctx, itemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newInvalidInput([]FieldError{{Field: "item_id", Message: "item does not exist"}})
			}
			return err
		}
		if err := item.RemoveStock(count); err != nil {
			return err
		}
		if err := s.items.UpdateStock(ctx, item.ID, item.StockQuantity); err != nil {
			return err
		}
		out, err = s.orders.Create(ctx, model.Order{
			MemberID:       member.ID,
			Status:         model.OrderStatusOrder,
			DeliveryStatus: model.DeliveryReady,
			Address:        member.Address,
			Items:          []model.OrderItem{{ItemID: item.ID, OrderPrice: item.Price, Count: count}},
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, model.ErrNotEnoughStock) {
			s.log.Error().Err(err).Int64("member_id", memberID).Int64("item_id", itemID).Msg("place order failed")
		}
		return model.Order{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("order_id", out.ID).Int64("total", out.TotalPrice()).Msg("order placed")
	return out, nil
}

// CancelOrder cancels the order and returns its stock. Cancelling an already
// cancelled order is a no-op so stock is never restored twice.
func (s *orderService) CancelOrder(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == model.OrderStatusCancel {
			return nil
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, line := range order.Items {
			item, err := s.items.GetForUpdate(ctx, line.ItemID)
			if err != nil {
				return err
			}
			item.AddStock(line.Count)
			if err := s.items.UpdateStock(ctx, item.ID, item.StockQuantity); err != nil {
				return err
			}
		}
		return s.orders.UpdateStatus(ctx, order.ID, order.Status)
	})
	if err != nil {
		if !errors.Is(err, model.ErrAlreadyDelivered) && !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("order_id", orderID).Msg("cancel order failed")
		}
		return err
	}
	s.log.Info().Int64("order_id", orderID).Msg("order cancelled")
	return nil
}

func (s *orderService) SearchOrders(ctx context.Context, c model.OrderSearch, p query.PageRequest) (query.Page[model.OrderSummary], error) {
	if strings.TrimSpace(c.Status) != "" && !isValidOrderStatus(c.Status) {
		return query.Page[model.OrderSummary]{}, newInvalidInput([]FieldError{{Field: "status", Message: "must be one of ORDER, CANCEL"}})
	}
	p = clampPage(p, s.limits)
	page, err := s.orders.SearchPage(ctx, c, p)
	if err != nil {
		if !errors.Is(err, query.ErrInvalidPageRequest) {
			s.log.Error().Err(err).Int("page", p.Index).Int("size", p.Size).Msg("search orders failed")
		}
		return query.Page[model.OrderSummary]{}, err
	}
	return page, nil
}
