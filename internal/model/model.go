// Package model contains domain entities, search criteria and read projections used across layers.
// I keep it lean; the only behavior here is the stock and order state rules.
package model

import (
	"errors"
	"time"
)

// Team groups members.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a registered user, optionally belonging to a team.
type Member struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Age       int       `json:"age"`
	TeamID    *int64    `json:"team_id,omitempty"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberTeam is the read projection of a member joined with its team.
type MemberTeam struct {
	MemberID int64   `json:"member_id"`
	Username string  `json:"username"`
	Age      int     `json:"age"`
	TeamID   *int64  `json:"team_id,omitempty"`
	TeamName *string `json:"team_name,omitempty"`
}

// MemberSearch holds optional member filters. Blank strings and nil bounds are ignored.
type MemberSearch struct {
	Username string `json:"username" form:"username"`
	TeamName string `json:"team_name" form:"team_name"`
	AgeGoe   *int   `json:"age_goe" form:"age_goe"`
	AgeLoe   *int   `json:"age_loe" form:"age_loe"`
}

// Address is an embedded value used by members and deliveries.
type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

// Item categories.
const (
	CategoryBook  = "book"
	CategoryAlbum = "album"
	CategoryMovie = "movie"
)

// ErrNotEnoughStock is returned when an order asks for more than is in stock.
var ErrNotEnoughStock = errors.New("not enough stock")

// Item is a sellable product.
type Item struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
}

// RemoveStock decreases stock, refusing to go below zero.
func (i *Item) RemoveStock(n int) error {
	rest := i.StockQuantity - n
	if rest < 0 {
		return ErrNotEnoughStock
	}
	i.StockQuantity = rest
	return nil
}

// AddStock increases stock.
func (i *Item) AddStock(n int) { i.StockQuantity += n }

// ItemSearch holds optional item filters.
type ItemSearch struct {
	Name     string `json:"name" form:"name"`
	Category string `json:"category" form:"category"`
	PriceGoe *int64 `json:"price_goe" form:"price_goe"`
	PriceLoe *int64 `json:"price_loe" form:"price_loe"`
}

// Order and delivery states.
const (
	OrderStatusOrder  = "ORDER"
	OrderStatusCancel = "CANCEL"

	DeliveryReady    = "READY"
	DeliveryComplete = "COMP"
)

// ErrAlreadyDelivered is returned when cancelling an order whose delivery is complete.
var ErrAlreadyDelivered = errors.New("order already delivered")

// Order is a member's purchase of one or more items.
type Order struct {
	ID             int64       `json:"id"`
	MemberID       int64       `json:"member_id"`
	OrderDate      time.Time   `json:"order_date"`
	Status         string      `json:"status"`
	DeliveryStatus string      `json:"delivery_status"`
	Address        Address     `json:"address"`
	Items          []OrderItem `json:"items"`
}

// OrderItem is one order line; OrderPrice is the unit price at order time.
type OrderItem struct {
	ID         int64 `json:"id"`
	OrderID    int64 `json:"order_id"`
	ItemID     int64 `json:"item_id"`
	OrderPrice int64 `json:"order_price"`
	Count      int   `json:"count"`
}

// TotalPrice is unit price times count.
func (oi OrderItem) TotalPrice() int64 { return oi.OrderPrice * int64(oi.Count) }

// Cancel moves the order to CANCEL unless its delivery is complete.
func (o *Order) Cancel() error {
	if o.DeliveryStatus == DeliveryComplete {
		return ErrAlreadyDelivered
	}
	o.Status = OrderStatusCancel
	return nil
}

// TotalPrice sums all order lines.
func (o Order) TotalPrice() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.TotalPrice()
	}
	return sum
}

// OrderSearch holds optional order filters.
type OrderSearch struct {
	MemberName string `json:"member_name" form:"member_name"`
	Status     string `json:"status" form:"status"`
}

// OrderSummary is the paged read projection of an order.
type OrderSummary struct {
	OrderID    int64     `json:"order_id"`
	MemberName string    `json:"member_name"`
	OrderDate  time.Time `json:"order_date"`
	Status     string    `json:"status"`
	ItemCount  int64     `json:"item_count"`
	TotalPrice int64     `json:"total_price"`
}
