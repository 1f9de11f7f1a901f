package models

import (
	"encoding/json"
	"time"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusRefunded       OrderStatus = "refunded"
)

// PaymentStatus is the backend-assessed payment confirmation state,
// distinct from the fulfillment status above.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

type Order struct {
	ID                string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID            string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	OrderNumber       string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	Items             string        `gorm:"type:text" json:"-"` // JSON string
	TotalAmount       float64       `gorm:"type:decimal(10,2)" json:"total_amount"`
	Status            OrderStatus   `gorm:"type:varchar(20);default:'placed'" json:"status"`
	PaymentMethod     string        `gorm:"type:varchar(30)" json:"payment_method"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	EstimatedDelivery *time.Time    `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	DeletedAt         *time.Time    `gorm:"index" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	ImageURL    string  `json:"image_url,omitempty"`
	Quantity    int32   `json:"quantity"`
	Price       float64 `json:"price"`
	LineTotal   float64 `json:"line_total"`
}

// ParseItems decodes the JSON items column.
func (o *Order) ParseItems() ([]OrderItem, error) {
	if o.Items == "" {
		return nil, nil
	}
	var items []OrderItem
	if err := json.Unmarshal([]byte(o.Items), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetItems encodes items into the JSON items column and recomputes
// per-line and order totals.
func (o *Order) SetItems(items []OrderItem) error {
	for i := range items {
		items[i].LineTotal = float64(items[i].Quantity) * items[i].Price
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	o.Items = string(data)

	var total float64
	for _, item := range items {
		total += item.LineTotal
	}
	o.TotalAmount = total
	return nil
}
