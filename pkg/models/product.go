package models

import (
	"fmt"
	"time"
)

type Product struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string    `gorm:"type:varchar(200);not null" json:"name"`
	ImageURL      string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	Price         float64   `gorm:"type:decimal(10,2)" json:"price"`
	AverageRating float64   `gorm:"type:decimal(3,2)" json:"average_rating"`
	RatingCount   int64     `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// RatingRef identifies a rating by purchase occurrence: the same product
// bought in two orders carries two independent refs.
type RatingRef struct {
	ProductID   string `json:"product_id"`
	OrderNumber string `json:"order_number"`
}

// Key is the cache/map key form of a ref.
func (r RatingRef) Key() string {
	return fmt.Sprintf("%s:%s", r.ProductID, r.OrderNumber)
}
