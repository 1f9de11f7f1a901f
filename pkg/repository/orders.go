package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// OrderRepository serves orders and products out of MySQL.
type OrderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewOrderRepository(cfg *config.MySQLConfig, logger *zap.Logger) (*OrderRepository, error) {
	// Connect to MySQL
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(&models.Order{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &OrderRepository{db: db, logger: logger}, nil
}

// ListByUser returns one page of the user's orders, newest first, plus the
// total count for pagination.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}

	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

// GetByID returns (nil, nil) when no such order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// GetByNumber returns (nil, nil) when no such order exists.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// GetProduct returns (nil, nil) when no such product exists.
func (r *OrderRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ApplyRating folds a newly submitted rating value into the product's
// running average inside one transaction.
func (r *OrderRepository) ApplyRating(ctx context.Context, productID string, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}

		newCount := product.RatingCount + 1
		newAverage := (product.AverageRating*float64(product.RatingCount) + float64(value)) / float64(newCount)

		updates := map[string]interface{}{
			"average_rating": newAverage,
			"rating_count":   newCount,
			"updated_at":     time.Now(),
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product rating: %w", err)
		}
		return nil
	})
}
