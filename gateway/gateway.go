package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OrderLister serves pages of a user's orders out of storage.
type OrderLister interface {
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.Order, int64, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

// ProductGetter resolves product projections, normally through the catalog
// cache. (nil, nil) means not found.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// RatingService reads and writes per-purchase ratings.
type RatingService interface {
	GetBatch(ctx context.Context, userID string, refs []models.RatingRef) (map[models.RatingRef]int, error)
	Submit(ctx context.Context, userID string, ref models.RatingRef, value int) error
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	orders   OrderLister
	products ProductGetter
	ratings  RatingService
}

func NewGateway(cfg *config.Config, logger *zap.Logger, orders OrderLister, products ProductGetter, ratings RatingService) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		orders:   orders,
		products: products,
		ratings:  ratings,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := g.router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.GET("", g.listOrders)
			orders.GET("/:id", g.getOrder)
		}

		products := v1.Group("/products")
		{
			products.GET("/:id", g.getProduct)
		}

		v1.GET("/ratings", g.listRatings)
		v1.POST("/ratings", g.submitRating)
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router is exposed for httptest.
func (g *Gateway) Router() http.Handler {
	return g.router
}

type orderResponse struct {
	ID                string               `json:"id"`
	OrderNumber       string               `json:"order_number"`
	Status            models.OrderStatus   `json:"status"`
	PaymentMethod     string               `json:"payment_method"`
	PaymentStatus     models.PaymentStatus `json:"payment_status"`
	EstimatedDelivery *time.Time           `json:"estimated_delivery,omitempty"`
	TotalAmount       float64              `json:"total_amount"`
	CreatedAt         time.Time            `json:"created_at"`
	Items             []models.OrderItem   `json:"items"`
}

func (g *Gateway) toOrderResponse(order models.Order) orderResponse {
	items, err := order.ParseItems()
	if err != nil {
		g.logger.Warn("Failed to parse items for order", zap.String("order_id", order.ID), zap.Error(err))
		items = []models.OrderItem{}
	}
	return orderResponse{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		EstimatedDelivery: order.EstimatedDelivery,
		TotalAmount:       order.TotalAmount,
		CreatedAt:         order.CreatedAt,
		Items:             items,
	}
}

func (g *Gateway) listOrders(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(g.config.Feed.PageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = g.config.Feed.PageSize
	}

	orders, total, err := g.orders.ListByUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		g.logger.Error("Failed to list orders", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, order := range orders {
		resp[i] = g.toOrderResponse(order)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":    resp,
		"total":     total,
		"has_more":  int64(page*pageSize) < total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (g *Gateway) getOrder(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	order, err := g.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.logger.Error("Failed to get order", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}
	if order == nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, g.toOrderResponse(*order))
}

type submitRatingRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	OrderNumber string `json:"order_number" binding:"required"`
	Rating      int    `json:"rating" binding:"required"`
}

// submitRating writes a per-purchase rating. Ownership and delivery checks
// live in the rating service; the gateway only translates error codes.
func (g *Gateway) submitRating(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req submitRatingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := models.RatingRef{ProductID: req.ProductID, OrderNumber: req.OrderNumber}
	if err := g.ratings.Submit(c.Request.Context(), userID, ref, req.Rating); err != nil {
		st := status.Convert(err)
		c.JSON(httpStatusFromCode(st.Code()), gin.H{"error": st.Message()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product_id":   req.ProductID,
		"order_number": req.OrderNumber,
		"rating":       req.Rating,
	})
}

func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.logger.Error("Failed to get product", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get product"})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// listRatings batch-resolves the caller's ratings for refs passed as
// comma-separated product:order pairs, e.g. ?refs=p1:ORD-1,p2:ORD-2.
func (g *Gateway) listRatings(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var refs []models.RatingRef
	for _, raw := range strings.Split(c.Query("refs"), ",") {
		parts := strings.SplitN(raw, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		refs = append(refs, models.RatingRef{ProductID: parts[0], OrderNumber: parts[1]})
	}

	ratings, err := g.ratings.GetBatch(c.Request.Context(), userID, refs)
	if err != nil {
		g.logger.Error("Failed to batch ratings", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ratings"})
		return
	}

	resp := make(map[string]int, len(ratings))
	for ref, value := range ratings {
		resp[ref.Key()] = value
	}

	c.JSON(http.StatusOK, gin.H{"ratings": resp})
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
