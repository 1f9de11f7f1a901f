// Package client implements the feed source interfaces over the shopfront
// HTTP API, for Go programs that render the orders screen remotely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/shopfront/pkg/feed"
	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client is one user's session against the gateway. It implements
// feed.OrderSource, feed.ProductSource and feed.RatingSource.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	logger  *zap.Logger
}

func New(baseURL, userID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type orderPayload struct {
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

func (c *Client) toOrder(p orderPayload) (models.Order, error) {
	order := models.Order{
		ID:                p.ID,
		UserID:            c.userID,
		OrderNumber:       p.OrderNumber,
		Status:            p.Status,
		PaymentMethod:     p.PaymentMethod,
		PaymentStatus:     p.PaymentStatus,
		EstimatedDelivery: p.EstimatedDelivery,
		CreatedAt:         p.CreatedAt,
	}
	if err := order.SetItems(p.Items); err != nil {
		return models.Order{}, err
	}
	// The server total is authoritative; SetItems only recomputes lines.
	order.TotalAmount = p.TotalAmount
	return order, nil
}

// FetchOrders implements feed.OrderSource.
func (c *Client) FetchOrders(ctx context.Context, userID string, page, pageSize int) (feed.Page, error) {
	u := fmt.Sprintf("%s/api/v1/orders?page=%d&page_size=%d", c.baseURL, page, pageSize)

	var resp struct {
		Orders  []orderPayload `json:"orders"`
		Total   int64          `json:"total"`
		HasMore bool           `json:"has_more"`
	}
	if err := c.getJSON(ctx, u, userID, &resp); err != nil {
		return feed.Page{}, err
	}

	orders := make([]models.Order, 0, len(resp.Orders))
	for _, p := range resp.Orders {
		order, err := c.toOrder(p)
		if err != nil {
			c.logger.Warn("Skipping undecodable order", zap.String("order_id", p.ID), zap.Error(err))
			continue
		}
		orders = append(orders, order)
	}

	return feed.Page{Orders: orders, Total: resp.Total, HasMore: resp.HasMore}, nil
}

// FetchOrder implements feed.OrderSource. (nil, nil) on 404.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	u := fmt.Sprintf("%s/api/v1/orders/%s", c.baseURL, url.PathEscape(orderID))

	var payload orderPayload
	if err := c.getJSON(ctx, u, c.userID, &payload); err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	order, err := c.toOrder(payload)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetProducts implements feed.ProductSource. There is no batch endpoint;
// ids resolve in parallel and failed or missing ids are left out.
func (c *Client) GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	var mu sync.Mutex
	result := make(map[string]models.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			u := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(id))
			var product models.Product
			if err := c.getJSON(gctx, u, c.userID, &product); err != nil {
				if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
					c.logger.Warn("Product lookup failed", zap.String("product_id", id), zap.Error(err))
				}
				return nil
			}
			mu.Lock()
			result[id] = product
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

// GetBatch implements feed.RatingSource.
func (c *Client) GetBatch(ctx context.Context, userID string, refs []models.RatingRef) (map[models.RatingRef]int, error) {
	if len(refs) == 0 {
		return map[models.RatingRef]int{}, nil
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = ref.Key()
	}
	u := fmt.Sprintf("%s/api/v1/ratings?refs=%s", c.baseURL, url.QueryEscape(strings.Join(keys, ",")))

	var resp struct {
		Ratings map[string]int `json:"ratings"`
	}
	if err := c.getJSON(ctx, u, userID, &resp); err != nil {
		return nil, err
	}

	result := make(map[models.RatingRef]int, len(resp.Ratings))
	for key, value := range resp.Ratings {
		parts := strings.SplitN(key, ":", 2)
		if len(parts) != 2 {
			continue
		}
		result[models.RatingRef{ProductID: parts[0], OrderNumber: parts[1]}] = value
	}
	return result, nil
}

// Submit implements feed.RatingSource. Errors carry the gRPC code the
// gateway encoded as an HTTP status.
func (c *Client) Submit(ctx context.Context, userID string, ref models.RatingRef, value int) error {
	body, err := json.Marshal(map[string]interface{}{
		"product_id":   ref.ProductID,
		"order_number": ref.OrderNumber,
		"rating":       value,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/ratings", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit rating: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url, userID string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// apiError reverses the gateway's code-to-status mapping so callers see the
// same error taxonomy the services emit.
func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &payload)
	message := payload.Error
	if message == "" {
		message = "request failed with status " + strconv.Itoa(resp.StatusCode)
	}
	return status.Error(codeFromHTTPStatus(resp.StatusCode), message)
}

func codeFromHTTPStatus(statusCode int) codes.Code {
	switch statusCode {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusUnprocessableEntity:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
