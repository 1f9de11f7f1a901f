package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/shopfront/pkg/models"
)

var errTest = errors.New("test error")

// fakeOrders serves canned pages and records calls.
type fakeOrders struct {
	mu      sync.Mutex
	pages   map[int]Page
	byID    map[string]models.Order
	err     error
	calls   int
	onFetch func()
}

func newFakeOrders(orders []models.Order, pageSize int) *fakeOrders {
	f := &fakeOrders{
		pages: make(map[int]Page),
		byID:  make(map[string]models.Order),
	}
	total := int64(len(orders))
	for i := 0; i < len(orders); i += pageSize {
		end := i + pageSize
		if end > len(orders) {
			end = len(orders)
		}
		page := i/pageSize + 1
		f.pages[page] = Page{
			Orders:  orders[i:end],
			Total:   total,
			HasMore: end < len(orders),
		}
	}
	if len(orders) == 0 {
		f.pages[1] = Page{}
	}
	for _, order := range orders {
		f.byID[order.ID] = order
	}
	return f
}

func (f *fakeOrders) FetchOrders(ctx context.Context, userID string, page, pageSize int) (Page, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	p, ok := f.pages[page]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return Page{}, err
	}
	if !ok {
		return Page{Total: p.Total}, nil
	}
	return p, nil
}

func (f *fakeOrders) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	order, ok := f.byID[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (f *fakeOrders) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeOrders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeProducts resolves every id to a product unless failing.
type fakeProducts struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeProducts) GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]models.Product, len(ids))
	for _, id := range ids {
		result[id] = models.Product{ID: id, Name: "Product " + id, AverageRating: 4.2}
	}
	return result, nil
}

func (f *fakeProducts) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeRatings is an in-memory ledger with injectable submit behavior.
type fakeRatings struct {
	mu          sync.Mutex
	stored      map[models.RatingRef]int
	submitErr   error
	submitCalls int
	batchCalls  int
	err         error
	onSubmit    func()
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{stored: make(map[models.RatingRef]int)}
}

func (f *fakeRatings) GetBatch(ctx context.Context, userID string, refs []models.RatingRef) (map[models.RatingRef]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[models.RatingRef]int)
	for _, ref := range refs {
		if value, ok := f.stored[ref]; ok {
			result[ref] = value
		}
	}
	return result, nil
}

func (f *fakeRatings) Submit(ctx context.Context, userID string, ref models.RatingRef, value int) error {
	f.mu.Lock()
	f.submitCalls++
	err := f.submitErr
	hook := f.onSubmit
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.stored[ref] = value
	f.mu.Unlock()
	return nil
}

func (f *fakeRatings) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

// fakeNotifier records toasts in order.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) record(level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, level+": "+message)
}

func (f *fakeNotifier) Success(userID, message string) { f.record("success", message) }
func (f *fakeNotifier) Info(userID, message string)    { f.record("info", message) }
func (f *fakeNotifier) Error(userID, message string)   { f.record("error", message) }

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func makeOrders(n int, status models.OrderStatus) []models.Order {
	orders := make([]models.Order, n)
	for i := 0; i < n; i++ {
		order := models.Order{
			ID:            fmt.Sprintf("order-%d", i+1),
			UserID:        "user-1",
			OrderNumber:   fmt.Sprintf("ORD-%04d", 1000+i+1),
			Status:        status,
			PaymentMethod: "card",
			PaymentStatus: models.PaymentVerified,
			CreatedAt:     time.Now().Add(-time.Duration(i) * time.Hour),
		}
		_ = order.SetItems([]models.OrderItem{
			{ProductID: fmt.Sprintf("prod-%d", i%4+1), ProductName: "Widget", Quantity: 1, Price: 19.99},
		})
		orders[i] = order
	}
	return orders
}
