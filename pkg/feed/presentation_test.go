package feed

import (
	"testing"

	"github.com/example/shopfront/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestStatusBadgeCoversAllStatuses(t *testing.T) {
	tests := []struct {
		status   models.OrderStatus
		label    string
		emphasis Emphasis
	}{
		{models.StatusPlaced, "Order Placed", EmphasisInfo},
		{models.StatusConfirmed, "Confirmed", EmphasisInfo},
		{models.StatusPreparing, "Preparing", EmphasisWarning},
		{models.StatusOutForDelivery, "Out for Delivery", EmphasisInfo},
		{models.StatusDelivered, "Delivered", EmphasisSuccess},
		{models.StatusCancelled, "Cancelled", EmphasisDanger},
		{models.StatusRefunded, "Refunded", EmphasisNeutral},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			badge := StatusBadge(tt.status)
			assert.Equal(t, tt.label, badge.Label)
			assert.Equal(t, tt.emphasis, badge.Emphasis)
			assert.NotEmpty(t, badge.Icon)
		})
	}
}

func TestStatusBadgeUnknownFallsBack(t *testing.T) {
	badge := StatusBadge(models.OrderStatus("teleporting"))
	assert.Equal(t, "teleporting", badge.Label)
	assert.Equal(t, EmphasisNeutral, badge.Emphasis)
	assert.NotEmpty(t, badge.Icon)
}

func TestPaymentBadge(t *testing.T) {
	assert.Equal(t, EmphasisSuccess, PaymentBadge(models.PaymentVerified).Emphasis)
	assert.Equal(t, EmphasisDanger, PaymentBadge(models.PaymentRejected).Emphasis)
	assert.Equal(t, EmphasisWarning, PaymentBadge(models.PaymentPending).Emphasis)

	unknown := PaymentBadge(models.PaymentStatus("chargeback"))
	assert.Equal(t, "chargeback", unknown.Label)
	assert.Equal(t, EmphasisNeutral, unknown.Emphasis)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$19.99", FormatAmount(19.99))
	assert.Equal(t, "$0.00", FormatAmount(0))
	assert.Equal(t, "$1234.50", FormatAmount(1234.5))
}
