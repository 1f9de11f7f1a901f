package feed

import (
	"fmt"

	"github.com/example/shopfront/pkg/models"
)

// Emphasis selects the badge styling tier.
type Emphasis string

const (
	EmphasisNeutral Emphasis = "neutral"
	EmphasisInfo    Emphasis = "info"
	EmphasisWarning Emphasis = "warning"
	EmphasisSuccess Emphasis = "success"
	EmphasisDanger  Emphasis = "danger"
)

type Badge struct {
	Icon     string   `json:"icon"`
	Label    string   `json:"label"`
	Emphasis Emphasis `json:"emphasis"`
}

// StatusBadge maps an order status to its icon, label and emphasis.
// Unknown statuses get a neutral badge echoing the raw value.
func StatusBadge(status models.OrderStatus) Badge {
	switch status {
	case models.StatusPlaced:
		return Badge{Icon: "receipt-outline", Label: "Order Placed", Emphasis: EmphasisInfo}
	case models.StatusConfirmed:
		return Badge{Icon: "checkmark-circle-outline", Label: "Confirmed", Emphasis: EmphasisInfo}
	case models.StatusPreparing:
		return Badge{Icon: "cube-outline", Label: "Preparing", Emphasis: EmphasisWarning}
	case models.StatusOutForDelivery:
		return Badge{Icon: "bicycle-outline", Label: "Out for Delivery", Emphasis: EmphasisInfo}
	case models.StatusDelivered:
		return Badge{Icon: "checkmark-done-circle-outline", Label: "Delivered", Emphasis: EmphasisSuccess}
	case models.StatusCancelled:
		return Badge{Icon: "close-circle-outline", Label: "Cancelled", Emphasis: EmphasisDanger}
	case models.StatusRefunded:
		return Badge{Icon: "cash-outline", Label: "Refunded", Emphasis: EmphasisNeutral}
	default:
		return Badge{Icon: "help-circle-outline", Label: string(status), Emphasis: EmphasisNeutral}
	}
}

// PaymentBadge maps the payment verification state, which is independent
// of fulfillment status.
func PaymentBadge(status models.PaymentStatus) Badge {
	switch status {
	case models.PaymentVerified:
		return Badge{Icon: "shield-checkmark-outline", Label: "Payment Verified", Emphasis: EmphasisSuccess}
	case models.PaymentRejected:
		return Badge{Icon: "alert-circle-outline", Label: "Payment Rejected", Emphasis: EmphasisDanger}
	case models.PaymentPending:
		return Badge{Icon: "time-outline", Label: "Payment Pending", Emphasis: EmphasisWarning}
	default:
		return Badge{Icon: "help-circle-outline", Label: string(status), Emphasis: EmphasisNeutral}
	}
}

// FormatAmount renders a money amount for display.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
