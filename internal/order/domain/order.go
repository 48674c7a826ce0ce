package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCanceled  OrderStatus = "canceled"
	StatusDelivered OrderStatus = "delivered"
)

type DeliveryMethod string

const (
	DeliveryUnset  DeliveryMethod = ""
	DeliveryPickup DeliveryMethod = "pickup"
	DeliveryToDoor DeliveryMethod = "delivery"
)

type PaymentMethod string

const (
	PaymentUnset    PaymentMethod = ""
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentLink     PaymentMethod = "link"
	PaymentTransfer PaymentMethod = "transfer"
)

// PendingWindow bounds the "recent pending order" lookup. Anything older is
// treated as abandoned and a new draft supersedes it.
const PendingWindow = time.Hour

type Order struct {
	ID            int64
	CustomerID    int64
	Code          string
	Status        OrderStatus
	IsTemporary   bool
	ItemsSubtotal int64 // cents
	DeliveryFee   int64 // cents
	FinalTotal    int64 // cents
	Delivery      DeliveryMethod
	Payment       PaymentMethod
	ETAMinutes    int
	DistanceKM    float64
	SiteID        *int64
	PaymentRef    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []Line
}

type Line struct {
	ID            int64
	OrderID       int64
	CatalogItemID int64
	Name          string
	Quantity      int
	UnitPrice     int64 // cents, only ever copied from the catalog match
	Total         int64 // cents, always UnitPrice * Quantity
	Specification string
}

// FormatCode renders a sequential order number as the human-readable code
// customers quote back, e.g. 1 -> "P-00001".
func FormatCode(seq int64) string {
	return fmt.Sprintf("P-%05d", seq)
}

// MergeSpecification appends extra to spec unless it is empty or already
// present, keeping the original order and capitalizing each fragment.
func MergeSpecification(spec, extra string) string {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return spec
	}
	extra = capitalize(extra)
	if spec == "" {
		return extra
	}
	for _, part := range strings.Split(spec, ", ") {
		if strings.EqualFold(part, extra) {
			return spec
		}
	}
	return spec + ", " + extra
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
