package application

import (
	"context"

	"github.com/mesero-labs/mesero/internal/catalog"
	"github.com/mesero-labs/mesero/internal/classify"
	conversation "github.com/mesero-labs/mesero/internal/conversation/domain"
	customer "github.com/mesero-labs/mesero/internal/customer/domain"
	"github.com/mesero-labs/mesero/internal/geo"
	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	orderapp "github.com/mesero-labs/mesero/internal/order/application"
	order "github.com/mesero-labs/mesero/internal/order/domain"
	"github.com/mesero-labs/mesero/internal/payment"
)

// Ports consumed by the dialogue layer. Implementations live in the sibling
// contexts; tests substitute fakes.

type Guard interface {
	SeenOrRecord(ctx context.Context, messageID string) (bool, error)
}

type Customers interface {
	GetOrCreate(ctx context.Context, restaurantID int64, channelAddress, displayName string) (*customer.Customer, error)
	Get(ctx context.Context, customerID int64) (*customer.Customer, error)
	SetAddress(ctx context.Context, customerID int64, addressText string, lat, lng float64) error
	AssignSite(ctx context.Context, customerID, siteID int64) error
	SetProfile(ctx context.Context, customerID int64, displayName, taxID, documentID string) error
}

type Transcript interface {
	Append(ctx context.Context, customerID int64, role conversation.Role, text string) error
	Window(ctx context.Context, customerID int64, n int) ([]conversation.Entry, error)
}

type Intentions interface {
	Get(ctx context.Context, customerID int64) (*intention.PendingIntention, error)
	Put(ctx context.Context, p intention.PendingIntention) error
	Delete(ctx context.Context, customerID int64) error
}

type Orders interface {
	Draft(ctx context.Context, customerID int64, req order.ChangeRequest) (*order.Order, error)
	Mutate(ctx context.Context, customerID int64, req order.ChangeRequest) (*order.Order, error)
	Confirm(ctx context.Context, customerID int64, code string) (*order.Order, error)
	RecentPending(ctx context.Context, customerID int64) (*order.Order, error)
	GetByCode(ctx context.Context, customerID int64, code string) (*order.Order, error)
	SetDelivery(ctx context.Context, orderID int64, m order.DeliveryMethod) error
	SetPaymentMethod(ctx context.Context, orderID int64, m order.PaymentMethod) error
	SetDeliveryQuote(ctx context.Context, orderID int64, feeCents int64, etaMinutes int, distanceKM float64) error
	SetPaymentRef(ctx context.Context, orderID int64, externalID string) error
	MarkPaid(ctx context.Context, orderID int64) error
}

type Classifier interface {
	Classify(ctx context.Context, window []classify.Turn) (classify.Classification, error)
	MapOrder(ctx context.Context, orderText string, menu []catalog.MenuItem) (order.ChangeRequest, error)
}

type Outbound interface {
	SendText(ctx context.Context, channelAddress, text string) error
	SendMedia(ctx context.Context, channelAddress, url string) error
}

type Geo interface {
	Geocode(ctx context.Context, addressText string) (geo.Point, error)
	DistanceQuote(ctx context.Context, origin, dest geo.Point) (geo.Quote, error)
}

type Payments interface {
	CreateLink(ctx context.Context, amountCents int64, reference string) (*payment.Link, error)
	CheckStatus(ctx context.Context, externalID string) (payment.Status, error)
}

type Catalog interface {
	Menu(ctx context.Context, restaurantID int64) ([]catalog.MenuItem, error)
	Sites(ctx context.Context, restaurantID int64) ([]catalog.Site, error)
}

// compile-time check that the order service satisfies the port
var _ Orders = (*orderapp.Service)(nil)
