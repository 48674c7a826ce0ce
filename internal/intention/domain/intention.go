package domain

import "time"

// NextStep names the subflow that is owed the customer's next message. It is
// the tag of the single-slot continuation record: writing a new record
// replaces the previous expectation in full.
type NextStep string

const (
	StepConfirmOrder NextStep = "confirm-order"
	StepAwaitOrder   NextStep = "await-order"
	StepAwaitAddress NextStep = "await-address"
	StepPickupSite   NextStep = "pickup-site-selection"
	StepPickupTime   NextStep = "pickup-time"
	StepDelivery     NextStep = "delivery-method"
	StepPayment      NextStep = "payment-method"
	StepAwaitPayment NextStep = "await-payment"
	StepPromotion    NextStep = "promotion-continuation"
	StepRegistration NextStep = "registration"
)

// PendingIntention is the durable "what do we expect next" record, exactly
// one per customer. Notes is a free-form payload; Payload holds structured
// context such as an offered promotion list.
type PendingIntention struct {
	CustomerID          int64
	NextStep            NextStep
	ReferenceCode       string
	Notes               string
	LastAgentMessage    string
	LastCustomerMessage string
	Payload             []byte
	UpdatedAt           time.Time
}
