package domain

import "time"

// Customer is keyed by the opaque channel address (phone-equivalent) plus the
// restaurant it talked to. Created on first inbound message, never deleted.
type Customer struct {
	ID              int64
	RestaurantID    int64
	ChannelAddress  string
	DisplayName     string
	AddressText     string
	Lat             *float64
	Lng             *float64
	SiteID          *int64
	FirstAddress    bool
	ProfileComplete bool
	TaxID           string
	DocumentID      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
