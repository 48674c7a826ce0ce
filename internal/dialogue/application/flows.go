package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	conversation "github.com/mesero-labs/mesero/internal/conversation/domain"
	customer "github.com/mesero-labs/mesero/internal/customer/domain"
	dialogue "github.com/mesero-labs/mesero/internal/dialogue/domain"
	order "github.com/mesero-labs/mesero/internal/order/domain"
)

// Promotion is one entry of the configured promotion list, offered by the
// promotions subflow and carried in the pending-intention payload.
type Promotion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Config struct {
	RestaurantID    int64
	RestaurantName  string
	MenuURL         string
	OpeningHours    string
	OperatorAddress string
	Promotions      []Promotion
}

// Flows holds every subflow handler. Each handler is a pure orchestration of
// the ports: read state, mutate the order, write the next pending intention,
// send replies. The last subflow to run in a turn owns the intention slot.
type Flows struct {
	log        *slog.Logger
	cfg        Config
	customers  Customers
	transcript Transcript
	intentions Intentions
	orders     Orders
	classifier Classifier
	outbound   Outbound
	geo        Geo
	payments   Payments
	catalog    Catalog
}

func NewFlows(log *slog.Logger, cfg Config, customers Customers, transcript Transcript,
	intentions Intentions, orders Orders, classifier Classifier, outbound Outbound,
	geoc Geo, payments Payments, cat Catalog) *Flows {
	return &Flows{
		log:        log,
		cfg:        cfg,
		customers:  customers,
		transcript: transcript,
		intentions: intentions,
		orders:     orders,
		classifier: classifier,
		outbound:   outbound,
		geo:        geoc,
		payments:   payments,
		catalog:    cat,
	}
}

// Turn is the state threaded through one dispatch iteration.
type Turn struct {
	Customer *customer.Customer
	Intent   dialogue.Intent
	Entities map[string]string
	Message  string
}

// Continuation asks the dialogue loop to re-dispatch immediately, in the same
// turn, with a synthetic message.
type Continuation struct {
	Next    dialogue.Intent
	Message string
}

// say sends a reply and appends it to the transcript. Send failures are
// logged, never propagated: the outbound channel is fire-and-forget.
func (f *Flows) say(ctx context.Context, c *customer.Customer, text string) {
	if err := f.outbound.SendText(ctx, c.ChannelAddress, text); err != nil {
		f.log.Error("outbound send failed", "customer_id", c.ID, "err", err)
	}
	if err := f.transcript.Append(ctx, c.ID, conversation.RoleAgent, text); err != nil {
		f.log.Error("transcript append failed", "customer_id", c.ID, "err", err)
	}
}

func (f *Flows) sendMedia(ctx context.Context, c *customer.Customer, url string) {
	if err := f.outbound.SendMedia(ctx, c.ChannelAddress, url); err != nil {
		f.log.Error("outbound media send failed", "customer_id", c.ID, "err", err)
	}
}

func money(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func orderLinesSummary(o *order.Order) string {
	var b strings.Builder
	for i, l := range o.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d x %s - %s", l.Quantity, l.Name, money(l.Total))
		if l.Specification != "" {
			fmt.Fprintf(&b, " (%s)", l.Specification)
		}
	}
	return b.String()
}
