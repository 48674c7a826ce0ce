package application

import (
	"context"
	"log/slog"

	dialogue "github.com/mesero-labs/mesero/internal/dialogue/domain"
	intention "github.com/mesero-labs/mesero/internal/intention/domain"
)

// maxHops caps chained in-turn dispatches. A handler that keeps asking for
// another hop is a bug; the loop exits and logs instead of spinning.
const maxHops = 5

type handlerFunc func(ctx context.Context, t *Turn) (*Continuation, error)

// Dispatcher runs one inbound message through one or more subflows until a
// handler signals no continuation.
type Dispatcher struct {
	log      *slog.Logger
	flows    *Flows
	handlers map[dialogue.Intent]handlerFunc
}

func NewDispatcher(log *slog.Logger, f *Flows) *Dispatcher {
	d := &Dispatcher{log: log, flows: f}
	d.handlers = map[dialogue.Intent]handlerFunc{
		dialogue.IntentGreeting:              f.Greeting,
		dialogue.IntentRegistration:          f.Registration,
		dialogue.IntentOrderRequest:          f.OrderRequest,
		dialogue.IntentOrderModification:     f.OrderModification,
		dialogue.IntentConfirmOrder:          f.ConfirmOrder,
		dialogue.IntentGeneralConfirmation:   f.GeneralConfirmation,
		dialogue.IntentDeliveryAddress:       f.DeliveryAddress,
		dialogue.IntentConfirmAddress:        f.ConfirmAddress,
		dialogue.IntentDeliveryMethod:        f.DeliveryMethod,
		dialogue.IntentPickupSite:            f.PickupSite,
		dialogue.IntentPickupTime:            f.PickupTime,
		dialogue.IntentPaymentMethod:         f.PaymentMethod,
		dialogue.IntentPaymentVerification:   f.PaymentVerification,
		dialogue.IntentPromotions:            f.Promotions,
		dialogue.IntentPromotionContinuation: f.PromotionContinuation,
		dialogue.IntentMenuQuery:             f.MenuQuery,
		dialogue.IntentGeneralQuestion:       f.GeneralQuestion,
		dialogue.IntentOpeningHours:          f.OpeningHours,
		dialogue.IntentLocationQuery:         f.LocationQuery,
		dialogue.IntentComplaintMinor:        f.ComplaintMinor,
		dialogue.IntentComplaintMajor:        f.ComplaintMajor,
		dialogue.IntentHumanHandoff:          f.ComplaintMajor,
		dialogue.IntentThanks:                f.Thanks,
		dialogue.IntentFarewell:              f.Farewell,
		dialogue.IntentUnclassifiable:        f.Fallback,
	}
	return d
}

func (d *Dispatcher) Run(ctx context.Context, t Turn) error {
	for hop := 0; hop < maxHops; hop++ {
		intent := d.route(ctx, &t)
		d.log.Info("dispatch", "customer_id", t.Customer.ID, "intent", intent, "hop", hop)

		h, ok := d.handlers[intent]
		if !ok {
			h = d.flows.Fallback
		}
		cont, err := h(ctx, &t)
		if err != nil {
			return err
		}
		if cont == nil {
			return nil
		}
		t.Intent = cont.Next
		if cont.Message != "" {
			t.Message = cont.Message
		}
	}
	d.log.Error("dispatch cap reached, dropping turn",
		"customer_id", t.Customer.ID, "intent", t.Intent, "message", t.Message)
	return nil
}

// route applies the state-dependent precedence rules before a handler is
// picked. The classifier cannot tell a site name from an address, and a
// customer with an open draft must never get a second one; conversation
// state, not message content, disambiguates.
func (d *Dispatcher) route(ctx context.Context, t *Turn) dialogue.Intent {
	switch t.Intent {
	case dialogue.IntentOrderRequest, dialogue.IntentPromotionContinuation:
		o, err := d.flows.orders.RecentPending(ctx, t.Customer.ID)
		if err != nil {
			d.log.Error("pending order lookup failed", "customer_id", t.Customer.ID, "err", err)
			return t.Intent
		}
		if o != nil {
			return dialogue.IntentOrderModification
		}
	case dialogue.IntentMenuQuery, dialogue.IntentDeliveryAddress:
		p, err := d.flows.intentions.Get(ctx, t.Customer.ID)
		if err != nil {
			d.log.Error("pending intention lookup failed", "customer_id", t.Customer.ID, "err", err)
			return t.Intent
		}
		if p != nil && p.NextStep == intention.StepPickupSite {
			return dialogue.IntentPickupSite
		}
	}
	return t.Intent
}

// stepIntent maps an owed next step onto the subflow that serves it, used
// when the next inbound message cannot be classified on its own.
var stepIntent = map[intention.NextStep]dialogue.Intent{
	intention.StepConfirmOrder: dialogue.IntentConfirmOrder,
	intention.StepAwaitOrder:   dialogue.IntentOrderRequest,
	intention.StepAwaitAddress: dialogue.IntentDeliveryAddress,
	intention.StepPickupSite:   dialogue.IntentPickupSite,
	intention.StepPickupTime:   dialogue.IntentPickupTime,
	intention.StepDelivery:     dialogue.IntentDeliveryMethod,
	intention.StepPayment:      dialogue.IntentPaymentMethod,
	intention.StepAwaitPayment: dialogue.IntentPaymentVerification,
	intention.StepPromotion:    dialogue.IntentPromotionContinuation,
	intention.StepRegistration: dialogue.IntentRegistration,
}
