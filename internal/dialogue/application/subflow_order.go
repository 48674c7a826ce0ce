package application

import (
	"context"
	"errors"
	"fmt"

	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	order "github.com/mesero-labs/mesero/internal/order/domain"
)

// OrderRequest starts a new draft order from a free-form item description.
// The dispatcher has already ruled out an existing open draft.
func (f *Flows) OrderRequest(ctx context.Context, t *Turn) (*Continuation, error) {
	menu, err := f.catalog.Menu(ctx, f.cfg.RestaurantID)
	if err != nil {
		return nil, err
	}

	req, err := f.classifier.MapOrder(ctx, t.Message, menu)
	if err != nil {
		f.log.Error("order mapping failed", "customer_id", t.Customer.ID, "message", t.Message, "err", err)
		f.say(ctx, t.Customer, msgClarifyOrder)
		return nil, nil
	}
	if req.Intent == order.ChangeClarification || !req.OrderComplete || len(req.MatchedItems()) == 0 {
		f.say(ctx, t.Customer, msgClarifyOrder)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepAwaitOrder,
			Notes:               t.Message,
			LastAgentMessage:    msgClarifyOrder,
			LastCustomerMessage: t.Message,
		})
	}

	o, err := f.orders.Draft(ctx, t.Customer.ID, req)
	if err != nil {
		return nil, err
	}

	reply := fmt.Sprintf(msgOrderSummary, o.Code, orderLinesSummary(o), money(o.ItemsSubtotal))
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepConfirmOrder,
		ReferenceCode:       o.Code,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

// OrderModification reconciles a change request against the open draft.
func (f *Flows) OrderModification(ctx context.Context, t *Turn) (*Continuation, error) {
	menu, err := f.catalog.Menu(ctx, f.cfg.RestaurantID)
	if err != nil {
		return nil, err
	}

	req, err := f.classifier.MapOrder(ctx, t.Message, menu)
	if err != nil {
		f.log.Error("order mapping failed", "customer_id", t.Customer.ID, "message", t.Message, "err", err)
		f.say(ctx, t.Customer, msgClarifyOrder)
		return nil, nil
	}
	if req.Intent == order.ChangeClarification || len(req.MatchedItems()) == 0 {
		f.say(ctx, t.Customer, msgClarifyOrder)
		return nil, nil
	}

	o, err := f.orders.Mutate(ctx, t.Customer.ID, req)
	switch {
	case errors.Is(err, order.ErrNoMatchingOrder):
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	case errors.Is(err, order.ErrReplaceIncomplete):
		f.log.Error("replace request missing one side",
			"customer_id", t.Customer.ID, "message", t.Message)
		f.say(ctx, t.Customer, msgClarifyOrder)
		return nil, nil
	case err != nil:
		return nil, err
	}

	reply := fmt.Sprintf(msgOrderUpdated, o.Code, orderLinesSummary(o), money(o.ItemsSubtotal))
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepConfirmOrder,
		ReferenceCode:       o.Code,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

// ConfirmOrder finalizes the draft the pending intention points at.
func (f *Flows) ConfirmOrder(ctx context.Context, t *Turn) (*Continuation, error) {
	code := ""
	if p, err := f.intentions.Get(ctx, t.Customer.ID); err != nil {
		return nil, err
	} else if p != nil {
		code = p.ReferenceCode
	}
	if code == "" {
		o, err := f.orders.RecentPending(ctx, t.Customer.ID)
		if err != nil {
			return nil, err
		}
		if o == nil {
			f.say(ctx, t.Customer, msgNoOpenOrder)
			return nil, nil
		}
		code = o.Code
	}

	o, err := f.orders.Confirm(ctx, t.Customer.ID, code)
	if errors.Is(err, order.ErrNoMatchingOrder) {
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reply := fmt.Sprintf(msgOrderConfirmed, o.Code)
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepDelivery,
		ReferenceCode:       o.Code,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

// GeneralConfirmation triages an ambiguous "yes" by the owed next step and
// re-dispatches in the same turn.
func (f *Flows) GeneralConfirmation(ctx context.Context, t *Turn) (*Continuation, error) {
	p, err := f.intentions.Get(ctx, t.Customer.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		f.say(ctx, t.Customer, msgDidNotUnderstand)
		return nil, nil
	}
	next, ok := stepIntent[p.NextStep]
	if !ok {
		f.say(ctx, t.Customer, msgDidNotUnderstand)
		return nil, nil
	}
	return &Continuation{Next: next}, nil
}

// Fallback serves unclassifiable messages: if a subflow is owed the next
// message, hand it over; otherwise admit defeat.
func (f *Flows) Fallback(ctx context.Context, t *Turn) (*Continuation, error) {
	p, err := f.intentions.Get(ctx, t.Customer.ID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		if next, ok := stepIntent[p.NextStep]; ok && next != t.Intent {
			return &Continuation{Next: next}, nil
		}
	}
	f.say(ctx, t.Customer, msgDidNotUnderstand)
	return nil, nil
}
