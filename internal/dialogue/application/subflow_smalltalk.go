package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	intention "github.com/mesero-labs/mesero/internal/intention/domain"
)

func (f *Flows) Greeting(ctx context.Context, t *Turn) (*Continuation, error) {
	if !t.Customer.ProfileComplete && t.Customer.DisplayName == "" {
		f.say(ctx, t.Customer, msgAskName)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepRegistration,
			LastAgentMessage:    msgAskName,
			LastCustomerMessage: t.Message,
		})
	}
	name := ""
	if t.Customer.DisplayName != "" {
		name = " " + t.Customer.DisplayName
	}
	f.say(ctx, t.Customer, fmt.Sprintf(msgWelcome, name, f.cfg.RestaurantName))
	return nil, nil
}

// Registration captures the customer's name (and tax fields when present in
// the entities) and invites the order.
func (f *Flows) Registration(ctx context.Context, t *Turn) (*Continuation, error) {
	name := t.Entities["name"]
	if name == "" {
		name = strings.TrimSpace(t.Message)
	}
	if name == "" {
		f.say(ctx, t.Customer, msgAskName)
		return nil, nil
	}
	if err := f.customers.SetProfile(ctx, t.Customer.ID, name, t.Entities["tax_id"], t.Entities["document_id"]); err != nil {
		return nil, err
	}
	f.say(ctx, t.Customer, fmt.Sprintf(msgRegistered, name))
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepAwaitOrder,
		LastAgentMessage:    fmt.Sprintf(msgRegistered, name),
		LastCustomerMessage: t.Message,
	})
}

// MenuQuery sends the digital menu. The dispatcher reroutes this intent to
// site selection while that step is pending.
func (f *Flows) MenuQuery(ctx context.Context, t *Turn) (*Continuation, error) {
	f.sendMedia(ctx, t.Customer, f.cfg.MenuURL)
	f.say(ctx, t.Customer, msgMenuCaption)
	return nil, nil
}

// Promotions offers the configured promotion list and remembers it in the
// intention payload so the follow-up can be interpreted against it.
func (f *Flows) Promotions(ctx context.Context, t *Turn) (*Continuation, error) {
	if len(f.cfg.Promotions) == 0 {
		return f.MenuQuery(ctx, t)
	}
	var b strings.Builder
	for i, p := range f.cfg.Promotions {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %s: %s", p.Title, p.Description)
	}
	payload, err := json.Marshal(f.cfg.Promotions)
	if err != nil {
		return nil, err
	}
	reply := fmt.Sprintf(msgPromotions, b.String())
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepPromotion,
		Payload:             payload,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

// PromotionContinuation treats the reply to a promotion offer as an order
// description. The dispatcher has already redirected it to modification when
// a draft is open.
func (f *Flows) PromotionContinuation(ctx context.Context, t *Turn) (*Continuation, error) {
	return f.OrderRequest(ctx, t)
}

func (f *Flows) GeneralQuestion(ctx context.Context, t *Turn) (*Continuation, error) {
	f.say(ctx, t.Customer, fmt.Sprintf(msgHours, f.cfg.OpeningHours))
	return nil, nil
}

func (f *Flows) OpeningHours(ctx context.Context, t *Turn) (*Continuation, error) {
	f.say(ctx, t.Customer, fmt.Sprintf(msgHours, f.cfg.OpeningHours))
	return nil, nil
}

func (f *Flows) LocationQuery(ctx context.Context, t *Turn) (*Continuation, error) {
	sites, err := f.catalog.Sites(ctx, f.cfg.RestaurantID)
	if err != nil {
		return nil, err
	}
	f.say(ctx, t.Customer, siteList(sites))
	return nil, nil
}

func (f *Flows) ComplaintMinor(ctx context.Context, t *Turn) (*Continuation, error) {
	f.log.Warn("customer complaint", "customer_id", t.Customer.ID, "message", t.Message)
	f.say(ctx, t.Customer, msgComplaintMinor)
	return nil, nil
}

// ComplaintMajor escalates to a human operator; the agent steps aside.
func (f *Flows) ComplaintMajor(ctx context.Context, t *Turn) (*Continuation, error) {
	f.log.Error("escalation requested", "customer_id", t.Customer.ID, "message", t.Message)
	f.notifyOperator(ctx, t, t.Message)
	f.say(ctx, t.Customer, msgComplaintMajor)
	return nil, nil
}

func (f *Flows) Thanks(ctx context.Context, t *Turn) (*Continuation, error) {
	f.say(ctx, t.Customer, msgThanks)
	return nil, nil
}

func (f *Flows) Farewell(ctx context.Context, t *Turn) (*Continuation, error) {
	f.say(ctx, t.Customer, msgFarewell)
	return nil, nil
}
