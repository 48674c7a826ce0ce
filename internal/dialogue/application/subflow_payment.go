package application

import (
	"context"
	"fmt"
	"strings"

	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	order "github.com/mesero-labs/mesero/internal/order/domain"
	"github.com/mesero-labs/mesero/internal/payment"
)

// PaymentMethod records how the customer pays. An unrecognized method is
// escalated to a human operator, never guessed.
func (f *Flows) PaymentMethod(ctx context.Context, t *Turn) (*Continuation, error) {
	o, err := f.resolveOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if o == nil {
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	}

	method := parsePaymentMethod(t.Entities["payment_method"], t.Message)
	switch method {
	case order.PaymentCash, order.PaymentCard:
		if err := f.orders.SetPaymentMethod(ctx, o.ID, method); err != nil {
			return nil, err
		}
		reply := fmt.Sprintf(msgPaymentCash, money(o.FinalTotal), o.Code)
		if method == order.PaymentCard {
			reply = fmt.Sprintf(msgPaymentCard, money(o.FinalTotal), o.Code)
		}
		f.say(ctx, t.Customer, reply)
		// Conversation resolved: nothing is owed on the next turn.
		return nil, f.intentions.Delete(ctx, t.Customer.ID)

	case order.PaymentLink:
		if err := f.orders.SetPaymentMethod(ctx, o.ID, method); err != nil {
			return nil, err
		}
		link, err := f.payments.CreateLink(ctx, o.FinalTotal, o.Code)
		if err != nil || link == nil {
			f.log.Error("payment link creation failed", "customer_id", t.Customer.ID, "code", o.Code, "err", err)
			f.say(ctx, t.Customer, msgPaymentUnknown)
			f.notifyOperator(ctx, t, "payment link failure")
			return nil, nil
		}
		if err := f.orders.SetPaymentRef(ctx, o.ID, link.ExternalID); err != nil {
			return nil, err
		}
		reply := fmt.Sprintf(msgPaymentLink, money(o.FinalTotal), link.URL)
		f.say(ctx, t.Customer, reply)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepAwaitPayment,
			ReferenceCode:       o.Code,
			Notes:               link.ExternalID,
			LastAgentMessage:    reply,
			LastCustomerMessage: t.Message,
		})

	default:
		f.log.Warn("unknown payment method, escalating",
			"customer_id", t.Customer.ID, "code", o.Code, "message", t.Message)
		f.say(ctx, t.Customer, msgPaymentUnknown)
		f.notifyOperator(ctx, t, "unknown payment method: "+t.Message)
		return nil, nil
	}
}

// PaymentVerification polls the gateway for the link the customer says they
// paid.
func (f *Flows) PaymentVerification(ctx context.Context, t *Turn) (*Continuation, error) {
	o, err := f.resolveOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if o == nil || o.PaymentRef == "" {
		f.say(ctx, t.Customer, msgPaymentNoLink)
		return nil, nil
	}

	status, err := f.payments.CheckStatus(ctx, o.PaymentRef)
	if err != nil {
		f.log.Error("payment status check failed",
			"customer_id", t.Customer.ID, "code", o.Code, "external_id", o.PaymentRef, "err", err)
		f.say(ctx, t.Customer, msgPaymentPending)
		return nil, nil
	}

	switch status {
	case payment.StatusApproved:
		if err := f.orders.MarkPaid(ctx, o.ID); err != nil {
			return nil, err
		}
		f.say(ctx, t.Customer, fmt.Sprintf(msgPaymentApproved, o.Code))
		return nil, f.intentions.Delete(ctx, t.Customer.ID)
	case payment.StatusRejected:
		f.say(ctx, t.Customer, msgPaymentRejected)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepPayment,
			ReferenceCode:       o.Code,
			LastAgentMessage:    msgPaymentRejected,
			LastCustomerMessage: t.Message,
		})
	default:
		f.say(ctx, t.Customer, msgPaymentPending)
		return nil, nil
	}
}

func (f *Flows) notifyOperator(ctx context.Context, t *Turn, reason string) {
	if f.cfg.OperatorAddress == "" {
		return
	}
	note := fmt.Sprintf("Atención requerida - cliente %s (%s): %s",
		t.Customer.DisplayName, t.Customer.ChannelAddress, reason)
	if err := f.outbound.SendText(ctx, f.cfg.OperatorAddress, note); err != nil {
		f.log.Error("operator notification failed", "customer_id", t.Customer.ID, "err", err)
	}
}

func parsePaymentMethod(entity, message string) order.PaymentMethod {
	s := strings.ToLower(entity)
	if s == "" {
		s = strings.ToLower(message)
	}
	switch {
	case strings.Contains(s, "efectivo") || strings.Contains(s, "cash"):
		return order.PaymentCash
	case strings.Contains(s, "tarjeta") || strings.Contains(s, "card"):
		return order.PaymentCard
	case strings.Contains(s, "link") || strings.Contains(s, "transferencia") || strings.Contains(s, "liga"):
		return order.PaymentLink
	default:
		return order.PaymentUnset
	}
}
