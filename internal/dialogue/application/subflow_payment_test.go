package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dialogue "github.com/mesero-labs/mesero/internal/dialogue/domain"
	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	order "github.com/mesero-labs/mesero/internal/order/domain"
	"github.com/mesero-labs/mesero/internal/payment"
)

func TestPaymentMethodCashClosesConversation(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentMethod, Message: "en efectivo",
	}))

	o, _ := h.orders.GetByCode(context.Background(), c.ID, "P-00001")
	assert.Equal(t, order.PaymentCash, o.Payment)
	assert.Nil(t, h.intentions.byCustomer[c.ID])
	assert.Contains(t, h.outbound.last(), "efectivo")
}

func TestPaymentMethodLinkSendsLinkAndAwaitsPayment(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	h.payments.link = &payment.Link{URL: "https://pay.example.com/abc", ExternalID: "ext-123"}

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentMethod, Message: "mandame el link",
	}))

	o, _ := h.orders.GetByCode(context.Background(), c.ID, "P-00001")
	assert.Equal(t, order.PaymentLink, o.Payment)
	assert.Equal(t, "ext-123", o.PaymentRef)

	p := h.intentions.byCustomer[c.ID]
	require.NotNil(t, p)
	assert.Equal(t, intention.StepAwaitPayment, p.NextStep)
	assert.Equal(t, "ext-123", p.Notes)
	assert.Contains(t, h.outbound.last(), "https://pay.example.com/abc")
}

func TestPaymentMethodUnknownEscalatesToOperator(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentMethod, Message: "con cheques de viajero",
	}))

	require.Len(t, h.outbound.texts, 4)
	assert.Equal(t, msgPaymentUnknown, h.outbound.texts[2].text)
	assert.Equal(t, "operator", h.outbound.texts[3].to)
	assert.Contains(t, h.outbound.texts[3].text, "Atención requerida - cliente")
}

func TestPaymentMethodLinkCreationFailureEscalates(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	h.payments.createErr = errors.New("gateway down")

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentMethod, Message: "por transferencia",
	}))

	last := h.outbound.texts[len(h.outbound.texts)-1]
	assert.Equal(t, "operator", last.to)
}

func TestPaymentVerificationApprovedMarksPaid(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	h.payments.link = &payment.Link{URL: "https://pay.example.com/abc", ExternalID: "ext-123"}
	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentMethod, Message: "link de pago",
	}))

	h.payments.status = payment.StatusApproved
	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentVerification, Message: "ya pague",
	}))

	o, _ := h.orders.GetByCode(context.Background(), c.ID, "P-00001")
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Nil(t, h.intentions.byCustomer[c.ID])
	assert.Contains(t, h.outbound.last(), "P-00001")
}

func TestPaymentVerificationRejectedOffersRetry(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	h.payments.link = &payment.Link{URL: "https://pay.example.com/abc", ExternalID: "ext-123"}
	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentMethod, Message: "link de pago",
	}))

	h.payments.status = payment.StatusRejected
	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentVerification, Message: "ya pague",
	}))

	assert.Equal(t, msgPaymentRejected, h.outbound.last())
	assert.Equal(t, intention.StepPayment, h.intentions.byCustomer[c.ID].NextStep)
}

func TestPaymentVerificationWithoutLinkReports(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPaymentVerification, Message: "ya pague",
	}))
	assert.Equal(t, msgPaymentNoLink, h.outbound.last())
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		entity  string
		message string
		want    order.PaymentMethod
	}{
		{"cash", "", order.PaymentCash},
		{"", "pago en efectivo", order.PaymentCash},
		{"", "con tarjeta porfa", order.PaymentCard},
		{"card", "lo que sea", order.PaymentCard},
		{"", "mandame la liga", order.PaymentLink},
		{"", "por transferencia", order.PaymentLink},
		{"", "no se", order.PaymentUnset},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePaymentMethod(tt.entity, tt.message), "entity=%q message=%q", tt.entity, tt.message)
	}
}
