package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dialogue "github.com/mesero-labs/mesero/internal/dialogue/domain"
	"github.com/mesero-labs/mesero/internal/geo"
	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	order "github.com/mesero-labs/mesero/internal/order/domain"
)

// draftAndConfirm walks a customer to the point where delivery is the owed
// step, the starting state for the logistics subflows.
func draftAndConfirm(t *testing.T, h *harness) {
	t.Helper()
	c := h.customer()
	h.classifier.mapResult = addRequest(10, "Sierra Clasica", 14500, 2)
	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentOrderRequest, Message: "2 sierra clasica",
	}))
	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentConfirmOrder, Message: "confirmo",
	}))
}

func TestDeliveryMethodPickupListsSites(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentDeliveryMethod, Message: "lo recojo en tienda",
	}))

	assert.Contains(t, h.outbound.last(), "Centro")
	assert.Contains(t, h.outbound.last(), "Norte")
	assert.Equal(t, intention.StepPickupSite, h.intentions.byCustomer[c.ID].NextStep)
}

func TestDeliveryMethodDeliveryAsksAddress(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentDeliveryMethod, Message: "a domicilio por favor",
	}))

	assert.Equal(t, msgAskAddress, h.outbound.last())
	assert.Equal(t, intention.StepAwaitAddress, h.intentions.byCustomer[c.ID].NextStep)
}

func TestDeliveryMethodAmbiguousReasks(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentDeliveryMethod, Message: "mmm no se",
	}))

	assert.Equal(t, msgAskMethod, h.outbound.last())
	assert.Equal(t, intention.StepDelivery, h.intentions.byCustomer[c.ID].NextStep)
}

func TestDeliveryAddressQuotesAndMovesToPayment(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	h.geo.point = geo.Point{Lat: 19.44, Lng: -99.14}
	h.geo.quote = geo.Quote{FeeCents: 4500, ETAMinutes: 35, DistanceKM: 4.2}

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentDeliveryAddress, Message: "Calle Roble 42, Col. Centro",
	}))

	assert.Equal(t, "Calle Roble 42, Col. Centro", c.AddressText)
	o, _ := h.orders.GetByCode(context.Background(), c.ID, "P-00001")
	assert.Equal(t, order.DeliveryToDoor, o.Delivery)
	assert.Equal(t, int64(4500), o.DeliveryFee)
	assert.Equal(t, 35, o.ETAMinutes)
	assert.Equal(t, int64(33500), o.FinalTotal)
	assert.Equal(t, intention.StepPayment, h.intentions.byCustomer[c.ID].NextStep)
}

func TestDeliveryAddressGeocodeFailureReasks(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	h.geo.geocodeErr = errors.New("no result")

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentDeliveryAddress, Message: "por ahi cerca",
	}))

	assert.Equal(t, msgAddressFailed, h.outbound.last())
	assert.Equal(t, intention.StepAwaitAddress, h.intentions.byCustomer[c.ID].NextStep)
	assert.Empty(t, c.AddressText)
}

func TestConfirmAddressReusesStoredAddress(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	require.NoError(t, h.customers.SetAddress(context.Background(), c.ID, "Calle Roble 42", 19.44, -99.14))
	h.geo.quote = geo.Quote{FeeCents: 3000, ETAMinutes: 25, DistanceKM: 2.8}

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentConfirmAddress, Message: "a la misma de siempre",
	}))

	o, _ := h.orders.GetByCode(context.Background(), c.ID, "P-00001")
	assert.Equal(t, int64(3000), o.DeliveryFee)
	assert.Equal(t, intention.StepPayment, h.intentions.byCustomer[c.ID].NextStep)
}

func TestConfirmAddressWithoutAddressOnFileAsks(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentConfirmAddress, Message: "a mi casa",
	}))

	assert.Equal(t, msgAskAddress, h.outbound.last())
	assert.Equal(t, intention.StepAwaitAddress, h.intentions.byCustomer[c.ID].NextStep)
}

func TestPickupSiteUnknownAnswerRelists(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	require.NoError(t, h.intentions.Put(context.Background(), intention.PendingIntention{
		CustomerID: c.ID, NextStep: intention.StepPickupSite, ReferenceCode: "P-00001",
	}))

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPickupSite, Message: "la del estadio",
	}))

	assert.Contains(t, h.outbound.last(), "Centro")
	assert.Nil(t, c.SiteID)
	// The slot still owes site selection so the next answer lands here again.
	assert.Equal(t, intention.StepPickupSite, h.intentions.byCustomer[c.ID].NextStep)
}

func TestPickupTimeMovesToPayment(t *testing.T) {
	h := newHarness()
	draftAndConfirm(t, h)
	c := h.customer()
	require.NoError(t, h.intentions.Put(context.Background(), intention.PendingIntention{
		CustomerID: c.ID, NextStep: intention.StepPickupTime, ReferenceCode: "P-00001",
	}))

	require.NoError(t, h.dispatcher.Run(context.Background(), Turn{
		Customer: c, Intent: dialogue.IntentPickupTime, Message: "paso a las 3",
	}))

	p := h.intentions.byCustomer[c.ID]
	assert.Equal(t, intention.StepPayment, p.NextStep)
	assert.Equal(t, "paso a las 3", p.Notes)
}
