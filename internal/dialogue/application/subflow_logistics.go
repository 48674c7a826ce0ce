package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesero-labs/mesero/internal/catalog"
	"github.com/mesero-labs/mesero/internal/geo"
	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	order "github.com/mesero-labs/mesero/internal/order/domain"
)

// resolveOrder finds the order the conversation is about: the pending
// intention's reference first, the recent pending order as fallback.
func (f *Flows) resolveOrder(ctx context.Context, t *Turn) (*order.Order, error) {
	if p, err := f.intentions.Get(ctx, t.Customer.ID); err != nil {
		return nil, err
	} else if p != nil && p.ReferenceCode != "" {
		if o, err := f.orders.GetByCode(ctx, t.Customer.ID, p.ReferenceCode); err != nil || o != nil {
			return o, err
		}
	}
	return f.orders.RecentPending(ctx, t.Customer.ID)
}

// DeliveryMethod asks the customer whether the order is picked up or
// delivered and branches the conversation accordingly.
func (f *Flows) DeliveryMethod(ctx context.Context, t *Turn) (*Continuation, error) {
	method := t.Entities["method"]
	if method == "" {
		lower := strings.ToLower(t.Message)
		switch {
		case strings.Contains(lower, "recog") || strings.Contains(lower, "tienda") || strings.Contains(lower, "pickup"):
			method = "pickup"
		case strings.Contains(lower, "domicilio") || strings.Contains(lower, "entrega") || strings.Contains(lower, "delivery"):
			method = "delivery"
		}
	}

	o, err := f.resolveOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if o == nil {
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	}

	switch method {
	case "pickup":
		sites, err := f.catalog.Sites(ctx, f.cfg.RestaurantID)
		if err != nil {
			return nil, err
		}
		reply := fmt.Sprintf(msgListSites, siteList(sites))
		f.say(ctx, t.Customer, reply)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepPickupSite,
			ReferenceCode:       o.Code,
			LastAgentMessage:    reply,
			LastCustomerMessage: t.Message,
		})
	case "delivery":
		f.say(ctx, t.Customer, msgAskAddress)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepAwaitAddress,
			ReferenceCode:       o.Code,
			LastAgentMessage:    msgAskAddress,
			LastCustomerMessage: t.Message,
		})
	default:
		f.say(ctx, t.Customer, msgAskMethod)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepDelivery,
			ReferenceCode:       o.Code,
			LastAgentMessage:    msgAskMethod,
			LastCustomerMessage: t.Message,
		})
	}
}

// DeliveryAddress geocodes the customer's free-text address, stores it, and
// quotes fee and ETA against the order.
func (f *Flows) DeliveryAddress(ctx context.Context, t *Turn) (*Continuation, error) {
	pt, err := f.geo.Geocode(ctx, t.Message)
	if err != nil {
		f.log.Warn("geocode failed", "customer_id", t.Customer.ID, "address", t.Message, "err", err)
		f.say(ctx, t.Customer, msgAddressFailed)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepAwaitAddress,
			LastAgentMessage:    msgAddressFailed,
			LastCustomerMessage: t.Message,
		})
	}
	if err := f.customers.SetAddress(ctx, t.Customer.ID, t.Message, pt.Lat, pt.Lng); err != nil {
		return nil, err
	}
	return f.quoteDelivery(ctx, t, pt, t.Message)
}

// ConfirmAddress reuses the address already on file.
func (f *Flows) ConfirmAddress(ctx context.Context, t *Turn) (*Continuation, error) {
	c, err := f.customers.Get(ctx, t.Customer.ID)
	if err != nil {
		return nil, err
	}
	if c.AddressText == "" || c.Lat == nil || c.Lng == nil {
		f.say(ctx, t.Customer, msgAskAddress)
		return nil, f.intentions.Put(ctx, intention.PendingIntention{
			CustomerID:          t.Customer.ID,
			NextStep:            intention.StepAwaitAddress,
			LastAgentMessage:    msgAskAddress,
			LastCustomerMessage: t.Message,
		})
	}
	return f.quoteDelivery(ctx, t, geo.Point{Lat: *c.Lat, Lng: *c.Lng}, c.AddressText)
}

func (f *Flows) quoteDelivery(ctx context.Context, t *Turn, dest geo.Point, addressText string) (*Continuation, error) {
	o, err := f.resolveOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if o == nil {
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	}

	origin, err := f.originPoint(ctx, t)
	if err != nil {
		return nil, err
	}
	quote, err := f.geo.DistanceQuote(ctx, origin, dest)
	if err != nil {
		f.log.Error("distance quote failed", "customer_id", t.Customer.ID, "err", err)
		f.say(ctx, t.Customer, msgAddressFailed)
		return nil, nil
	}

	if err := f.orders.SetDelivery(ctx, o.ID, order.DeliveryToDoor); err != nil {
		return nil, err
	}
	if err := f.orders.SetDeliveryQuote(ctx, o.ID, quote.FeeCents, quote.ETAMinutes, quote.DistanceKM); err != nil {
		return nil, err
	}

	total := o.ItemsSubtotal + quote.FeeCents
	reply := fmt.Sprintf(msgDeliveryQuoted, addressText, quote.ETAMinutes, money(quote.FeeCents), money(total))
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepPayment,
		ReferenceCode:       o.Code,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

// originPoint is the dispatching site: the customer's assigned site when one
// exists, the first site otherwise.
func (f *Flows) originPoint(ctx context.Context, t *Turn) (geo.Point, error) {
	sites, err := f.catalog.Sites(ctx, f.cfg.RestaurantID)
	if err != nil {
		return geo.Point{}, err
	}
	if len(sites) == 0 {
		return geo.Point{}, fmt.Errorf("no sites configured for restaurant %d", f.cfg.RestaurantID)
	}
	if t.Customer.SiteID != nil {
		for _, s := range sites {
			if s.ID == *t.Customer.SiteID {
				return geo.Point{Lat: s.Lat, Lng: s.Lng}, nil
			}
		}
	}
	return geo.Point{Lat: sites[0].Lat, Lng: sites[0].Lng}, nil
}

// PickupSite resolves the customer's answer to one of the restaurant's
// branches. The dispatcher routes address-shaped and menu-shaped answers here
// while this step is pending.
func (f *Flows) PickupSite(ctx context.Context, t *Turn) (*Continuation, error) {
	sites, err := f.catalog.Sites(ctx, f.cfg.RestaurantID)
	if err != nil {
		return nil, err
	}
	site := catalog.MatchSite(sites, t.Message)
	if site == nil {
		reply := fmt.Sprintf(msgSiteUnknown, siteList(sites))
		f.say(ctx, t.Customer, reply)
		return nil, nil
	}

	if err := f.customers.AssignSite(ctx, t.Customer.ID, site.ID); err != nil {
		return nil, err
	}
	o, err := f.resolveOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if o == nil {
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	}
	if err := f.orders.SetDelivery(ctx, o.ID, order.DeliveryPickup); err != nil {
		return nil, err
	}

	reply := fmt.Sprintf(msgAskPickupTime, site.Name)
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepPickupTime,
		ReferenceCode:       o.Code,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

// PickupTime acknowledges the stated pickup time and moves on to payment.
func (f *Flows) PickupTime(ctx context.Context, t *Turn) (*Continuation, error) {
	o, err := f.resolveOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if o == nil {
		f.say(ctx, t.Customer, msgNoOpenOrder)
		return nil, nil
	}

	reply := fmt.Sprintf(msgPickupScheduled, o.Code)
	f.say(ctx, t.Customer, reply)
	return nil, f.intentions.Put(ctx, intention.PendingIntention{
		CustomerID:          t.Customer.ID,
		NextStep:            intention.StepPayment,
		ReferenceCode:       o.Code,
		Notes:               t.Message,
		LastAgentMessage:    reply,
		LastCustomerMessage: t.Message,
	})
}

func siteList(sites []catalog.Site) string {
	var b strings.Builder
	for i, s := range sites {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %s: %s", s.Name, s.Address)
	}
	return b.String()
}
