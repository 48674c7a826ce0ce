package application

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mesero-labs/mesero/internal/catalog"
	"github.com/mesero-labs/mesero/internal/classify"
	conversation "github.com/mesero-labs/mesero/internal/conversation/domain"
	customer "github.com/mesero-labs/mesero/internal/customer/domain"
	"github.com/mesero-labs/mesero/internal/geo"
	intention "github.com/mesero-labs/mesero/internal/intention/domain"
	orderapp "github.com/mesero-labs/mesero/internal/order/application"
	order "github.com/mesero-labs/mesero/internal/order/domain"
	"github.com/mesero-labs/mesero/internal/payment"
)

// In-memory port implementations. They mirror the persistence semantics the
// real adapters have, close enough for subflow and dispatcher tests.

type fakeGuard struct {
	seen map[string]bool
	err  error
}

func newFakeGuard() *fakeGuard { return &fakeGuard{seen: map[string]bool{}} }

func (g *fakeGuard) SeenOrRecord(_ context.Context, messageID string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen[messageID] {
		return true, nil
	}
	g.seen[messageID] = true
	return false, nil
}

type fakeCustomers struct {
	nextID    int64
	byAddress map[string]*customer.Customer
	byID      map[int64]*customer.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byAddress: map[string]*customer.Customer{}, byID: map[int64]*customer.Customer{}}
}

func (f *fakeCustomers) GetOrCreate(_ context.Context, restaurantID int64, channelAddress, displayName string) (*customer.Customer, error) {
	if c, ok := f.byAddress[channelAddress]; ok {
		return c, nil
	}
	f.nextID++
	c := &customer.Customer{
		ID:             f.nextID,
		RestaurantID:   restaurantID,
		ChannelAddress: channelAddress,
		DisplayName:    displayName,
		FirstAddress:   true,
	}
	f.byAddress[channelAddress] = c
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCustomers) Get(_ context.Context, customerID int64) (*customer.Customer, error) {
	c, ok := f.byID[customerID]
	if !ok {
		return nil, errors.New("customer not found")
	}
	return c, nil
}

func (f *fakeCustomers) SetAddress(_ context.Context, customerID int64, addressText string, lat, lng float64) error {
	c := f.byID[customerID]
	c.AddressText = addressText
	c.Lat, c.Lng = &lat, &lng
	c.FirstAddress = false
	return nil
}

func (f *fakeCustomers) AssignSite(_ context.Context, customerID, siteID int64) error {
	f.byID[customerID].SiteID = &siteID
	return nil
}

func (f *fakeCustomers) SetProfile(_ context.Context, customerID int64, displayName, taxID, documentID string) error {
	c := f.byID[customerID]
	c.DisplayName = displayName
	c.TaxID = taxID
	c.DocumentID = documentID
	c.ProfileComplete = true
	return nil
}

type fakeTranscript struct {
	entries []conversation.Entry
}

func (f *fakeTranscript) Append(_ context.Context, customerID int64, role conversation.Role, text string) error {
	f.entries = append(f.entries, conversation.Entry{CustomerID: customerID, Role: role, Text: text})
	return nil
}

func (f *fakeTranscript) Window(_ context.Context, customerID int64, n int) ([]conversation.Entry, error) {
	var out []conversation.Entry
	for _, e := range f.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

type fakeIntentions struct {
	byCustomer map[int64]*intention.PendingIntention
	putErr     error
}

func newFakeIntentions() *fakeIntentions {
	return &fakeIntentions{byCustomer: map[int64]*intention.PendingIntention{}}
}

func (f *fakeIntentions) Get(_ context.Context, customerID int64) (*intention.PendingIntention, error) {
	p, ok := f.byCustomer[customerID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeIntentions) Put(_ context.Context, p intention.PendingIntention) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.byCustomer[p.CustomerID] = &p
	return nil
}

func (f *fakeIntentions) Delete(_ context.Context, customerID int64) error {
	delete(f.byCustomer, customerID)
	return nil
}

type fakeOrders struct {
	nextOrderID int64
	nextLineID  int64
	seq         int64
	orders      []*order.Order

	draftCalls  int
	mutateCalls int
}

func newFakeOrders() *fakeOrders { return &fakeOrders{} }

func (f *fakeOrders) Draft(_ context.Context, customerID int64, req order.ChangeRequest) (*order.Order, error) {
	f.draftCalls++
	req.Intent = order.ChangeAdd
	plan, err := orderapp.Reconcile(nil, req)
	if err != nil {
		return nil, err
	}
	f.nextOrderID++
	f.seq++
	o := &order.Order{
		ID:          f.nextOrderID,
		CustomerID:  customerID,
		Code:        order.FormatCode(f.seq),
		Status:      order.StatusPending,
		IsTemporary: true,
	}
	for _, l := range plan.Inserts {
		f.nextLineID++
		l.ID = f.nextLineID
		l.OrderID = o.ID
		o.Lines = append(o.Lines, l)
	}
	f.recompute(o)
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeOrders) Mutate(ctx context.Context, customerID int64, req order.ChangeRequest) (*order.Order, error) {
	f.mutateCalls++
	o, err := f.RecentPending(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrNoMatchingOrder
	}
	plan, err := orderapp.Reconcile(o.Lines, req)
	if err != nil {
		return nil, err
	}
	for _, l := range plan.Inserts {
		f.nextLineID++
		l.ID = f.nextLineID
		l.OrderID = o.ID
		o.Lines = append(o.Lines, l)
	}
	for _, u := range plan.Updates {
		for i := range o.Lines {
			if o.Lines[i].ID == u.ID {
				o.Lines[i] = u
			}
		}
	}
	for _, id := range plan.Deletes {
		for i := range o.Lines {
			if o.Lines[i].ID == id {
				o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
				break
			}
		}
	}
	f.recompute(o)
	return o, nil
}

func (f *fakeOrders) Confirm(_ context.Context, customerID int64, code string) (*order.Order, error) {
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.Code == code {
			o.IsTemporary = false
			return o, nil
		}
	}
	return nil, order.ErrNoMatchingOrder
}

func (f *fakeOrders) RecentPending(_ context.Context, customerID int64) (*order.Order, error) {
	for i := len(f.orders) - 1; i >= 0; i-- {
		o := f.orders[i]
		if o.CustomerID == customerID && o.Status == order.StatusPending {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) GetByCode(_ context.Context, customerID int64, code string) (*order.Order, error) {
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.Code == code {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) SetDelivery(_ context.Context, orderID int64, m order.DeliveryMethod) error {
	o := f.byID(orderID)
	if o == nil {
		return order.ErrNoMatchingOrder
	}
	o.Delivery = m
	return nil
}

func (f *fakeOrders) SetPaymentMethod(_ context.Context, orderID int64, m order.PaymentMethod) error {
	o := f.byID(orderID)
	if o == nil {
		return order.ErrNoMatchingOrder
	}
	o.Payment = m
	return nil
}

func (f *fakeOrders) SetDeliveryQuote(_ context.Context, orderID int64, feeCents int64, etaMinutes int, distanceKM float64) error {
	o := f.byID(orderID)
	if o == nil {
		return order.ErrNoMatchingOrder
	}
	o.DeliveryFee = feeCents
	o.ETAMinutes = etaMinutes
	o.DistanceKM = distanceKM
	f.recompute(o)
	return nil
}

func (f *fakeOrders) SetPaymentRef(_ context.Context, orderID int64, externalID string) error {
	o := f.byID(orderID)
	if o == nil {
		return order.ErrNoMatchingOrder
	}
	o.PaymentRef = externalID
	return nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, orderID int64) error {
	o := f.byID(orderID)
	if o == nil {
		return order.ErrNoMatchingOrder
	}
	o.Status = order.StatusPaid
	return nil
}

func (f *fakeOrders) byID(orderID int64) *order.Order {
	for _, o := range f.orders {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

func (f *fakeOrders) recompute(o *order.Order) {
	var sub int64
	for _, l := range o.Lines {
		sub += l.Total
	}
	o.ItemsSubtotal = sub
	o.FinalTotal = sub + o.DeliveryFee
}

type fakeClassifier struct {
	classification classify.Classification
	classifyErr    error
	classifyCalls  int

	mapResult order.ChangeRequest
	mapErr    error
	mapCalls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _ []classify.Turn) (classify.Classification, error) {
	f.classifyCalls++
	return f.classification, f.classifyErr
}

func (f *fakeClassifier) MapOrder(_ context.Context, _ string, _ []catalog.MenuItem) (order.ChangeRequest, error) {
	f.mapCalls++
	return f.mapResult, f.mapErr
}

type sentMessage struct {
	to   string
	text string
}

type fakeOutbound struct {
	texts []sentMessage
	media []sentMessage
	err   error
}

func (f *fakeOutbound) SendText(_ context.Context, channelAddress, text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, sentMessage{to: channelAddress, text: text})
	return nil
}

func (f *fakeOutbound) SendMedia(_ context.Context, channelAddress, url string) error {
	f.media = append(f.media, sentMessage{to: channelAddress, text: url})
	return nil
}

func (f *fakeOutbound) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1].text
}

type fakeGeo struct {
	point      geo.Point
	geocodeErr error
	quote      geo.Quote
	quoteErr   error
}

func (f *fakeGeo) Geocode(_ context.Context, _ string) (geo.Point, error) {
	return f.point, f.geocodeErr
}

func (f *fakeGeo) DistanceQuote(_ context.Context, _, _ geo.Point) (geo.Quote, error) {
	return f.quote, f.quoteErr
}

type fakePayments struct {
	link      *payment.Link
	createErr error
	status    payment.Status
	statusErr error
}

func (f *fakePayments) CreateLink(_ context.Context, _ int64, _ string) (*payment.Link, error) {
	return f.link, f.createErr
}

func (f *fakePayments) CheckStatus(_ context.Context, _ string) (payment.Status, error) {
	return f.status, f.statusErr
}

type fakeCatalog struct {
	menu  []catalog.MenuItem
	sites []catalog.Site
}

func (f *fakeCatalog) Menu(_ context.Context, _ int64) ([]catalog.MenuItem, error) {
	return f.menu, nil
}

func (f *fakeCatalog) Sites(_ context.Context, _ int64) ([]catalog.Site, error) {
	return f.sites, nil
}

// harness wires the fakes into a Flows, Dispatcher and Processor ready to run
// a turn.
type harness struct {
	guard      *fakeGuard
	customers  *fakeCustomers
	transcript *fakeTranscript
	intentions *fakeIntentions
	orders     *fakeOrders
	classifier *fakeClassifier
	outbound   *fakeOutbound
	geo        *fakeGeo
	payments   *fakePayments
	catalog    *fakeCatalog

	flows      *Flows
	dispatcher *Dispatcher
	processor  *Processor
}

func newHarness() *harness {
	h := &harness{
		guard:      newFakeGuard(),
		customers:  newFakeCustomers(),
		transcript: &fakeTranscript{},
		intentions: newFakeIntentions(),
		orders:     newFakeOrders(),
		classifier: &fakeClassifier{},
		outbound:   &fakeOutbound{},
		geo:        &fakeGeo{},
		payments:   &fakePayments{},
		catalog: &fakeCatalog{
			menu: []catalog.MenuItem{
				{ID: 10, Name: "Sierra Clasica", PriceCents: 14500, Available: true},
				{ID: 11, Name: "Agua de Horchata", PriceCents: 3000, Available: true},
			},
			sites: []catalog.Site{
				{ID: 1, Name: "Centro", Address: "Av. Juarez 12", Lat: 19.43, Lng: -99.13},
				{ID: 2, Name: "Norte", Address: "Blvd. Colosio 800", Lat: 19.50, Lng: -99.20},
			},
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{
		RestaurantID:    1,
		RestaurantName:  "Mariscos La Sierra",
		MenuURL:         "https://example.com/menu.pdf",
		OpeningHours:    "Lun-Dom 11:00-22:00",
		OperatorAddress: "operator",
	}
	h.flows = NewFlows(log, cfg, h.customers, h.transcript, h.intentions, h.orders,
		h.classifier, h.outbound, h.geo, h.payments, h.catalog)
	h.dispatcher = NewDispatcher(log, h.flows)
	h.processor = NewProcessor(log, cfg, h.guard, h.customers, h.transcript,
		h.classifier, h.outbound, h.dispatcher)
	return h
}

func (h *harness) customer() *customer.Customer {
	c, _ := h.customers.GetOrCreate(context.Background(), 1, "5215550001", "Ana")
	return c
}
