package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesero-labs/mesero/internal/classify"
	conversation "github.com/mesero-labs/mesero/internal/conversation/domain"
	dialogue "github.com/mesero-labs/mesero/internal/dialogue/domain"
)

// ErrGuardUnavailable means the idempotency guard could not record the
// message id. The message was not processed and must be redelivered.
var ErrGuardUnavailable = errors.New("idempotency guard unavailable")

// InboundMessage is one webhook delivery: the channel's message id, the
// sender's channel address, their display name and the text.
type InboundMessage struct {
	ID   string
	From string
	Name string
	Text string
}

// Processor runs one full turn: idempotency check, customer resolution,
// transcript append, classification, dispatch. A turn either completes or
// surfaces a generic apology; there is no partial-completion resumption.
type Processor struct {
	log        *slog.Logger
	guard      Guard
	customers  Customers
	transcript Transcript
	classifier Classifier
	outbound   Outbound
	dispatcher *Dispatcher
	cfg        Config
	tracer     trace.Tracer
}

func NewProcessor(log *slog.Logger, cfg Config, guard Guard, customers Customers,
	transcript Transcript, classifier Classifier, outbound Outbound, dispatcher *Dispatcher) *Processor {
	return &Processor{
		log:        log,
		guard:      guard,
		customers:  customers,
		transcript: transcript,
		classifier: classifier,
		outbound:   outbound,
		dispatcher: dispatcher,
		cfg:        cfg,
		tracer:     otel.Tracer("dialogue"),
	}
}

func (p *Processor) HandleInbound(ctx context.Context, msg InboundMessage) error {
	ctx, span := p.tracer.Start(ctx, "HandleInbound")
	defer span.End()

	// The seen record is written before any side-effecting work so a storage
	// error can never leave a processed-but-unrecorded message behind. The
	// sentinel lets the webhook answer non-2xx so the channel redelivers a
	// message that was never recorded.
	seen, err := p.guard.SeenOrRecord(ctx, msg.ID)
	if err != nil {
		p.log.Error("idempotency guard error, dropping message", "message_id", msg.ID, "err", err)
		return fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	if seen {
		p.log.Info("duplicate message dropped", "message_id", msg.ID)
		return nil
	}

	c, err := p.customers.GetOrCreate(ctx, p.cfg.RestaurantID, msg.From, msg.Name)
	if err != nil {
		return err
	}
	if err := p.transcript.Append(ctx, c.ID, conversation.RoleCustomer, msg.Text); err != nil {
		return err
	}

	window, err := p.transcript.Window(ctx, c.ID, conversation.ContextWindow)
	if err != nil {
		return err
	}
	turns := make([]classify.Turn, 0, len(window))
	for _, e := range window {
		turns = append(turns, classify.Turn{Role: string(e.Role), Text: e.Text})
	}

	cls, err := p.classifier.Classify(ctx, turns)
	if err != nil {
		// Classifier trouble is not the customer's problem; apologize and let
		// the fallback path give the pending intention a chance on retry.
		p.log.Error("classification failed", "customer_id", c.ID, "message_id", msg.ID, "err", err)
		cls = classify.Classification{Intent: string(dialogue.IntentUnclassifiable)}
	}

	t := Turn{
		Customer: c,
		Intent:   dialogue.Parse(cls.Intent),
		Entities: cls.Entities,
		Message:  msg.Text,
	}
	if err := p.dispatcher.Run(ctx, t); err != nil {
		p.log.Error("turn failed", "customer_id", c.ID, "intent", t.Intent, "message", msg.Text, "err", err)
		if sendErr := p.outbound.SendText(ctx, c.ChannelAddress, msgGenericFailure); sendErr != nil {
			p.log.Error("failure apology send failed", "customer_id", c.ID, "err", sendErr)
		}
		return err
	}
	return nil
}
