// Package classify wraps the LLM that turns conversation text into intents
// and catalog-matched change requests. The model's output is repaired and
// strictly validated at this boundary; nothing partially parsed ever leaves
// the package.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mesero-labs/mesero/internal/catalog"
	orderdomain "github.com/mesero-labs/mesero/internal/order/domain"
)

// ErrUnparseable means the model output could not be repaired into the
// expected structure. Callers degrade to a fallback message.
var ErrUnparseable = errors.New("classifier output unparseable")

// Turn is one transcript line handed to the model for context.
type Turn struct {
	Role string
	Text string
}

// Classification is the model's reading of the latest customer message.
type Classification struct {
	Intent   string            `json:"intent" validate:"required"`
	Type     string            `json:"type"`
	Entities map[string]string `json:"entities"`
}

type Client struct {
	log      *slog.Logger
	oai      openai.Client
	model    string
	validate *validator.Validate
}

func New(log *slog.Logger, apiKey, model string) *Client {
	return &Client{
		log:      log,
		oai:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:    model,
		validate: validator.New(),
	}
}

const classifySystemPrompt = `You classify the last customer message of a restaurant chat.
Reply with a single JSON object: {"intent": "...", "type": "...", "entities": {...}}.
intent must be one of: greeting, registration, order-request, order-modification,
confirm-order, general-confirmation, delivery-address, confirm-address, delivery-method,
pickup-site-selection, pickup-time, payment-method, payment-verification, promotions,
promotion-continuation, menu-query, general-question, opening-hours, location-query,
complaint-minor, complaint-major, human-handoff, thanks, farewell, unclassifiable.`

func (c *Client) Classify(ctx context.Context, window []Turn) (Classification, error) {
	var b strings.Builder
	for _, t := range window {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
	}

	raw, err := c.complete(ctx, classifySystemPrompt, b.String())
	if err != nil {
		return Classification{}, err
	}

	var out Classification
	if err := json.Unmarshal([]byte(Repair(raw)), &out); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return out, nil
}

const mapOrderSystemPrompt = `You convert a free-form food order into a structured change request
against the given menu. Reply with a single JSON object:
{"intent": "ADD_ITEM"|"REMOVE_ITEM"|"REPLACE_ITEM"|"UPDATE_ITEM"|"CLARIFICATION_NEEDED",
 "order_complete": bool,
 "items": [{"matched": {"id": n, "name": "...", "unit_price": cents} or null,
            "quantity": n, "note": "...", "specifications": "..."}]}.
unit_price is the per-unit menu price in cents, never a line total.
A product you cannot match to the menu gets "matched": null and order_complete false.
For REPLACE_ITEM tag the note field with "replacement product" or "product being replaced".`

// MapOrder turns the customer's order description into a ChangeRequest. Items
// without a catalog match survive validation; the caller decides whether the
// request is complete enough to act on.
func (c *Client) MapOrder(ctx context.Context, orderText string, menu []catalog.MenuItem) (orderdomain.ChangeRequest, error) {
	var b strings.Builder
	b.WriteString("Menu (id | name | unit price cents):\n")
	for _, m := range menu {
		fmt.Fprintf(&b, "%d | %s | %d\n", m.ID, m.Name, m.PriceCents)
	}
	b.WriteString("\nCustomer said:\n")
	b.WriteString(orderText)

	raw, err := c.complete(ctx, mapOrderSystemPrompt, b.String())
	if err != nil {
		return orderdomain.ChangeRequest{}, err
	}

	var out orderdomain.ChangeRequest
	if err := json.Unmarshal([]byte(Repair(raw)), &out); err != nil {
		return orderdomain.ChangeRequest{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return orderdomain.ChangeRequest{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnparseable)
	}
	return resp.Choices[0].Message.Content, nil
}
