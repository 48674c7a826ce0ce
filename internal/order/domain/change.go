package domain

import "errors"

// ChangeIntent discriminates what a ChangeRequest wants done to the order.
type ChangeIntent string

const (
	ChangeAdd           ChangeIntent = "ADD_ITEM"
	ChangeRemove        ChangeIntent = "REMOVE_ITEM"
	ChangeReplace       ChangeIntent = "REPLACE_ITEM"
	ChangeUpdate        ChangeIntent = "UPDATE_ITEM"
	ChangeClarification ChangeIntent = "CLARIFICATION_NEEDED"
)

// Replace-role tags carried by items of a REPLACE_ITEM request.
const (
	RoleReplacement = "replacement product"
	RoleReplaced    = "product being replaced"
)

// NoteDelete on a REMOVE_ITEM item means "drop the whole line" regardless of
// the requested quantity.
const NoteDelete = "delete"

var (
	ErrNoMatchingOrder = errors.New("no matching order for customer")

	// ErrReplaceIncomplete is returned when a REPLACE_ITEM request does not
	// carry both a replacement item and a replaced item. The upstream mapper
	// is supposed to always produce both sides; a half request is rejected
	// rather than guessed at.
	ErrReplaceIncomplete = errors.New("replace request missing replacement or replaced item")
)

// CatalogMatch is the menu item the mapper resolved a described product to.
// UnitPrice is always per unit; line totals are computed here, never by the
// mapper.
type CatalogMatch struct {
	ID        int64  `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gt=0"`
}

// ChangeItem is one requested line-level change.
type ChangeItem struct {
	Matched        *CatalogMatch `json:"matched"`
	Quantity       int           `json:"quantity" validate:"gte=0"`
	Note           string        `json:"note"`
	Specifications string        `json:"specifications"`
}

// ChangeRequest is the catalog-matched representation of what the customer
// wants changed about their order, produced by the classification service.
type ChangeRequest struct {
	Intent        ChangeIntent `json:"intent" validate:"required,oneof=ADD_ITEM REMOVE_ITEM REPLACE_ITEM UPDATE_ITEM CLARIFICATION_NEEDED"`
	Items         []ChangeItem `json:"items" validate:"dive"`
	OrderComplete bool         `json:"order_complete"`
}

// Matched returns only the items that resolved to a catalog entry.
func (r ChangeRequest) MatchedItems() []ChangeItem {
	out := make([]ChangeItem, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Matched != nil {
			out = append(out, it)
		}
	}
	return out
}
