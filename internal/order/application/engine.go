package application

import (
	"github.com/mesero-labs/mesero/internal/order/domain"
)

// Plan is the set of line-level writes the repository must apply in one
// transaction. Skipped carries the requested items that referenced no
// existing line on a remove/update, for the caller to log.
type Plan struct {
	Inserts []domain.Line
	Updates []domain.Line
	Deletes []int64
	Skipped []domain.ChangeItem
}

func (p Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

type lineState int

const (
	stateExisting lineState = iota
	stateInserted
	stateDeleted
)

type workingLine struct {
	line  domain.Line
	state lineState
	dirty bool
}

// Reconcile computes the writes needed to bring the order's lines in sync
// with the requested change. Quantities on ADD/REMOVE are deltas against the
// current persisted quantity; UPDATE sets absolute values. Unit prices are
// only ever read from the existing line or the catalog match, never derived
// from totals.
func Reconcile(lines []domain.Line, req domain.ChangeRequest) (Plan, error) {
	var plan Plan
	if req.Intent == domain.ChangeClarification {
		return plan, nil
	}

	work := make(map[int64]*workingLine, len(lines))
	order := make([]int64, 0, len(lines))
	for _, l := range lines {
		work[l.CatalogItemID] = &workingLine{line: l, state: stateExisting}
		order = append(order, l.CatalogItemID)
	}

	switch req.Intent {
	case domain.ChangeAdd:
		for _, it := range req.MatchedItems() {
			applyAdd(work, &order, it)
		}
	case domain.ChangeRemove:
		for _, it := range req.MatchedItems() {
			applyRemove(work, it, &plan)
		}
	case domain.ChangeReplace:
		var replacements, replaced []domain.ChangeItem
		for _, it := range req.MatchedItems() {
			switch it.Note {
			case domain.RoleReplacement:
				replacements = append(replacements, it)
			case domain.RoleReplaced:
				replaced = append(replaced, it)
			}
		}
		if len(replacements) == 0 || len(replaced) == 0 {
			return Plan{}, domain.ErrReplaceIncomplete
		}
		for _, it := range replacements {
			applyAdd(work, &order, it)
		}
		for _, it := range replaced {
			// The role tag occupied the note, so a replaced item is always a
			// plain quantity decrement, never a forced delete.
			it.Note = ""
			applyRemove(work, it, &plan)
		}
	case domain.ChangeUpdate:
		for _, it := range req.MatchedItems() {
			applyUpdate(work, &order, it, &plan)
		}
	}

	for _, id := range order {
		w := work[id]
		switch {
		case w.state == stateInserted:
			plan.Inserts = append(plan.Inserts, w.line)
		case w.state == stateDeleted:
			if w.line.ID != 0 {
				plan.Deletes = append(plan.Deletes, w.line.ID)
			}
		case w.dirty:
			plan.Updates = append(plan.Updates, w.line)
		}
	}
	return plan, nil
}

func applyAdd(work map[int64]*workingLine, order *[]int64, it domain.ChangeItem) {
	qty := it.Quantity
	if qty <= 0 {
		qty = 1
	}
	w, ok := work[it.Matched.ID]
	if ok && w.state != stateDeleted {
		w.line.Quantity += qty
		w.line.Total = w.line.UnitPrice * int64(w.line.Quantity)
		w.line.Specification = domain.MergeSpecification(w.line.Specification, it.Specifications)
		w.dirty = true
		return
	}
	line := domain.Line{
		CatalogItemID: it.Matched.ID,
		Name:          it.Matched.Name,
		Quantity:      qty,
		UnitPrice:     it.Matched.UnitPrice,
		Total:         it.Matched.UnitPrice * int64(qty),
		Specification: domain.MergeSpecification("", it.Specifications),
	}
	if ok {
		// Re-adding an item deleted earlier in the same request resurrects
		// the row with the new values.
		w.line = line
		w.state = stateInserted
		w.dirty = true
		return
	}
	work[it.Matched.ID] = &workingLine{line: line, state: stateInserted}
	*order = append(*order, it.Matched.ID)
}

func applyRemove(work map[int64]*workingLine, it domain.ChangeItem, plan *Plan) {
	w, ok := work[it.Matched.ID]
	if !ok || w.state == stateDeleted {
		plan.Skipped = append(plan.Skipped, it)
		return
	}
	qty := it.Quantity
	if qty <= 0 {
		qty = 1
	}
	if it.Note == domain.NoteDelete || w.line.Quantity-qty <= 0 {
		w.state = stateDeleted
		return
	}
	w.line.Quantity -= qty
	w.line.Total = w.line.UnitPrice * int64(w.line.Quantity)
	w.dirty = true
}

func applyUpdate(work map[int64]*workingLine, order *[]int64, it domain.ChangeItem, plan *Plan) {
	w, ok := work[it.Matched.ID]
	if !ok || w.state == stateDeleted {
		if it.Quantity == 0 {
			plan.Skipped = append(plan.Skipped, it)
			return
		}
		applyAdd(work, order, it)
		return
	}
	if it.Quantity == 0 {
		w.state = stateDeleted
		return
	}
	w.line.Quantity = it.Quantity
	w.line.Total = w.line.UnitPrice * int64(it.Quantity)
	if s := domain.MergeSpecification("", it.Specifications); s != "" {
		w.line.Specification = s
	}
	w.dirty = true
}
