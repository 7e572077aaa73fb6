// Package expense implements the "exp" service: a simple per-chat
// expense ledger exercising interactive commands, multi-syntax
// permission checks, and args-only mode.
package expense

import (
	"context"
	"fmt"

	"github.com/pocketbrain/wacore/internal/hctx"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/storage"
)

const collection = "expenses"

// Register binds the exp service's handlers into reg.
func Register(reg *schema.Registry) {
	reg.Register("exp", "add", addHandler)
	reg.Register("exp", "edit", editHandler)
	reg.Register("exp", "list", listHandler)
	reg.Register("exp", "total", totalHandler)
}

// addHandler records one expense, replying e.g.
// "Added: Lunch - 50 (new total: 50)".
func addHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("expense: add called without handler context")
	}
	amount, _ := args["amount"].(int)
	item, _ := args["item"].(string)

	hc.Storage().Add(collection, map[string]any{
		"amount": amount,
		"item":   item,
		"userId": hc.UserID,
	})

	total, err := hc.Storage().Aggregate(collection, "amount", storage.AggSum, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added: %s - %d (new total: %s)", item, amount, formatAmount(total)), nil
}

// editHandler updates the entry numbered itemNo in the chat's single
// expense ledger, for either syntax. It does not read childNo or the
// caller's id, so neither syntax is limited to one user's entries.
func editHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("expense: edit called without handler context")
	}

	itemNo, _ := args["itemNo"].(int)
	rec, ok := hc.Storage().GetByIndex(collection, itemNo)
	if !ok {
		return fmt.Sprintf("No expense numbered %d.", itemNo), nil
	}

	patch := map[string]any{}
	if price, ok := args["price"].(int); ok {
		patch["amount"] = price
	}
	if item, ok := args["item"]; ok && item != nil {
		if s := fmt.Sprint(item); s != "" {
			patch["item"] = s
		}
	}
	if len(patch) == 0 {
		return "Nothing to update.", nil
	}

	updated, _ := hc.Storage().UpdateByIndex(collection, itemNo, patch)
	_ = rec
	return fmt.Sprintf("Updated #%d: %s - %v", itemNo, updated.Fields["item"], updated.Fields["amount"]), nil
}

// listHandler lists every recorded expense in the chat's ledger.
func listHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("expense: list called without handler context")
	}
	records := hc.Storage().Query(collection, nil)
	if len(records) == 0 {
		return "No expenses recorded.", nil
	}
	out := ""
	for i, r := range records {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%d. %v - %v", i+1, r.Fields["item"], r.Fields["amount"])
	}
	return out, nil
}

// totalHandler reports the running total of the chat's ledger.
func totalHandler(ctx context.Context, args map[string]any) (string, error) {
	hc, ok := hctx.From(ctx)
	if !ok {
		return "", fmt.Errorf("expense: total called without handler context")
	}
	total, err := hc.Storage().Aggregate(collection, "amount", storage.AggSum, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Total: %s", formatAmount(total)), nil
}

func formatAmount(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
