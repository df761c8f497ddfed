// Package notify subscribes to per-collection change notifications and maps
// each insert/update to the customer whose profile it invalidates.
package notify

import (
	"context"
	"fmt"

	"github.com/voxic/multi-odl-demo/internal/decode"
	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/envelope"
)

type accountSource interface {
	FindByKey(ctx context.Context, col domain.Collection, field string, id int64) ([]envelope.Record, error)
}

// DeriveCustomerID resolves the customer affected by a change document.
// Precedence is fixed: a customer_id on the document wins outright; otherwise
// an account_id is mapped to its owning customer through a point query; if
// neither works the notification is undeliverable and the caller drops it.
func DeriveCustomerID(ctx context.Context, doc envelope.Document, accounts accountSource) (int64, error) {
	fields, ok := envelope.Extract(doc)
	if !ok || fields == nil {
		return 0, fmt.Errorf("DeriveCustomerID: empty document: %w", domain.ErrDerivationFailed)
	}

	if id := decode.Int64(fields["customer_id"], 0); id > 0 {
		return id, nil
	}

	accountID := decode.Int64(fields["account_id"], 0)
	if accountID <= 0 {
		return 0, fmt.Errorf("DeriveCustomerID: no customer_id or account_id: %w", domain.ErrDerivationFailed)
	}

	recs, err := accounts.FindByKey(ctx, domain.CollectionAccounts, "account_id", accountID)
	if err != nil {
		return 0, fmt.Errorf("DeriveCustomerID: account %d lookup: %w", accountID, err)
	}
	resolved := envelope.ResolveLatest(envelope.Normalize(recs), "account_id")
	if len(resolved) == 0 {
		return 0, fmt.Errorf("DeriveCustomerID: account %d unknown: %w", accountID, domain.ErrDerivationFailed)
	}

	if id := decode.Int64(resolved[0].Fields["customer_id"], 0); id > 0 {
		return id, nil
	}
	return 0, fmt.Errorf("DeriveCustomerID: account %d has no owner: %w", accountID, domain.ErrDerivationFailed)
}
