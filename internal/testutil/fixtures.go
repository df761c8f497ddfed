package testutil

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"
)

// InsertDocument appends a change-event envelope to a landing table with the
// current ingestion timestamp.
func InsertDocument(t *testing.T, db *sql.DB, table string, doc map[string]any) {
	t.Helper()
	InsertDocumentAt(t, db, table, doc, time.Now().UTC())
}

// InsertDocumentAt appends an envelope with an explicit ingestion timestamp,
// for tests that exercise out-of-order and duplicate version resolution.
func InsertDocumentAt(t *testing.T, db *sql.DB, table string, doc map[string]any, receivedAt time.Time) {
	t.Helper()

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture doc: %v", err)
	}
	_, err = db.ExecContext(context.Background(),
		// Table names come from test constants, not user input.
		"INSERT INTO "+table+" (doc, received_at) VALUES ($1, $2)",
		raw, receivedAt,
	)
	if err != nil {
		t.Fatalf("insert fixture doc into %s: %v", table, err)
	}
}

// Customer returns a flat customer entity document.
func Customer(id int64, firstName, lastName, status string) map[string]any {
	return map[string]any{
		"customer_id":   id,
		"first_name":    firstName,
		"last_name":     lastName,
		"email":         firstName + "." + lastName + "@email.com",
		"phone":         "+1-555-010-0000",
		"address_line1": "1 Main St",
		"city":          "New York",
		"state":         "NY",
		"postal_code":   "10001",
		"country":       "USA",
		"customer_status": status,
	}
}

// Account returns a flat account entity document with a minor-unit balance.
func Account(id, customerID, balanceMinor int64, accountType string) map[string]any {
	return map[string]any{
		"account_id":     id,
		"customer_id":    customerID,
		"account_number": "ACC-2024-000001",
		"account_type":   accountType,
		"balance":        balanceMinor,
		"currency":       "USD",
		"account_status": "ACTIVE",
		"interest_rate":  0.01,
	}
}

// Transaction returns a flat transaction entity document.
func Transaction(id, accountID, amountMinor int64, txType string, date time.Time) map[string]any {
	return map[string]any{
		"transaction_id":   id,
		"account_id":       accountID,
		"transaction_type": txType,
		"amount":           amountMinor,
		"currency":         "USD",
		"description":      "test transaction",
		"transaction_date": date.UTC().Format(time.RFC3339),
		"status":           "COMPLETED",
	}
}

// Agreement returns a flat agreement entity document with minor-unit amounts.
func Agreement(id, customerID, principalMinor, currentMinor int64, agreementType, status string) map[string]any {
	return map[string]any{
		"agreement_id":     id,
		"customer_id":      customerID,
		"agreement_number": "AGR-2024-000001",
		"agreement_type":   agreementType,
		"principal_amount": principalMinor,
		"current_balance":  currentMinor,
		"interest_rate":    0.05,
		"term_months":      36,
		"status":           status,
	}
}

// CDCEnvelope wraps an entity the way the structured change-capture connector
// does.
func CDCEnvelope(op string, after map[string]any) map[string]any {
	return map[string]any{
		"op":    op,
		"ts_ms": time.Now().UnixMilli(),
		"after": after,
	}
}
