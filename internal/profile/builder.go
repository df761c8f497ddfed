// Package profile builds denormalized customer profile documents from the
// latest visible versions of the source entities, and schedules builds in
// response to change notifications and reconciliation sweeps.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voxic/multi-odl-demo/internal/decode"
	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/envelope"
)

type documentSource interface {
	FindByKey(ctx context.Context, col domain.Collection, field string, id int64) ([]envelope.Record, error)
}

// Builder assembles the account/transaction-centric profile.
type Builder struct {
	docs     documentSource
	classify Classifier
	txLimit  int
	logger   *slog.Logger
}

func NewBuilder(docs documentSource, classify Classifier, txLimit int, logger *slog.Logger) *Builder {
	if classify == nil {
		classify = DefaultClassifier
	}
	if txLimit <= 0 {
		txLimit = 10
	}
	return &Builder{docs: docs, classify: classify, txLimit: txLimit, logger: logger}
}

// Build produces a complete profile for customerID or
// domain.ErrCustomerNotFound when the customer has never been observed.
func (b *Builder) Build(ctx context.Context, customerID int64) (*domain.CustomerProfile, error) {
	customer, err := b.latestCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	accountRecs, err := b.docs.FindByKey(ctx, domain.CollectionAccounts, "customer_id", customerID)
	if err != nil {
		return nil, fmt.Errorf("Build: customer %d: accounts: %w", customerID, err)
	}
	accounts := envelope.ResolveLatest(envelope.Normalize(accountRecs), "account_id")

	details := make([]domain.AccountDetail, 0, len(accounts))
	totalBalance := decimal.Zero
	txCount := 0
	for _, acc := range accounts {
		detail, err := b.buildAccount(ctx, acc.Fields)
		if err != nil {
			return nil, fmt.Errorf("Build: customer %d: %w", customerID, err)
		}
		totalBalance = totalBalance.Add(decimal.NewFromFloat(detail.Balance))
		txCount += len(detail.Transactions)
		details = append(details, detail)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].AccountID < details[j].AccountID })

	return &domain.CustomerProfile{
		CustomerID:   customerID,
		CustomerInfo: buildCustomerInfo(customer),
		Accounts:     details,
		Risk:         b.classify(totalBalance, txCount),
		ComputedAt:   time.Now().UTC(),
	}, nil
}

func (b *Builder) latestCustomer(ctx context.Context, customerID int64) (envelope.Document, error) {
	recs, err := b.docs.FindByKey(ctx, domain.CollectionCustomers, "customer_id", customerID)
	if err != nil {
		return nil, fmt.Errorf("Build: customer %d: %w", customerID, err)
	}
	resolved := envelope.ResolveLatest(envelope.Normalize(recs), "customer_id")
	if len(resolved) == 0 {
		return nil, fmt.Errorf("Build: customer %d: %w", customerID, domain.ErrCustomerNotFound)
	}
	return resolved[0].Fields, nil
}

func (b *Builder) buildAccount(ctx context.Context, fields envelope.Document) (domain.AccountDetail, error) {
	accountID := decode.Int64(fields["account_id"], 0)

	txRecs, err := b.docs.FindByKey(ctx, domain.CollectionTransactions, "account_id", accountID)
	if err != nil {
		return domain.AccountDetail{}, fmt.Errorf("account %d: transactions: %w", accountID, err)
	}
	txs := envelope.ResolveLatest(envelope.Normalize(txRecs), "transaction_id")

	// Most recent first by business transaction date, then id for stability.
	sort.Slice(txs, func(i, j int) bool {
		ti := decode.Time(txs[i].Fields["transaction_date"], time.Time{})
		tj := decode.Time(txs[j].Fields["transaction_date"], time.Time{})
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return decode.Int64(txs[i].Fields["transaction_id"], 0) > decode.Int64(txs[j].Fields["transaction_id"], 0)
	})
	if len(txs) > b.txLimit {
		txs = txs[:b.txLimit]
	}

	txDetails := make([]domain.TransactionDetail, 0, len(txs))
	for _, tx := range txs {
		txDetails = append(txDetails, buildTransaction(tx.Fields))
	}

	return domain.AccountDetail{
		AccountID:     accountID,
		AccountNumber: decode.String(fields["account_number"], ""),
		AccountType:   decode.String(fields["account_type"], ""),
		Status:        decode.String(fields["account_status"], decode.String(fields["status"], "")),
		Balance:       decode.MajorUnits(fields["balance"]),
		Currency:      decode.String(fields["currency"], ""),
		InterestRate:  decode.Float64(fields["interest_rate"], 0),
		CreditLimit:   decode.MajorUnits(fields["credit_limit"]),
		OpenedDate:    dateString(fields["opened_date"]),
		Transactions:  txDetails,
	}, nil
}

func buildTransaction(fields envelope.Document) domain.TransactionDetail {
	return domain.TransactionDetail{
		TransactionID:   decode.Int64(fields["transaction_id"], 0),
		TransactionType: decode.String(fields["transaction_type"], ""),
		Amount:          decode.MajorUnits(fields["amount"]),
		Description:     decode.String(fields["description"], ""),
		Date:            dateString(fields["transaction_date"]),
		Status:          decode.String(fields["status"], ""),
	}
}

// buildCustomerInfo flattens a customer document into the profile's attribute
// block, accepting both the nested personal_info/address sub-documents some
// sources emit and the flat column layout of row-snapshot envelopes.
func buildCustomerInfo(customer envelope.Document) domain.CustomerInfo {
	info := domain.CustomerInfo{}

	if personal, ok := customer["personal_info"].(map[string]any); ok {
		info.FirstName = decode.String(personal["first_name"], "")
		info.LastName = decode.String(personal["last_name"], "")
		info.Email = decode.String(personal["email"], "")
		info.Phone = decode.String(personal["phone"], "")
	} else {
		info.FirstName = decode.String(customer["first_name"], "")
		info.LastName = decode.String(customer["last_name"], "")
		info.Email = decode.String(customer["email"], "")
		info.Phone = decode.String(customer["phone"], "")
	}

	if addr, ok := customer["address"].(map[string]any); ok {
		info.Address = joinAddress(decode.String(addr["line1"], ""), decode.String(addr["line2"], ""))
		info.City = decode.String(addr["city"], "")
		info.State = decode.String(addr["state"], "")
		info.PostalCode = decode.String(addr["postal_code"], "")
		info.Country = decode.String(addr["country"], "")
	} else {
		info.Address = joinAddress(decode.String(customer["address_line1"], ""), decode.String(customer["address_line2"], ""))
		info.City = decode.String(customer["city"], "")
		info.State = decode.String(customer["state"], "")
		info.PostalCode = decode.String(customer["postal_code"], "")
		info.Country = decode.String(customer["country"], "")
	}

	info.Status = decode.String(customer["customer_status"], decode.String(customer["status"], ""))
	return info
}

func joinAddress(line1, line2 string) string {
	if line2 == "" {
		return line1
	}
	if line1 == "" {
		return line2
	}
	return line1 + " " + line2
}

func dateString(v any) string {
	t := decode.Time(v, time.Time{})
	if t.IsZero() {
		return decode.String(v, "")
	}
	return t.UTC().Format(time.RFC3339)
}
