package profile

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/envelope"
)

// fakeDocs serves canned records per collection, standing in for the landing
// tables.
type fakeDocs struct {
	records map[domain.Collection][]envelope.Record
}

func (f *fakeDocs) FindByKey(_ context.Context, col domain.Collection, field string, id int64) ([]envelope.Record, error) {
	var out []envelope.Record
	for _, r := range f.records[col] {
		fields, ok := envelope.Extract(r.Fields)
		if !ok {
			continue
		}
		v, isNum := fields[field].(float64)
		if isNum && int64(v) == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDocs) add(col domain.Collection, seq int64, doc envelope.Document) {
	if f.records == nil {
		f.records = make(map[domain.Collection][]envelope.Record)
	}
	f.records[col] = append(f.records[col], envelope.Record{
		Fields:     doc,
		ReceivedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second),
		Seq:        seq,
	})
}

func agreementDoc(id, customerID, principalMinor, currentMinor int64, agreementType, status string) envelope.Document {
	return envelope.Document{
		"agreement_id":     float64(id),
		"customer_id":      float64(customerID),
		"agreement_number": "AGR-0001",
		"agreement_type":   agreementType,
		"principal_amount": float64(principalMinor),
		"current_balance":  float64(currentMinor),
		"interest_rate":    0.05,
		"term_months":      float64(36),
		"status":           status,
	}
}

func TestAgreementBuilderSummary(t *testing.T) {
	docs := &fakeDocs{}
	docs.add(domain.CollectionCustomers, 1, envelope.Document{
		"customer_id": float64(7), "first_name": "Sarah", "last_name": "Jones",
		"customer_status": "ACTIVE",
	})
	// Principals 10000/5000/2000 major units, balances 4000/5000/0.
	docs.add(domain.CollectionAgreements, 2, agreementDoc(101, 7, 1_000_000, 400_000, "LOAN", "ACTIVE"))
	docs.add(domain.CollectionAgreements, 3, agreementDoc(102, 7, 500_000, 500_000, "CREDIT_CARD", "ACTIVE"))
	docs.add(domain.CollectionAgreements, 4, agreementDoc(103, 7, 200_000, 0, "LOAN", "COMPLETED"))

	b := NewAgreementBuilder(docs, slog.Default())
	built, err := b.Build(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), built.CustomerID)
	assert.Equal(t, "Sarah", built.CustomerInfo.FirstName)
	assert.Len(t, built.Agreements, 3)

	s := built.AgreementSummary
	assert.Equal(t, 3, s.TotalAgreements)
	assert.Equal(t, 2, s.ActiveAgreements)
	assert.Equal(t, 1, s.CompletedAgreements)
	assert.Equal(t, 0, s.DefaultedAgreements)
	assert.Equal(t, 17000.0, s.TotalPrincipalAmount)
	assert.Equal(t, 9000.0, s.TotalCurrentBalance)
	assert.Equal(t, 8000.0, s.TotalOutstandingBalance)
	assert.Equal(t, 0.05, s.AverageInterestRate)
	assert.Equal(t, []string{"LOAN", "CREDIT_CARD"}, s.AgreementTypes)
}

func TestAgreementBuilderStatusMatchingIsCaseInsensitive(t *testing.T) {
	docs := &fakeDocs{}
	docs.add(domain.CollectionCustomers, 1, envelope.Document{"customer_id": float64(9)})
	docs.add(domain.CollectionAgreements, 2, agreementDoc(201, 9, 100_000, 50_000, "LOAN", "active"))
	docs.add(domain.CollectionAgreements, 3, agreementDoc(202, 9, 100_000, 0, "LOAN", "Defaulted"))

	b := NewAgreementBuilder(docs, slog.Default())
	built, err := b.Build(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, 1, built.AgreementSummary.ActiveAgreements)
	assert.Equal(t, 1, built.AgreementSummary.DefaultedAgreements)
}

func TestAgreementBuilderNoAgreements(t *testing.T) {
	docs := &fakeDocs{}
	docs.add(domain.CollectionCustomers, 1, envelope.Document{"customer_id": float64(11)})

	b := NewAgreementBuilder(docs, slog.Default())
	built, err := b.Build(context.Background(), 11)
	require.NoError(t, err)

	assert.Empty(t, built.Agreements)
	assert.Equal(t, 0, built.AgreementSummary.TotalAgreements)
	assert.Equal(t, 0.0, built.AgreementSummary.AverageInterestRate)
	assert.Equal(t, []string{}, built.AgreementSummary.AgreementTypes)
}

func TestAgreementBuilderCustomerNotFound(t *testing.T) {
	b := NewAgreementBuilder(&fakeDocs{}, slog.Default())
	_, err := b.Build(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestAgreementBuilderLatestVersionWins(t *testing.T) {
	docs := &fakeDocs{}
	docs.add(domain.CollectionCustomers, 1, envelope.Document{"customer_id": float64(5)})
	docs.add(domain.CollectionAgreements, 2, agreementDoc(301, 5, 100_000, 100_000, "LOAN", "ACTIVE"))
	// Correction arrives later for the same agreement id.
	docs.add(domain.CollectionAgreements, 3, agreementDoc(301, 5, 100_000, 20_000, "LOAN", "ACTIVE"))

	b := NewAgreementBuilder(docs, slog.Default())
	built, err := b.Build(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, built.Agreements, 1)
	assert.Equal(t, 200.0, built.Agreements[0].CurrentBalance)
}
