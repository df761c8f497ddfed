package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voxic/multi-odl-demo/internal/decode"
	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/envelope"
)

// AgreementBuilder assembles the agreement-centric profile. Same shape as
// Builder, different join graph: agreements hang off the customer directly.
type AgreementBuilder struct {
	docs   documentSource
	logger *slog.Logger
}

func NewAgreementBuilder(docs documentSource, logger *slog.Logger) *AgreementBuilder {
	return &AgreementBuilder{docs: docs, logger: logger}
}

func (b *AgreementBuilder) Build(ctx context.Context, customerID int64) (*domain.AgreementProfile, error) {
	customerRecs, err := b.docs.FindByKey(ctx, domain.CollectionCustomers, "customer_id", customerID)
	if err != nil {
		return nil, fmt.Errorf("Build: customer %d: %w", customerID, err)
	}
	customers := envelope.ResolveLatest(envelope.Normalize(customerRecs), "customer_id")
	if len(customers) == 0 {
		return nil, fmt.Errorf("Build: customer %d: %w", customerID, domain.ErrCustomerNotFound)
	}

	agreementRecs, err := b.docs.FindByKey(ctx, domain.CollectionAgreements, "customer_id", customerID)
	if err != nil {
		return nil, fmt.Errorf("Build: customer %d: agreements: %w", customerID, err)
	}
	agreements := envelope.ResolveLatest(envelope.Normalize(agreementRecs), "agreement_id")

	details := make([]domain.AgreementDetail, 0, len(agreements))
	for _, a := range agreements {
		details = append(details, buildAgreementDetail(a.Fields))
	}
	sort.Slice(details, func(i, j int) bool { return details[i].AgreementID < details[j].AgreementID })

	return &domain.AgreementProfile{
		CustomerID:       customerID,
		CustomerInfo:     buildCustomerInfo(customers[0].Fields),
		Agreements:       details,
		AgreementSummary: buildAgreementSummary(details),
		ComputedAt:       time.Now().UTC(),
	}, nil
}

func buildAgreementDetail(fields envelope.Document) domain.AgreementDetail {
	detail := domain.AgreementDetail{
		AgreementID:      decode.Int64(fields["agreement_id"], 0),
		AgreementNumber:  decode.String(fields["agreement_number"], ""),
		AgreementType:    decode.String(fields["agreement_type"], ""),
		AccountID:        decode.Int64(fields["account_id"], 0),
		PrincipalAmount:  decode.MajorUnits(fields["principal_amount"]),
		CurrentBalance:   decode.MajorUnits(fields["current_balance"]),
		InterestRate:     decode.Float64(fields["interest_rate"], 0),
		TermMonths:       decode.Int64(fields["term_months"], 0),
		PaymentAmount:    decode.MajorUnits(fields["payment_amount"]),
		PaymentFrequency: decode.String(fields["payment_frequency"], ""),
		StartDate:        dateString(fields["start_date"]),
		EndDate:          dateString(fields["end_date"]),
		Status:           decode.String(fields["status"], ""),
	}
	if meta, ok := fields["metadata"].(map[string]any); ok {
		detail.Metadata = meta
	}
	return detail
}

func buildAgreementSummary(agreements []domain.AgreementDetail) domain.AgreementSummary {
	summary := domain.AgreementSummary{
		TotalAgreements: len(agreements),
		AgreementTypes:  []string{},
	}

	totalPrincipal := decimal.Zero
	totalCurrent := decimal.Zero
	totalRate := decimal.Zero
	seenTypes := make(map[string]struct{})

	for _, a := range agreements {
		switch {
		case strings.EqualFold(a.Status, "ACTIVE"):
			summary.ActiveAgreements++
		case strings.EqualFold(a.Status, "COMPLETED"):
			summary.CompletedAgreements++
		case strings.EqualFold(a.Status, "DEFAULTED") || strings.EqualFold(a.Status, "DEFAULT"):
			summary.DefaultedAgreements++
		}

		totalPrincipal = totalPrincipal.Add(decimal.NewFromFloat(a.PrincipalAmount))
		totalCurrent = totalCurrent.Add(decimal.NewFromFloat(a.CurrentBalance))
		totalRate = totalRate.Add(decimal.NewFromFloat(a.InterestRate))

		if a.AgreementType != "" {
			if _, seen := seenTypes[a.AgreementType]; !seen {
				seenTypes[a.AgreementType] = struct{}{}
				summary.AgreementTypes = append(summary.AgreementTypes, a.AgreementType)
			}
		}
	}

	summary.TotalPrincipalAmount = totalPrincipal.InexactFloat64()
	summary.TotalCurrentBalance = totalCurrent.InexactFloat64()
	summary.TotalOutstandingBalance = totalPrincipal.Sub(totalCurrent).InexactFloat64()
	if len(agreements) > 0 {
		summary.AverageInterestRate = totalRate.
			Div(decimal.NewFromInt(int64(len(agreements)))).
			Round(6).InexactFloat64()
	}
	return summary
}
