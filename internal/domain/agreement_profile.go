package domain

import "time"

// AgreementProfile is the agreement-centric profile document. Unlike
// CustomerProfile it is published to a message stream rather than upserted
// into a store, since it feeds the next hop of a pipeline.
type AgreementProfile struct {
	CustomerID       int64             `json:"customerId"`
	CustomerInfo     CustomerInfo      `json:"customerInfo"`
	Agreements       []AgreementDetail `json:"agreements"`
	AgreementSummary AgreementSummary  `json:"agreementSummary"`
	ComputedAt       time.Time         `json:"computedAt"`
}

type AgreementDetail struct {
	AgreementID      int64          `json:"agreementId"`
	AgreementNumber  string         `json:"agreementNumber,omitempty"`
	AgreementType    string         `json:"agreementType,omitempty"`
	AccountID        int64          `json:"accountId,omitempty"`
	PrincipalAmount  float64        `json:"principalAmount"`
	CurrentBalance   float64        `json:"currentBalance"`
	InterestRate     float64        `json:"interestRate"`
	TermMonths       int64          `json:"termMonths,omitempty"`
	PaymentAmount    float64        `json:"paymentAmount"`
	PaymentFrequency string         `json:"paymentFrequency,omitempty"`
	StartDate        string         `json:"startDate,omitempty"`
	EndDate          string         `json:"endDate,omitempty"`
	Status           string         `json:"status,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

type AgreementSummary struct {
	TotalAgreements         int      `json:"totalAgreements"`
	ActiveAgreements        int      `json:"activeAgreements"`
	CompletedAgreements     int      `json:"completedAgreements"`
	DefaultedAgreements     int      `json:"defaultedAgreements"`
	TotalPrincipalAmount    float64  `json:"totalPrincipalAmount"`
	TotalCurrentBalance     float64  `json:"totalCurrentBalance"`
	TotalOutstandingBalance float64  `json:"totalOutstandingBalance"`
	AverageInterestRate     float64  `json:"averageInterestRate"`
	AgreementTypes          []string `json:"agreementTypes"`
}
