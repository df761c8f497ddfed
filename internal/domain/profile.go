package domain

import "time"

// CustomerProfile is the denormalized, query-optimized document the
// account/transaction variant maintains per customer. It is a pure function
// of the latest visible versions of the customer's entities; ComputedAt is
// the only field that varies between two builds over identical state.
type CustomerProfile struct {
	CustomerID   int64           `json:"customerId"`
	CustomerInfo CustomerInfo    `json:"customerInfo"`
	Accounts     []AccountDetail `json:"accounts"`
	Risk         RiskAssessment  `json:"risk"`
	ComputedAt   time.Time       `json:"computedAt"`
}

type CustomerInfo struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Status     string `json:"status,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type AccountDetail struct {
	AccountID     int64               `json:"accountId"`
	AccountNumber string              `json:"accountNumber,omitempty"`
	AccountType   string              `json:"accountType,omitempty"`
	Status        string              `json:"status,omitempty"`
	Balance       float64             `json:"balance"`
	Currency      string              `json:"currency,omitempty"`
	InterestRate  float64             `json:"interestRate"`
	CreditLimit   float64             `json:"creditLimit"`
	OpenedDate    string              `json:"openedDate,omitempty"`
	Transactions  []TransactionDetail `json:"recentTransactions"`
}

type TransactionDetail struct {
	TransactionID   int64   `json:"transactionId"`
	TransactionType string  `json:"transactionType,omitempty"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description,omitempty"`
	Date            string  `json:"transactionDate,omitempty"`
	Status          string  `json:"status,omitempty"`
}

// RiskAssessment carries the threshold-rule classification bands. The rules
// are business policy, computed by a pluggable function, not by the engine.
type RiskAssessment struct {
	BalanceBand  string `json:"balanceBand"`
	ActivityBand string `json:"activityBand"`
}
