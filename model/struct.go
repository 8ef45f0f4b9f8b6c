package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MerchantStatus string

const (
	MerchantActive  MerchantStatus = "ACTIVE"
	MerchantBlocked MerchantStatus = "BLOCKED"
)

// Merchant is read-only to the core; onboarding lives elsewhere.
type Merchant struct {
	ID           int64
	Name         string
	ClientID     string
	ClientSecret string
	WebhookURL   string
	Status       MerchantStatus
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentDeclined PaymentStatus = "DECLINED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Payment struct {
	ID              string
	MerchantID      int64
	Method          string
	Amount          decimal.Decimal
	Currency        string
	Installments    int
	InterestRate    *float64 // monthly rate in percent, set only when interest applied
	Total           decimal.Decimal
	IdempotencyKey  string
	MetadataOrderID string
	Status          PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WebhookDelivery is one notification chain for a single event. Retries
// mutate the same record; payload and signature are written once.
type WebhookDelivery struct {
	ID            int64
	EventID       string
	EventType     string
	PaymentID     string
	TargetURL     string
	Signature     string
	Payload       string
	Attempts      int
	Delivered     bool
	LastAttemptAt *time.Time
}

type PaymentRequest struct {
	Method          string          `json:"method"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	Installments    int             `json:"installments,omitempty"`
	MetadataOrderID string          `json:"metadata_order_id,omitempty"`
}

type PaymentResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments"`
	InterestRate *float64        `json:"interest_rate,omitempty"`
	Total        decimal.Decimal `json:"total"`
}

type RefundRequest struct {
	PaymentID string `json:"payment_id"`
}

type RefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
