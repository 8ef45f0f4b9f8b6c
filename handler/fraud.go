package handler

import (
	"github.com/shopspring/decimal"

	"fiadopay/model"
)

// AntiFraudRule is a pure predicate over a payment and its merchant. A nil
// merchant must be tolerated and means "not enough information": rules return
// false rather than flagging blind.
type AntiFraudRule interface {
	Name() string
	IsFraud(p *model.Payment, m *model.Merchant) bool
}

// HighAmountRule flags payments whose amount strictly exceeds the threshold.
type HighAmountRule struct {
	Threshold decimal.Decimal
}

// DefaultHighAmountThreshold is the cutoff applied when none is configured.
var DefaultHighAmountThreshold = decimal.NewFromInt(5000)

func NewHighAmountRule(threshold decimal.Decimal) *HighAmountRule {
	return &HighAmountRule{Threshold: threshold}
}

func (r *HighAmountRule) Name() string { return "HighAmount" }

func (r *HighAmountRule) IsFraud(p *model.Payment, m *model.Merchant) bool {
	if m == nil {
		return false
	}
	return p.Amount.GreaterThan(r.Threshold)
}
