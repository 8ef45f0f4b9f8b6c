package handler

import (
	"github.com/shopspring/decimal"

	"fiadopay/model"
)

// PaymentHandler applies method-specific pricing to a payment. Process is a
// total function: inputs it cannot price degrade to the no-interest total.
type PaymentHandler interface {
	Process(p *model.Payment, req model.PaymentRequest) *model.Payment
}

// CardHandler charges compound interest per installment when the buyer
// splits the payment.
type CardHandler struct {
	MonthlyRate float64 // percent per installment
}

func NewCardHandler(monthlyRate float64) *CardHandler {
	return &CardHandler{MonthlyRate: monthlyRate}
}

func (h *CardHandler) Process(p *model.Payment, req model.PaymentRequest) *model.Payment {
	if req.Installments > 1 {
		base := decimal.NewFromFloat(1 + h.MonthlyRate/100)
		factor := base.Pow(decimal.NewFromInt(int64(req.Installments)))
		p.Total = req.Amount.Mul(factor).Round(2)
		rate := h.MonthlyRate
		p.InterestRate = &rate
	} else {
		p.Total = req.Amount
	}
	return p
}

// PixHandler: instant transfer, single installment, never any interest.
type PixHandler struct{}

func (h *PixHandler) Process(p *model.Payment, req model.PaymentRequest) *model.Payment {
	p.Installments = 1
	p.Total = req.Amount
	return p
}
