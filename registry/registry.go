// Package registry holds the table mapping payment methods to their handlers
// and the ordered set of anti-fraud rules. Registration happens once during
// startup; after that the registry is read-only and safe for concurrent use
// without synchronization.
package registry

import (
	"strings"

	"fiadopay/handler"
)

type Registry struct {
	handlers map[string]handler.PaymentHandler
	rules    []handler.AntiFraudRule
}

func New() *Registry {
	return &Registry{handlers: make(map[string]handler.PaymentHandler)}
}

// Default wires the built-in method handlers and fraud rules: card with the
// given monthly rate, pix, and the high-amount rule.
func Default(cardMonthlyRate float64) *Registry {
	r := New()
	r.RegisterHandler("CARD", handler.NewCardHandler(cardMonthlyRate))
	r.RegisterHandler("PIX", &handler.PixHandler{})
	r.RegisterRule(handler.NewHighAmountRule(handler.DefaultHighAmountThreshold))
	return r
}

// RegisterHandler binds a method tag to a handler. Tags are normalized to
// upper case so lookups are case-insensitive.
func (r *Registry) RegisterHandler(method string, h handler.PaymentHandler) {
	r.handlers[strings.ToUpper(method)] = h
}

func (r *Registry) RegisterRule(rule handler.AntiFraudRule) {
	r.rules = append(r.rules, rule)
}

// Handler returns the handler for the method tag, or nil when no handler is
// registered. Callers fall back to the pass-through computation on nil.
func (r *Registry) Handler(method string) handler.PaymentHandler {
	return r.handlers[strings.ToUpper(method)]
}

// FraudRules returns the rules in registration order. Callers must not
// mutate the returned slice.
func (r *Registry) FraudRules() []handler.AntiFraudRule {
	return r.rules
}
