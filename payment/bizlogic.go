package payment

import (
	"context"
	"encoding/json"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"fiadopay/model"
	"fiadopay/registry"
)

// Settings are the tunables of the asynchronous settlement step.
type Settings struct {
	ProcessingDelay time.Duration
	FailureRate     float64 // probability that the simulated network declines
}

type Service struct {
	merchants MerchantStore
	payments  PaymentStore
	registry  *registry.Registry
	settler   Executor
	notifier  Notifier
	producer  sarama.SyncProducer
	topic     string
	cfg       Settings
}

func NewService(
	merchants MerchantStore,
	payments PaymentStore,
	reg *registry.Registry,
	settler Executor,
	notifier Notifier,
	producer sarama.SyncProducer,
	topic string,
	cfg Settings,
) *Service {
	return &Service{
		merchants: merchants,
		payments:  payments,
		registry:  reg,
		settler:   settler,
		notifier:  notifier,
		producer:  producer,
		topic:     topic,
		cfg:       cfg,
	}
}

// CreatePayment authenticates the merchant, replays idempotent requests,
// prices the payment via its method handler, persists it PENDING and hands
// settlement to the worker pool. The caller gets the PENDING representation
// back without waiting for settlement.
func (s *Service) CreatePayment(ctx context.Context, auth, idempotencyKey string, req model.PaymentRequest) (model.PaymentResponse, error) {
	merchant, err := s.merchantFromAuth(ctx, auth)
	if err != nil {
		return model.PaymentResponse{}, err
	}

	if strings.TrimSpace(req.Method) == "" ||
		len(req.Currency) != 3 ||
		!req.Amount.IsPositive() {
		return model.PaymentResponse{}, ErrInvalidRequest
	}

	if idempotencyKey != "" {
		existing, err := s.payments.FindByIdempotencyKey(ctx, idempotencyKey, merchant.ID)
		if err != nil {
			return model.PaymentResponse{}, err
		}
		if existing != nil {
			return toResponse(existing), nil
		}
	}

	installments := req.Installments
	if installments < 1 {
		installments = 1
	}

	now := time.Now().UTC()
	p := &model.Payment{
		ID:              "pay_" + shortID(),
		MerchantID:      merchant.ID,
		Method:          strings.ToUpper(req.Method),
		Amount:          req.Amount,
		Currency:        strings.ToUpper(req.Currency),
		Installments:    installments,
		IdempotencyKey:  idempotencyKey,
		MetadataOrderID: req.MetadataOrderID,
		Status:          model.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if h := s.registry.Handler(req.Method); h != nil {
		h.Process(p, req)
	} else {
		p.Total = req.Amount
	}

	if err := s.payments.SavePayment(ctx, p); err != nil {
		return model.PaymentResponse{}, err
	}

	id := p.ID
	s.settler.Submit(func() { s.settle(id) })

	return toResponse(p), nil
}

// settle runs on a settlement worker. It carries only the payment id and
// reloads current state before acting, so a refund that lands first wins.
// Failures here are logged; no caller is waiting.
func (s *Service) settle(id string) {
	time.Sleep(s.cfg.ProcessingDelay)

	ctx := context.Background()
	p, err := s.payments.FindPayment(ctx, id)
	if err != nil || p == nil {
		log.Printf("settle %s: load failed: %v", id, err)
		return
	}
	if p.Status != model.PaymentPending {
		return
	}

	approved := rand.Float64() > s.cfg.FailureRate
	merchant, err := s.merchants.FindMerchant(ctx, p.MerchantID)
	if err != nil {
		log.Printf("settle %s: merchant lookup failed: %v", id, err)
	}

	fraud := false
	for _, rule := range s.registry.FraudRules() {
		if rule.IsFraud(p, merchant) {
			fraud = true
			break
		}
	}

	if fraud || !approved {
		p.Status = model.PaymentDeclined
	} else {
		p.Status = model.PaymentApproved
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.payments.SavePayment(ctx, p); err != nil {
		log.Printf("settle %s: save failed: %v", id, err)
		return
	}

	s.publish(p)
	s.notifier.Notify(p)
}

func (s *Service) GetPayment(ctx context.Context, id string) (model.PaymentResponse, error) {
	p, err := s.payments.FindPayment(ctx, id)
	if err != nil {
		return model.PaymentResponse{}, err
	}
	if p == nil {
		return model.PaymentResponse{}, ErrNotFound
	}
	return toResponse(p), nil
}

// Refund marks an owned payment REFUNDED and notifies the merchant. The
// returned refund request is PENDING; the refund itself settles elsewhere.
func (s *Service) Refund(ctx context.Context, auth, paymentID string) (model.RefundResponse, error) {
	merchant, err := s.merchantFromAuth(ctx, auth)
	if err != nil {
		return model.RefundResponse{}, err
	}

	p, err := s.payments.FindPayment(ctx, paymentID)
	if err != nil {
		return model.RefundResponse{}, err
	}
	if p == nil {
		return model.RefundResponse{}, ErrNotFound
	}
	if p.MerchantID != merchant.ID {
		return model.RefundResponse{}, ErrForbidden
	}

	p.Status = model.PaymentRefunded
	p.UpdatedAt = time.Now().UTC()
	if err := s.payments.SavePayment(ctx, p); err != nil {
		return model.RefundResponse{}, err
	}

	s.publish(p)
	s.notifier.Notify(p)

	return model.RefundResponse{ID: "ref_" + shortID(), Status: "PENDING"}, nil
}

// publish mirrors every status change onto the Kafka topic. The producer is
// optional; without one only webhooks carry the event.
func (s *Service) publish(p *model.Payment) {
	if s.producer == nil {
		return
	}

	ev := struct {
		Type       string `json:"type"`
		PaymentID  string `json:"payment_id"`
		MerchantID int64  `json:"merchant_id"`
		Status     string `json:"status"`
		OccurredAt string `json:"occurred_at"`
	}{
		Type:       "payment.updated",
		PaymentID:  p.ID,
		MerchantID: p.MerchantID,
		Status:     string(p.Status),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("publish %s: marshal failed: %v", p.ID, err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(p.ID),
		Value: sarama.ByteEncoder(b),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		log.Printf("publish %s: send failed: %v", p.ID, err)
	}
}

func toResponse(p *model.Payment) model.PaymentResponse {
	return model.PaymentResponse{
		ID:           p.ID,
		Status:       string(p.Status),
		Method:       p.Method,
		Amount:       p.Amount,
		Installments: p.Installments,
		InterestRate: p.InterestRate,
		Total:        p.Total,
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
