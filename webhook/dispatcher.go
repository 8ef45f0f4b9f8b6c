// Package webhook notifies merchant endpoints of payment outcomes with
// HMAC-SHA256 signed payloads and bounded linear-backoff retry.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fiadopay/model"
)

const (
	eventType   = "payment.updated"
	maxAttempts = 5
)

type MerchantStore interface {
	FindMerchant(ctx context.Context, id int64) (*model.Merchant, error)
}

// DeliveryStore persists the notification chain. SaveDelivery assigns the
// record id on first insert.
type DeliveryStore interface {
	SaveDelivery(ctx context.Context, d *model.WebhookDelivery) error
	FindDelivery(ctx context.Context, id int64) (*model.WebhookDelivery, error)
}

type Executor interface {
	Submit(task func())
}

type Dispatcher struct {
	merchants  MerchantStore
	deliveries DeliveryStore
	pool       Executor
	client     *http.Client
	secret     string
	backoff    time.Duration // delay per accumulated attempt
}

func NewDispatcher(merchants MerchantStore, deliveries DeliveryStore, pool Executor, secret string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		merchants:  merchants,
		deliveries: deliveries,
		pool:       pool,
		client:     &http.Client{Timeout: timeout},
		secret:     secret,
		backoff:    time.Second,
	}
}

type event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

type eventData struct {
	PaymentID  string    `json:"paymentId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notify builds, signs and persists the delivery record for one payment
// event, then hands the first attempt to the webhook pool. Merchants without
// a webhook URL are skipped silently. Payload and signature are computed
// exactly once; retries reuse them verbatim.
func (d *Dispatcher) Notify(p *model.Payment) {
	ctx := context.Background()

	merchant, err := d.merchants.FindMerchant(ctx, p.MerchantID)
	if err != nil {
		log.Printf("webhook %s: merchant lookup failed: %v", p.ID, err)
		return
	}
	if merchant == nil || merchant.WebhookURL == "" {
		return
	}

	ev := event{
		ID:   "evt_" + uuid.NewString()[:8],
		Type: eventType,
		Data: eventData{
			PaymentID:  p.ID,
			Status:     string(p.Status),
			OccurredAt: time.Now().UTC(),
		},
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("webhook %s: marshal failed: %v", p.ID, err)
		return
	}

	delivery := &model.WebhookDelivery{
		EventID:   ev.ID,
		EventType: eventType,
		PaymentID: p.ID,
		TargetURL: merchant.WebhookURL,
		Signature: sign(payload, d.secret),
		Payload:   string(payload),
	}
	if err := d.deliveries.SaveDelivery(ctx, delivery); err != nil {
		log.Printf("webhook %s: save delivery failed: %v", p.ID, err)
		return
	}

	id := delivery.ID
	d.pool.Submit(func() { d.deliver(id) })
}

// deliver performs one attempt against the merchant endpoint. The outcome is
// persisted before any retry is scheduled, so each record's attempt chain is
// strictly sequential.
func (d *Dispatcher) deliver(id int64) {
	ctx := context.Background()

	rec, err := d.deliveries.FindDelivery(ctx, id)
	if err != nil || rec == nil {
		log.Printf("webhook delivery %d: load failed: %v", id, err)
		return
	}

	rec.Delivered = d.post(rec)
	rec.Attempts++
	now := time.Now().UTC()
	rec.LastAttemptAt = &now

	if err := d.deliveries.SaveDelivery(ctx, rec); err != nil {
		log.Printf("webhook delivery %d: save failed: %v", id, err)
		return
	}

	if !rec.Delivered && rec.Attempts < maxAttempts {
		wait := time.Duration(rec.Attempts) * d.backoff
		time.AfterFunc(wait, func() {
			d.pool.Submit(func() { d.deliver(id) })
		})
	}
}

func (d *Dispatcher) post(rec *model.WebhookDelivery) bool {
	req, err := http.NewRequest(http.MethodPost, rec.TargetURL, bytes.NewReader([]byte(rec.Payload)))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", rec.EventType)
	req.Header.Set("X-Signature", rec.Signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
