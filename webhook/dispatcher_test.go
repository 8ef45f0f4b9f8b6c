package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiadopay/model"
)

type fakeMerchants struct {
	mu sync.Mutex
	m  map[int64]*model.Merchant
}

func (f *fakeMerchants) FindMerchant(_ context.Context, id int64) (*model.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.m[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

type fakeDeliveries struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*model.WebhookDelivery
}

func newFakeDeliveries() *fakeDeliveries {
	return &fakeDeliveries{records: make(map[int64]*model.WebhookDelivery)}
}

func (f *fakeDeliveries) SaveDelivery(_ context.Context, d *model.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == 0 {
		f.nextID++
		d.ID = f.nextID
	}
	cp := *d
	f.records[d.ID] = &cp
	return nil
}

func (f *fakeDeliveries) FindDelivery(_ context.Context, id int64) (*model.WebhookDelivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDeliveries) first() *model.WebhookDelivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.records {
		cp := *d
		return &cp
	}
	return nil
}

func (f *fakeDeliveries) only(t *testing.T) *model.WebhookDelivery {
	t.Helper()
	f.mu.Lock()
	require.Len(t, f.records, 1)
	f.mu.Unlock()
	return f.first()
}

type inlineExecutor struct{}

func (inlineExecutor) Submit(task func()) { task() }

func newTestDispatcher(url string, deliveries *fakeDeliveries) *Dispatcher {
	merchants := &fakeMerchants{m: map[int64]*model.Merchant{
		1: {ID: 1, Status: model.MerchantActive, WebhookURL: url},
	}}
	d := NewDispatcher(merchants, deliveries, inlineExecutor{}, "test-secret", time.Second)
	d.backoff = time.Millisecond
	return d
}

func approvedPayment() *model.Payment {
	return &model.Payment{ID: "pay_abc12345", MerchantID: 1, Status: model.PaymentApproved}
}

func TestNotify_DeliversSignedEvent(t *testing.T) {
	var (
		mu      sync.Mutex
		headers http.Header
		body    []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		headers = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	deliveries := newFakeDeliveries()
	newTestDispatcher(srv.URL, deliveries).Notify(approvedPayment())

	rec := deliveries.only(t)
	assert.True(t, rec.Delivered)
	assert.Equal(t, 1, rec.Attempts)
	require.NotNil(t, rec.LastAttemptAt)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "payment.updated", headers.Get("X-Event-Type"))

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, headers.Get("X-Signature"))

	var ev struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			PaymentID  string    `json:"paymentId"`
			Status     string    `json:"status"`
			OccurredAt time.Time `json:"occurredAt"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, rec.EventID, ev.ID)
	assert.Equal(t, "payment.updated", ev.Type)
	assert.Equal(t, "pay_abc12345", ev.Data.PaymentID)
	assert.Equal(t, "APPROVED", ev.Data.Status)
	assert.False(t, ev.Data.OccurredAt.IsZero())
}

func TestNotify_RetriesUntilSuccess(t *testing.T) {
	var (
		calls      atomic.Int64
		mu         sync.Mutex
		signatures []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		signatures = append(signatures, r.Header.Get("X-Signature"))
		mu.Unlock()
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	deliveries := newFakeDeliveries()
	newTestDispatcher(srv.URL, deliveries).Notify(approvedPayment())

	require.Eventually(t, func() bool {
		rec := deliveries.first()
		return rec != nil && rec.Delivered
	}, 2*time.Second, 5*time.Millisecond)

	rec := deliveries.only(t)
	assert.Equal(t, 3, rec.Attempts)

	// Signature is computed once per event, never per attempt.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, signatures, 3)
	assert.Equal(t, signatures[0], signatures[1])
	assert.Equal(t, signatures[0], signatures[2])
	assert.Equal(t, rec.Signature, signatures[0])
}

func TestNotify_GivesUpAfterFiveAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	deliveries := newFakeDeliveries()
	newTestDispatcher(srv.URL, deliveries).Notify(approvedPayment())

	require.Eventually(t, func() bool {
		rec := deliveries.first()
		return rec != nil && rec.Attempts == 5
	}, 2*time.Second, 5*time.Millisecond)

	// Give any stray retry time to fire; none may.
	time.Sleep(50 * time.Millisecond)

	rec := deliveries.only(t)
	assert.False(t, rec.Delivered)
	assert.Equal(t, 5, rec.Attempts)
	assert.Equal(t, int64(5), calls.Load())
}

func TestNotify_TransportErrorCountsAsFailure(t *testing.T) {
	deliveries := newFakeDeliveries()
	// Nothing listens here; every attempt is a transport error.
	d := newTestDispatcher("http://127.0.0.1:1/hooks", deliveries)
	d.Notify(approvedPayment())

	require.Eventually(t, func() bool {
		rec := deliveries.first()
		return rec != nil && rec.Attempts == 5 && !rec.Delivered
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNotify_NoWebhookURLIsNoop(t *testing.T) {
	deliveries := newFakeDeliveries()
	merchants := &fakeMerchants{m: map[int64]*model.Merchant{
		1: {ID: 1, Status: model.MerchantActive, WebhookURL: ""},
	}}
	d := NewDispatcher(merchants, deliveries, inlineExecutor{}, "s", time.Second)

	d.Notify(approvedPayment())

	deliveries.mu.Lock()
	defer deliveries.mu.Unlock()
	assert.Empty(t, deliveries.records)
}

func TestNotify_MissingMerchantIsNoop(t *testing.T) {
	deliveries := newFakeDeliveries()
	merchants := &fakeMerchants{m: map[int64]*model.Merchant{}}
	d := NewDispatcher(merchants, deliveries, inlineExecutor{}, "s", time.Second)

	d.Notify(approvedPayment())

	deliveries.mu.Lock()
	defer deliveries.mu.Unlock()
	assert.Empty(t, deliveries.records)
}
