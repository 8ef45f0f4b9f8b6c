package payment

import (
	"context"

	"fiadopay/model"
)

// MerchantStore is the read-side the pipeline needs. A missing merchant is
// (nil, nil), not an error.
type MerchantStore interface {
	FindMerchant(ctx context.Context, id int64) (*model.Merchant, error)
}

type PaymentStore interface {
	FindPayment(ctx context.Context, id string) (*model.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string, merchantID int64) (*model.Payment, error)
	SavePayment(ctx context.Context, p *model.Payment) error
}

// Executor runs a task without the submitter waiting on it.
type Executor interface {
	Submit(task func())
}

// Notifier delivers the outcome of a payment to its merchant.
type Notifier interface {
	Notify(p *model.Payment)
}
