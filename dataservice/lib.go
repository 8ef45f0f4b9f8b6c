package dataservice

import (
	"context"
	"database/sql"

	"fiadopay/model"
)

// Store implements the merchant, payment and webhook-delivery persistence
// contracts on top of MySQL.
type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

func InitDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS merchants (
  id            BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  name          VARCHAR(120) NOT NULL,
  client_id     VARCHAR(64)  NOT NULL,
  client_secret VARCHAR(64)  NOT NULL,
  webhook_url   VARCHAR(255) NOT NULL DEFAULT '',
  status        ENUM('ACTIVE','BLOCKED') NOT NULL DEFAULT 'ACTIVE'
)`); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS payments (
  id                VARCHAR(64) PRIMARY KEY,
  merchant_id       BIGINT NOT NULL,
  method            VARCHAR(32) NOT NULL,
  amount            DECIMAL(14,2) NOT NULL,
  currency          CHAR(3) NOT NULL,
  installments      INT NOT NULL DEFAULT 1,
  interest_rate     DOUBLE NULL,
  total             DECIMAL(14,2) NOT NULL,
  idempotency_key   VARCHAR(128) NULL,
  metadata_order_id VARCHAR(64) NOT NULL DEFAULT '',
  status            ENUM('PENDING','APPROVED','DECLINED','REFUNDED') NOT NULL,
  created_at        DATETIME NOT NULL,
  updated_at        DATETIME NOT NULL,
  UNIQUE KEY uq_idem (merchant_id, idempotency_key),
  INDEX (merchant_id),
  INDEX (status)
)`); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS webhook_deliveries (
  id              BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  event_id        VARCHAR(64) NOT NULL,
  event_type      VARCHAR(64) NOT NULL,
  payment_id      VARCHAR(64) NOT NULL,
  target_url      VARCHAR(255) NOT NULL,
  signature       VARCHAR(64) NOT NULL,
  payload         TEXT NOT NULL,
  attempts        INT NOT NULL DEFAULT 0,
  delivered       BOOLEAN NOT NULL DEFAULT FALSE,
  last_attempt_at DATETIME NULL,
  INDEX (payment_id)
)`); err != nil {
		return err
	}

	return nil
}

func (s *Store) FindMerchant(ctx context.Context, id int64) (*model.Merchant, error) {
	var m model.Merchant
	err := s.DB.QueryRowContext(ctx, `
SELECT id, name, client_id, client_secret, webhook_url, status
FROM merchants WHERE id=?`, id).
		Scan(&m.ID, &m.Name, &m.ClientID, &m.ClientSecret, &m.WebhookURL, &m.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) FindPayment(ctx context.Context, id string) (*model.Payment, error) {
	return s.scanPayment(s.DB.QueryRowContext(ctx, `
SELECT id, merchant_id, method, amount, currency, installments, interest_rate,
       total, idempotency_key, metadata_order_id, status, created_at, updated_at
FROM payments WHERE id=?`, id))
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string, merchantID int64) (*model.Payment, error) {
	return s.scanPayment(s.DB.QueryRowContext(ctx, `
SELECT id, merchant_id, method, amount, currency, installments, interest_rate,
       total, idempotency_key, metadata_order_id, status, created_at, updated_at
FROM payments WHERE idempotency_key=? AND merchant_id=?`, key, merchantID))
}

func (s *Store) scanPayment(row *sql.Row) (*model.Payment, error) {
	var p model.Payment
	var idemKey sql.NullString
	err := row.Scan(&p.ID, &p.MerchantID, &p.Method, &p.Amount, &p.Currency,
		&p.Installments, &p.InterestRate, &p.Total, &idemKey,
		&p.MetadataOrderID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.IdempotencyKey = idemKey.String
	return &p, nil
}

func (s *Store) SavePayment(ctx context.Context, p *model.Payment) error {
	// NULL instead of '' keeps keyless payments out of the unique index.
	var idemKey any
	if p.IdempotencyKey != "" {
		idemKey = p.IdempotencyKey
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO payments
  (id, merchant_id, method, amount, currency, installments, interest_rate,
   total, idempotency_key, metadata_order_id, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), total=VALUES(total), interest_rate=VALUES(interest_rate),
  updated_at=VALUES(updated_at)`,
		p.ID, p.MerchantID, p.Method, p.Amount, p.Currency, p.Installments,
		p.InterestRate, p.Total, idemKey, p.MetadataOrderID, p.Status,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *Store) SaveDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	if d.ID == 0 {
		res, err := s.DB.ExecContext(ctx, `
INSERT INTO webhook_deliveries
  (event_id, event_type, payment_id, target_url, signature, payload, attempts, delivered, last_attempt_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.EventID, d.EventType, d.PaymentID, d.TargetURL, d.Signature,
			d.Payload, d.Attempts, d.Delivered, d.LastAttemptAt,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		d.ID = id
		return nil
	}

	_, err := s.DB.ExecContext(ctx, `
UPDATE webhook_deliveries
SET attempts=?, delivered=?, last_attempt_at=?
WHERE id=?`,
		d.Attempts, d.Delivered, d.LastAttemptAt, d.ID,
	)
	return err
}

func (s *Store) FindDelivery(ctx context.Context, id int64) (*model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	err := s.DB.QueryRowContext(ctx, `
SELECT id, event_id, event_type, payment_id, target_url, signature, payload,
       attempts, delivered, last_attempt_at
FROM webhook_deliveries WHERE id=?`, id).
		Scan(&d.ID, &d.EventID, &d.EventType, &d.PaymentID, &d.TargetURL,
			&d.Signature, &d.Payload, &d.Attempts, &d.Delivered, &d.LastAttemptAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
