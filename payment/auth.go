package payment

import (
	"context"
	"strconv"
	"strings"

	"fiadopay/model"
)

const bearerPrefix = "Bearer FAKE-"

// merchantFromAuth resolves a fake bearer credential of the shape
// "Bearer FAKE-<merchant id>" to an ACTIVE merchant.
func (s *Service) merchantFromAuth(ctx context.Context, auth string) (*model.Merchant, error) {
	if !strings.HasPrefix(auth, bearerPrefix) {
		return nil, ErrUnauthenticated
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(auth, bearerPrefix), 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	m, err := s.merchants.FindMerchant(ctx, id)
	if err != nil || m == nil || m.Status != model.MerchantActive {
		return nil, ErrUnauthenticated
	}
	return m, nil
}
