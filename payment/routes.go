package payment

import "net/http"

func RegisterRoutes(mux *http.ServeMux, svc *Service) {
	h := NewHandler(svc)

	mux.HandleFunc("/v1/payments", h.Create())
	mux.HandleFunc("/v1/payments/", h.Get())
	mux.HandleFunc("/v1/refunds", h.Refund())
}
