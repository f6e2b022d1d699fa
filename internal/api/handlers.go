/**
 * @description
 * This file contains the HTTP handlers for the quote-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the pricing
 * engine behind it.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/pricing: For service logic,
 *   models, and typed validation errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/nhaphang/quote-service/internal/app"
	"github.com/nhaphang/quote-service/internal/domain"
	"github.com/nhaphang/quote-service/internal/pricing"
)

// QuoteHandlers holds the application service that handlers will use.
type QuoteHandlers struct {
	service *app.Service
}

// NewQuoteHandlers creates a new instance of QuoteHandlers.
func NewQuoteHandlers(service *app.Service) *QuoteHandlers {
	return &QuoteHandlers{service: service}
}

// quoteResponse pairs the raw cost breakdown with its display-ready invoice
// projection so web clients can render either without recomputing.
type quoteResponse struct {
	Breakdown domain.CostBreakdown `json:"breakdown"`
	Invoice   pricing.Invoice      `json:"invoice"`
}

// pricingResponse is the public view of the active pricing configuration.
// Tier groups are flattened to sorted rows; each row carries its group
// columns.
type pricingResponse struct {
	ExchangeRate      float64                   `json:"exchange_rate"`
	ServiceFeeTiers   []domain.ServiceFeeTier   `json:"service_fee_tiers"`
	ShippingRateTiers []domain.ShippingRateTier `json:"shipping_rate_tiers"`
}

type leadRequest struct {
	CustomerName string              `json:"customer_name"`
	Phone        string              `json:"phone"`
	Email        string              `json:"email"`
	Note         string              `json:"note"`
	Order        domain.OrderDetails `json:"order"`
}

type leadResponse struct {
	LeadID    string               `json:"lead_id"`
	Breakdown domain.CostBreakdown `json:"breakdown"`
}

// CreateQuoteHandler computes a landed-cost quote for the posted order.
func (h *QuoteHandlers) CreateQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var order domain.OrderDetails
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	breakdown, err := h.service.Quote(r.Context(), order)
	if err != nil {
		if code, ok := validationCode(err); ok {
			writeError(w, http.StatusBadRequest, code, err.Error())
			return
		}
		log.Printf("level=error component=api msg=\"quote failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Unable to compute quote")
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Breakdown: breakdown,
		Invoice:   pricing.BuildInvoice(order, breakdown),
	})
}

// GetPricingHandler returns the active pricing configuration as flat rows.
func (h *QuoteHandlers) GetPricingHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.LoadPricingConfig(r.Context())

	resp := pricingResponse{
		ExchangeRate:      cfg.ExchangeRate,
		ServiceFeeTiers:   make([]domain.ServiceFeeTier, 0),
		ShippingRateTiers: make([]domain.ShippingRateTier, 0),
	}
	for _, group := range cfg.ServiceFeeTiers {
		resp.ServiceFeeTiers = append(resp.ServiceFeeTiers, group...)
	}
	for _, group := range cfg.ShippingRateTiers {
		resp.ShippingRateTiers = append(resp.ShippingRateTiers, group...)
	}

	sort.Slice(resp.ServiceFeeTiers, func(i, j int) bool {
		a, b := resp.ServiceFeeTiers[i], resp.ServiceFeeTiers[j]
		if a.ShippingMethod != b.ShippingMethod {
			return a.ShippingMethod < b.ShippingMethod
		}
		if a.DepositPercent != b.DepositPercent {
			return a.DepositPercent < b.DepositPercent
		}
		return a.MinValue < b.MinValue
	})
	sort.Slice(resp.ShippingRateTiers, func(i, j int) bool {
		a, b := resp.ShippingRateTiers[i], resp.ShippingRateTiers[j]
		if a.ShippingMethod != b.ShippingMethod {
			return a.ShippingMethod < b.ShippingMethod
		}
		if a.Warehouse != b.Warehouse {
			return a.Warehouse < b.Warehouse
		}
		if a.Basis != b.Basis {
			return a.Basis < b.Basis
		}
		if a.Subtype != b.Subtype {
			return a.Subtype < b.Subtype
		}
		return a.MinValue < b.MinValue
	})

	writeJSON(w, http.StatusOK, resp)
}

// CreateLeadHandler persists a quote request with customer contact details.
func (h *QuoteHandlers) CreateLeadHandler(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.CustomerName == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "missing_contact", "customer_name and phone are required")
		return
	}

	lead := &domain.Lead{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        strings.TrimSpace(req.Email),
		Note:         strings.TrimSpace(req.Note),
		Order:        req.Order,
	}
	if err := h.service.SubmitLead(r.Context(), lead); err != nil {
		if code, ok := validationCode(err); ok {
			writeError(w, http.StatusBadRequest, code, err.Error())
			return
		}
		log.Printf("level=error component=api msg=\"lead submission failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Unable to submit lead")
		return
	}

	writeJSON(w, http.StatusCreated, leadResponse{
		LeadID:    lead.ID.String(),
		Breakdown: lead.Breakdown,
	})
}

// UpdateExchangeRateHandler stores a new CNY→VND exchange rate.
func (h *QuoteHandlers) UpdateExchangeRateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.service.UpdateExchangeRate(r.Context(), req.Rate); err != nil {
		if errors.Is(err, app.ErrInvalidExchangeRate) {
			writeError(w, http.StatusBadRequest, "invalid_exchange_rate", err.Error())
			return
		}
		log.Printf("level=error component=api msg=\"exchange rate update failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Unable to update exchange rate")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"rate": req.Rate})
}

// ReplaceServiceFeeTiersHandler swaps out one service fee tier group.
func (h *QuoteHandlers) ReplaceServiceFeeTiersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingMethod domain.ShippingMethod   `json:"shipping_method"`
		DepositPercent int                     `json:"deposit_percent"`
		Tiers          []domain.ServiceFeeTier `json:"tiers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	err := h.service.ReplaceServiceFeeTiers(r.Context(), req.ShippingMethod, req.DepositPercent, req.Tiers)
	if err != nil {
		if code, ok := validationCode(err); ok {
			writeError(w, http.StatusBadRequest, code, err.Error())
			return
		}
		log.Printf("level=error component=api msg=\"service fee tier replace failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Unable to replace service fee tiers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"tiers": len(req.Tiers)})
}

// ReplaceShippingRateTiersHandler swaps out one shipping rate tier group.
func (h *QuoteHandlers) ReplaceShippingRateTiersHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingMethod domain.ShippingMethod     `json:"shipping_method"`
		Warehouse      domain.Warehouse          `json:"warehouse"`
		Basis          domain.RateBasis          `json:"rate_basis"`
		Subtype        domain.CargoSubtype       `json:"subtype"`
		Tiers          []domain.ShippingRateTier `json:"tiers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	key := domain.ShippingRateGroupKey{
		Method:    req.ShippingMethod,
		Warehouse: req.Warehouse,
		Basis:     req.Basis,
		Subtype:   req.Subtype,
	}
	if err := h.service.ReplaceShippingRateTiers(r.Context(), key, req.Tiers); err != nil {
		if code, ok := validationCode(err); ok {
			writeError(w, http.StatusBadRequest, code, err.Error())
			return
		}
		log.Printf("level=error component=api msg=\"shipping rate tier replace failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Unable to replace shipping rate tiers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"tiers": len(req.Tiers)})
}

// ListLeadsHandler returns persisted leads for the back office.
func (h *QuoteHandlers) ListLeadsHandler(w http.ResponseWriter, r *http.Request) {
	opts := domain.LeadListOptions{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			opts.Limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			opts.Offset = v
		}
	}

	leads, err := h.service.ListLeads(r.Context(), opts)
	if err != nil {
		log.Printf("level=error component=api msg=\"lead list failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal", "Unable to list leads")
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

// validationCode maps typed domain and admin validation errors to stable
// error codes. Unknown errors report not-ok so callers fall through to 500.
func validationCode(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrUnknownShippingMethod):
		return "unknown_shipping_method", true
	case errors.Is(err, domain.ErrUnknownWarehouse):
		return "unknown_warehouse", true
	case errors.Is(err, domain.ErrInvalidDepositPercent):
		return "invalid_deposit_percent", true
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity", true
	case errors.Is(err, domain.ErrNegativeUnitPrice):
		return "negative_unit_price", true
	case errors.Is(err, domain.ErrNegativeWeight):
		return "negative_weight", true
	case errors.Is(err, domain.ErrNegativeDimension):
		return "negative_dimension", true
	case errors.Is(err, domain.ErrNegativeInternalShipping):
		return "negative_internal_shipping", true
	case errors.Is(err, app.ErrInvalidTierSchedule):
		return "invalid_tier_schedule", true
	case errors.Is(err, app.ErrInvalidExchangeRate):
		return "invalid_exchange_rate", true
	}
	return "", false
}

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}
