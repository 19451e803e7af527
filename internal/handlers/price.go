package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/models"
	"github.com/tropicaldog17/coinbasis/internal/services"
)

type PriceHandler struct {
	service services.PriceHistoryService
}

func NewPriceHandler(service services.PriceHistoryService) *PriceHandler {
	return &PriceHandler{service: service}
}

func (h *PriceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/prices/close", h.HandleClose).Methods(http.MethodGet)
	r.HandleFunc("/api/prices/current", h.HandleCurrent).Methods(http.MethodGet)
}

type closePriceResponse struct {
	Symbol     string          `json:"symbol"`
	Currency   string          `json:"currency"`
	Date       string          `json:"date"`
	ClosePrice decimal.Decimal `json:"close_price"`
}

type currentPricesResponse struct {
	Currency string                     `json:"currency"`
	Prices   map[string]decimal.Decimal `json:"prices"`
	Error    string                     `json:"error,omitempty"`
}

// HandleClose returns the daily close of a symbol in the default currency.
// @Summary Get close price
// @Description Close price of a symbol on a date, valued in the default currency
// @Tags prices
// @Produce json
// @Param symbol query string true "Asset symbol (e.g., BTC)"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param attempts query int false "Lookup attempts (default 3)"
// @Success 200 {object} closePriceResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /prices/close [get]
func (h *PriceHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := models.NormalizeCode(q.Get("symbol"))
	if symbol == "" {
		writeError(w, apperrors.NewValidation("symbol", "is required"))
		return
	}
	date, err := time.Parse(models.DateLayout, q.Get("date"))
	if err != nil {
		writeError(w, apperrors.NewValidation("date", "must be YYYY-MM-DD"))
		return
	}
	attempts := 0
	if s := q.Get("attempts"); s != "" {
		if attempts, err = strconv.Atoi(s); err != nil || attempts < 0 {
			writeError(w, apperrors.NewValidation("attempts", "must be a non-negative integer"))
			return
		}
	}

	price, err := h.service.GetPriceWithRetry(r.Context(), symbol, date, attempts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closePriceResponse{
		Symbol:     symbol,
		Currency:   h.service.DefaultCurrency(),
		Date:       date.Format(models.DateLayout),
		ClosePrice: price,
	})
}

// HandleCurrent returns the latest prices of a list of symbols.
// @Summary Get current prices
// @Description Latest prices, served from a one-minute cache when possible
// @Tags prices
// @Produce json
// @Param symbols query string true "Comma-separated symbols"
// @Success 200 {object} currentPricesResponse
// @Failure 400 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /prices/current [get]
func (h *PriceHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, s := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if s = models.NormalizeCode(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		writeError(w, apperrors.NewValidation("symbols", "is required"))
		return
	}

	prices, err := h.service.GetCurrentPrices(r.Context(), symbols)
	resp := currentPricesResponse{Currency: h.service.DefaultCurrency(), Prices: prices}
	if err != nil {
		if len(prices) == 0 {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
