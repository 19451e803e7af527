package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/models"
	"github.com/tropicaldog17/coinbasis/internal/services"
)

const maxCalculateBody = 10 << 20

type PortfolioHandler struct {
	service services.PortfolioService
	logger  *zap.Logger
}

func NewPortfolioHandler(service services.PortfolioService, log *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{service: service, logger: logger.OrNop(log).With(zap.String("component", "portfolio_handler"))}
}

func (h *PortfolioHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/portfolio/calculate", h.HandleCalculate).Methods(http.MethodPost)
}

type calculateRequest struct {
	DefaultCurrency      string          `json:"default_currency"`
	RefreshCurrentPrices bool            `json:"refresh_current_prices"`
	Wallets              []walletRequest `json:"wallets"`
}

type walletRequest struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Transactions []transactionRequest `json:"transactions"`
}

type transactionRequest struct {
	ID             string       `json:"id"`
	DateTime       time.Time    `json:"date_time"`
	Type           string       `json:"type"`
	ReceivedAmount models.Money `json:"received_amount"`
	SentAmount     models.Money `json:"sent_amount"`
	FeeAmount      models.Money `json:"fee_amount"`
	Account        string       `json:"account"`
	TransactionIDs []string     `json:"transaction_ids"`
	Note           string       `json:"note"`
}

type holdingResponse struct {
	*models.Holding
	CostBasis      decimal.Decimal `json:"cost_basis"`
	MarketValue    decimal.Decimal `json:"market_value"`
	UnrealizedGain decimal.Decimal `json:"unrealized_gain"`
}

type calculateResponse struct {
	DefaultCurrency string                    `json:"default_currency"`
	Holdings        []holdingResponse         `json:"holdings"`
	TaxableEvents   []models.TaxableEventView `json:"taxable_events"`
	RealizedGain    decimal.Decimal           `json:"realized_gain"`
	Report          *models.CalculationReport `json:"report"`
	Transactions    []*models.RawTransaction  `json:"transactions"`
	PriceError      string                    `json:"price_error,omitempty"`
}

// HandleCalculate values the posted wallets.
// @Summary Calculate portfolio
// @Description Runs the average-cost valuation over all wallet transactions in date order
// @Tags portfolio
// @Accept json
// @Produce json
// @Param request body calculateRequest true "Default currency and wallets"
// @Success 200 {object} calculateResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /portfolio/calculate [post]
func (h *PortfolioHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCalculateBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid JSON: "+err.Error()))
		return
	}

	p, err := buildPortfolio(req)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.CalculateTrades(r.Context(), p)
	if err != nil {
		h.logger.Warn("calculation failed", zap.Error(err))
		writeError(w, err)
		return
	}

	resp := calculateResponse{
		DefaultCurrency: p.DefaultCurrency,
		Report:          report,
		Transactions:    p.Transactions(),
		RealizedGain:    decimal.Zero,
	}
	if req.RefreshCurrentPrices {
		if err := h.service.RefreshCurrentPrices(r.Context(), p); err != nil {
			resp.PriceError = err.Error()
		}
	}
	for _, hl := range p.HoldingList() {
		resp.Holdings = append(resp.Holdings, holdingResponse{
			Holding:        hl,
			CostBasis:      hl.CostBasis(),
			MarketValue:    hl.MarketValue(),
			UnrealizedGain: hl.UnrealizedGain(),
		})
	}
	for _, e := range p.TaxableEvents {
		resp.TaxableEvents = append(resp.TaxableEvents, e.View())
		resp.RealizedGain = resp.RealizedGain.Add(e.Gain())
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildPortfolio(req calculateRequest) (*models.Portfolio, error) {
	p, err := models.NewPortfolio(req.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	for i, wr := range req.Wallets {
		wallet := models.NewWallet(wr.Name)
		if wr.ID != "" {
			wallet.ID = wr.ID
		}
		for j, tr := range wr.Transactions {
			tx, err := buildTransaction(tr)
			if err != nil {
				return nil, fmt.Errorf("wallets[%d].transactions[%d]: %w", i, j, err)
			}
			wallet.AddTransaction(tx)
		}
		if err := p.AddWallet(wallet); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func buildTransaction(tr transactionRequest) (*models.RawTransaction, error) {
	typ, err := models.ParseTransactionType(tr.Type)
	if err != nil {
		return nil, err
	}
	in := models.TransactionInput{
		ID:             tr.ID,
		DateTime:       tr.DateTime,
		Account:        tr.Account,
		FeeAmount:      tr.FeeAmount,
		TransactionIDs: tr.TransactionIDs,
		Note:           tr.Note,
	}
	switch typ {
	case models.TransactionTypeDeposit:
		return models.NewDeposit(in, tr.ReceivedAmount)
	case models.TransactionTypeWithdrawal:
		return models.NewWithdrawal(in, tr.SentAmount)
	default:
		return models.NewTrade(in, tr.ReceivedAmount, tr.SentAmount)
	}
}
