package models

import (
	"context"
	"sort"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
)

// Wallet is an ordered list of transactions from one exchange account or address.
type Wallet struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Transactions []*RawTransaction `json:"transactions"`
}

func NewWallet(name string) *Wallet {
	return &Wallet{ID: uuid.NewString(), Name: name}
}

// AddTransaction stamps the wallet ID on tx and appends it.
func (w *Wallet) AddTransaction(tx *RawTransaction) {
	tx.WalletID = w.ID
	w.Transactions = append(w.Transactions, tx)
}

// TransactionProcessor applies one transaction to a portfolio. A returned
// error means the transaction was skipped; the batch continues.
type TransactionProcessor interface {
	Process(ctx context.Context, p *Portfolio, tx *RawTransaction) error
}

// Portfolio is the aggregate owning wallets, holdings and taxable events.
// It is not safe for concurrent use; one batch runs at a time.
type Portfolio struct {
	DefaultCurrency string
	Wallets         []*Wallet
	Holdings        map[string]*Holding
	TaxableEvents   []TaxableEvent
}

func NewPortfolio(defaultCurrency string) (*Portfolio, error) {
	p := &Portfolio{Holdings: make(map[string]*Holding)}
	if err := p.SetDefaultCurrency(defaultCurrency); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Portfolio) AddWallet(w *Wallet) error {
	if w == nil {
		return apperrors.NewValidation("wallet", "is required")
	}
	if w.ID == "" {
		return apperrors.NewValidation("wallet.id", "is required")
	}
	for _, existing := range p.Wallets {
		if existing.ID == w.ID {
			return apperrors.NewValidation("wallet.id", "duplicate wallet "+w.ID)
		}
	}
	p.Wallets = append(p.Wallets, w)
	return nil
}

// SetDefaultCurrency accepts an ISO fiat code. Changing it after holdings
// were computed would mix units, so it is rejected then.
func (p *Portfolio) SetDefaultCurrency(code string) error {
	code = NormalizeCode(code)
	if code == "" {
		return apperrors.NewValidation("default_currency", "is required")
	}
	if !IsFiatCurrency(code) || money.GetCurrency(code) == nil {
		return apperrors.NewValidation("default_currency", "must be a fiat currency code, got "+code)
	}
	if code != p.DefaultCurrency && len(p.Holdings) > 0 {
		return apperrors.NewValidation("default_currency", "cannot change once holdings exist")
	}
	p.DefaultCurrency = code
	return nil
}

// GetOrCreate returns the holding for asset, inserting a zero one if needed.
func (p *Portfolio) GetOrCreate(asset string) *Holding {
	if p.Holdings == nil {
		p.Holdings = make(map[string]*Holding)
	}
	h, ok := p.Holdings[asset]
	if !ok {
		h = NewHolding(asset)
		p.Holdings[asset] = h
	}
	return h
}

func (p *Portfolio) AddTaxableEvent(e TaxableEvent) {
	p.TaxableEvents = append(p.TaxableEvents, e)
}

// Transactions flattens all wallets and sorts by DateTime ascending. The sort
// is stable so same-instant transactions keep wallet/import order.
func (p *Portfolio) Transactions() []*RawTransaction {
	var all []*RawTransaction
	for _, w := range p.Wallets {
		all = append(all, w.Transactions...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DateTime.Before(all[j].DateTime)
	})
	return all
}

// HoldingList returns holdings sorted by asset code.
func (p *Portfolio) HoldingList() []*Holding {
	out := make([]*Holding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// Reset drops computed state so the wallets can be processed again.
func (p *Portfolio) Reset() {
	p.Holdings = make(map[string]*Holding)
	p.TaxableEvents = nil
	for _, w := range p.Wallets {
		for _, tx := range w.Transactions {
			tx.ResetValuation()
		}
	}
}

// TransactionFailure describes a transaction skipped by the processor.
type TransactionFailure struct {
	TransactionID string    `json:"transaction_id"`
	ErrorType     ErrorType `json:"error_type"`
	Message       string    `json:"message"`
}

// CalculationReport summarises one CalculateTrades run.
type CalculationReport struct {
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`
	Flagged   int                  `json:"flagged"`
	Failures  []TransactionFailure `json:"failures,omitempty"`
}

// CalculateTrades feeds every transaction, in date order, into proc. It does
// not reset state; call Reset first when reprocessing. Only cancellation of
// ctx aborts the batch, leaving already-applied transactions in place.
func (p *Portfolio) CalculateTrades(ctx context.Context, proc TransactionProcessor) (*CalculationReport, error) {
	report := &CalculationReport{}
	for _, tx := range p.Transactions() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := proc.Process(ctx, p, tx); err != nil {
			report.Skipped++
			report.Failures = append(report.Failures, TransactionFailure{
				TransactionID: tx.ID,
				ErrorType:     tx.ErrorType,
				Message:       err.Error(),
			})
			continue
		}
		report.Processed++
		if tx.HasError() {
			report.Flagged++
		}
	}
	return report, nil
}
