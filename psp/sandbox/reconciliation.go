package sandbox

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/psp"
)

// feeRate is the sandbox processing fee on captured amounts.
var feeRate = decimal.RequireFromString("0.015")

type expectation struct {
	status psp.PaymentStatus
	amount psp.Money
}

// Expect records what the caller's own books say about a payment.
// ReconcilePayments compares these records with the sandbox state.
func (a *Adapter) Expect(paymentID string, status psp.PaymentStatus, amount psp.Money) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expected[paymentID] = expectation{status: status, amount: amount}
}

type reconciliationPort struct{ a *Adapter }

// ReconcilePayments compares expected records with payments created in
// [from, to). Payments without a record are MISSING_IN_INTERNAL; records
// without a payment are MISSING_IN_PSP.
func (r reconciliationPort) ReconcilePayments(ctx context.Context, from, to time.Time) ([]psp.PaymentDiscrepancy, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []psp.PaymentDiscrepancy
	for id, pay := range a.payments {
		if pay.CreatedAt.Before(from) || !pay.CreatedAt.Before(to) {
			continue
		}
		exp, ok := a.expected[id]
		if !ok {
			amount := pay.Amount
			out = append(out, psp.PaymentDiscrepancy{
				PaymentID:       id,
				Type:            psp.DiscrepancyMissingInInternal,
				Description:     "payment " + id + " has no internal record",
				PSPAmount:       &amount,
				PSPStatus:       pay.Status,
				TransactionDate: pay.CreatedAt,
			})
			continue
		}
		if d := psp.VerifyPaymentState(exp.status, exp.amount, *pay); d != nil {
			out = append(out, *d)
		}
	}
	for id, exp := range a.expected {
		if _, ok := a.payments[id]; ok {
			continue
		}
		amount := exp.amount
		out = append(out, psp.PaymentDiscrepancy{
			PaymentID:      id,
			Type:           psp.DiscrepancyMissingInPSP,
			Description:    "payment " + id + " is unknown to " + a.name,
			InternalAmount: &amount,
			InternalStatus: exp.status,
		})
	}
	slices.SortFunc(out, func(x, y psp.PaymentDiscrepancy) int {
		if c := x.TransactionDate.Compare(y.TransactionDate); c != 0 {
			return c
		}
		if x.PaymentID < y.PaymentID {
			return -1
		}
		if x.PaymentID > y.PaymentID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (r reconciliationPort) SettlementReport(ctx context.Context, day time.Time) (*psp.SettlementReport, error) {
	txs, err := r.Transactions(ctx, day)
	if err != nil {
		return nil, err
	}
	report, err := psp.Settle(startOfDay(day), txs)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &report, nil
}

func (r reconciliationPort) VerifyPaymentState(ctx context.Context, paymentID string, expectedStatus psp.PaymentStatus, expectedAmount psp.Money) (*psp.PaymentDiscrepancy, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	pay, err := a.payment(paymentID)
	if err != nil {
		return nil, err
	}
	return psp.VerifyPaymentState(expectedStatus, expectedAmount, *pay), nil
}

// Transactions lists the charges captured and refunds issued on the UTC day.
// Charges carry a 1.5% fee; refunds carry none and have negative amounts.
func (r reconciliationPort) Transactions(ctx context.Context, day time.Time) ([]psp.PSPTransaction, error) {
	a := r.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)
	inDay := func(t time.Time) bool { return !t.Before(start) && t.Before(end) }

	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.PSPTransaction
	for _, pay := range a.payments {
		if pay.AmountCaptured == nil || !inDay(pay.CreatedAt) {
			continue
		}
		captured := *pay.AmountCaptured
		out = append(out, psp.PSPTransaction{
			TransactionID:   "txn_" + pay.PaymentID,
			PaymentID:       pay.PaymentID,
			Amount:          captured,
			Fee:             psp.Money{Amount: captured.Amount.Mul(feeRate).Round(2), Currency: captured.Currency},
			Status:          psp.PaymentStatusSucceeded,
			Type:            "charge",
			TransactionDate: pay.CreatedAt,
		})
	}
	for _, ref := range a.refunds {
		if !inDay(ref.CreatedAt) {
			continue
		}
		out = append(out, psp.PSPTransaction{
			TransactionID:   "txn_" + ref.RefundID,
			PaymentID:       ref.PaymentID,
			Amount:          psp.Money{Amount: ref.Amount.Amount.Neg(), Currency: ref.Amount.Currency},
			Status:          psp.PaymentStatusRefunded,
			Type:            "refund",
			TransactionDate: ref.CreatedAt,
		})
	}
	slices.SortFunc(out, func(x, y psp.PSPTransaction) int { return x.TransactionDate.Compare(y.TransactionDate) })
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
