package psp

import "time"

// DiscrepancyType classifies a mismatch between internal records and the provider.
type DiscrepancyType string

const (
	DiscrepancyMissingInPSP         DiscrepancyType = "MISSING_IN_PSP"
	DiscrepancyMissingInInternal    DiscrepancyType = "MISSING_IN_INTERNAL"
	DiscrepancyAmountMismatch       DiscrepancyType = "AMOUNT_MISMATCH"
	DiscrepancyStatusMismatch       DiscrepancyType = "STATUS_MISMATCH"
	DiscrepancyCurrencyMismatch     DiscrepancyType = "CURRENCY_MISMATCH"
	DiscrepancyDuplicateTransaction DiscrepancyType = "DUPLICATE_TRANSACTION"
	DiscrepancyRefundMismatch       DiscrepancyType = "REFUND_MISMATCH"
)

// PaymentDiscrepancy is one reconciliation finding.
type PaymentDiscrepancy struct {
	PaymentID       string          `json:"payment_id"`
	Type            DiscrepancyType `json:"type"`
	Description     string          `json:"description"`
	InternalAmount  *Money          `json:"internal_amount,omitempty"`
	PSPAmount       *Money          `json:"psp_amount,omitempty"`
	InternalStatus  PaymentStatus   `json:"internal_status,omitempty"`
	PSPStatus       PaymentStatus   `json:"psp_status,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// PSPTransaction is a balance-affecting transaction as reported by the provider.
type PSPTransaction struct {
	TransactionID   string        `json:"transaction_id"`
	PaymentID       string        `json:"payment_id,omitempty"`
	Amount          Money         `json:"amount"`
	Fee             Money         `json:"fee"`
	Status          PaymentStatus `json:"status"`
	Type            string        `json:"type"`
	TransactionDate time.Time     `json:"transaction_date"`
}

// SettlementReport summarizes one settlement day.
type SettlementReport struct {
	SettlementDate   time.Time        `json:"settlement_date"`
	TotalAmount      Money            `json:"total_amount"`
	Fees             Money            `json:"fees"`
	NetAmount        Money            `json:"net_amount"`
	TransactionCount int              `json:"transaction_count"`
	Transactions     []PSPTransaction `json:"transactions,omitempty"`
}

// VerifyPaymentState compares an expected status and amount with what the
// provider reports and returns the first discrepancy found, or nil.
// Currency is checked before amount, and amount before status.
func VerifyPaymentState(expectedStatus PaymentStatus, expectedAmount Money, actual PaymentResponse) *PaymentDiscrepancy {
	d := PaymentDiscrepancy{
		PaymentID:       actual.PaymentID,
		InternalAmount:  &expectedAmount,
		PSPAmount:       &actual.Amount,
		InternalStatus:  expectedStatus,
		PSPStatus:       actual.Status,
		TransactionDate: actual.CreatedAt,
	}
	switch {
	case expectedAmount.Currency != actual.Amount.Currency:
		d.Type = DiscrepancyCurrencyMismatch
		d.Description = "currency " + expectedAmount.Currency + " recorded, provider reports " + actual.Amount.Currency
	case !expectedAmount.Amount.Equal(actual.Amount.Amount):
		d.Type = DiscrepancyAmountMismatch
		d.Description = "amount " + expectedAmount.String() + " recorded, provider reports " + actual.Amount.String()
	case expectedStatus != actual.Status:
		d.Type = DiscrepancyStatusMismatch
		d.Description = "status " + string(expectedStatus) + " recorded, provider reports " + string(actual.Status)
	default:
		return nil
	}
	return &d
}

// Settle builds a settlement report from the day's transactions. Fees are
// subtracted from the gross total. Every transaction must share the
// currency of the first one.
func Settle(day time.Time, txs []PSPTransaction) (SettlementReport, error) {
	report := SettlementReport{
		SettlementDate:   day,
		TransactionCount: len(txs),
		Transactions:     txs,
	}
	if len(txs) == 0 {
		return report, nil
	}

	currency := txs[0].Amount.Currency
	total := Money{Currency: currency}
	fees := Money{Currency: currency}
	var err error
	for _, tx := range txs {
		if total, err = total.Add(tx.Amount); err != nil {
			return SettlementReport{}, err
		}
		if tx.Fee.Currency == "" {
			continue
		}
		if fees, err = fees.Add(tx.Fee); err != nil {
			return SettlementReport{}, err
		}
	}
	net, err := total.Sub(fees)
	if err != nil {
		return SettlementReport{}, err
	}
	report.TotalAmount, report.Fees, report.NetAmount = total, fees, net
	return report, nil
}
