package pos

import "time"

// ReportKind selects the intraday X snapshot or the final Z reading.
type ReportKind string

const (
	ReportX ReportKind = "X"
	ReportZ ReportKind = "Z"
)

// Report summarises a session's sales and cash position. Sales aggregate
// by payment method with CASH broken out, CREDIT_CARD and DEBIT_CARD
// grouped as cards, and everything else as other.
type Report struct {
	Kind          ReportKind
	SessionID     int64
	SessionStatus SessionStatus
	GeneratedAt   time.Time

	OpeningAmount float64
	CashIn        float64
	CashOut       float64

	CashSales  float64
	CardSales  float64
	OtherSales float64
	TotalSales float64

	Refunds      float64
	ExpectedCash float64

	// DeclaredCashAmount and Difference are nil on X reports; Z reports
	// surface the closed session's reconciliation.
	DeclaredCashAmount *float64
	Difference         *float64

	SalesByMethod map[PaymentMethod]float64
}

// BuildReport folds a session's movements into a report. Z reports demand
// a CLOSED session; X reports snapshot active or closed ones alike.
func BuildReport(kind ReportKind, session Session, movements []Movement, at time.Time) (Report, error) {
	switch kind {
	case ReportX:
	case ReportZ:
		if session.Status != SessionStatusClosed {
			return Report{}, ErrSessionNotClosed
		}
	default:
		return Report{}, ErrInvalidReportKind
	}

	report := Report{
		Kind:          kind,
		SessionID:     session.ID,
		SessionStatus: session.Status,
		GeneratedAt:   at,
		OpeningAmount: session.OpeningAmount,
		SalesByMethod: make(map[PaymentMethod]float64),
	}

	for _, m := range movements {
		switch m.Type {
		case MovementCashIn:
			report.CashIn += m.Amount
		case MovementCashOut:
			report.CashOut += m.Amount
		case MovementSale:
			method := PaymentOther
			if m.PaymentMethod != nil {
				method = *m.PaymentMethod
			}
			report.SalesByMethod[method] += m.Amount
			report.TotalSales += m.Amount
			switch method {
			case PaymentCash:
				report.CashSales += m.Amount
			case PaymentCreditCard, PaymentDebitCard:
				report.CardSales += m.Amount
			default:
				report.OtherSales += m.Amount
			}
		case MovementRefund:
			report.Refunds += m.Amount
		}
	}

	report.ExpectedCash = ExpectedCash(movements)

	if kind == ReportZ {
		report.DeclaredCashAmount = session.ClosingAmount
		report.Difference = session.Difference
	}
	return report, nil
}
