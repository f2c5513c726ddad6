package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMobileMoney  = "mobile_money"
	PaymentMethodCard         = "card"
	PaymentMethodCheque       = "cheque"
)

// FeePayment is one payment transaction recorded against a statement.
type FeePayment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	FeeStatementID   uuid.UUID       `json:"fee_statement_id" db:"fee_statement_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod    string          `json:"payment_method" db:"payment_method"`
	Status           string          `json:"status" db:"status"`
	PaymentReference string          `json:"payment_reference" db:"payment_reference"`
	PaidAt           *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the payment counts toward the statement's paid amount
func (p *FeePayment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// CanTransitionTo reports whether a gateway may move the payment to status.
// Only pending payments move, and only to a terminal status.
func (p *FeePayment) CanTransitionTo(status string) bool {
	if p.Status != PaymentStatusPending {
		return false
	}
	switch status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// CompletedSum adds up the completed payments; pending, failed and cancelled ones never count.
func CompletedSum(payments []*FeePayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p != nil && p.IsCompleted() {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PendingSum adds up payments that are still awaiting confirmation
func PendingSum(payments []*FeePayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p != nil && p.Status == PaymentStatusPending {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// DTOs for requests

type RecordPaymentRequest struct {
	Amount           decimal.Decimal `json:"amount" validate:"decimal_gt=0,decimal_scale=2"`
	PaymentMethod    string          `json:"payment_method" validate:"required,oneof=cash bank_transfer mobile_money card cheque"`
	PaymentReference string          `json:"payment_reference" validate:"omitempty,max=100"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed failed cancelled"`
}

type PaymentStatusResponse struct {
	Payment   *FeePayment   `json:"payment"`
	Statement *FeeStatement `json:"statement"`
}
