package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/pkg/utils"
	"github.com/shopspring/decimal"
)

const (
	StatementStatusUnpaid  = "unpaid"
	StatementStatusPartial = "partial"
	StatementStatusPaid    = "paid"
	StatementStatusOverdue = "overdue"
)

// FeeStatement is the bill issued to one student against one fee structure.
type FeeStatement struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	StatementNumber string          `json:"statement_number" db:"statement_number"`
	StudentID       string          `json:"student_id" db:"student_id"`
	FeeStructureID  uuid.UUID       `json:"fee_structure_id" db:"fee_structure_id"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Balance         decimal.Decimal `json:"balance" db:"balance"`
	Status          string          `json:"status" db:"status"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	ContactEmail    string          `json:"contact_email,omitempty" db:"contact_email"`
	IssuedAt        time.Time       `json:"issued_at" db:"issued_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Payments        []*FeePayment   `json:"payments,omitempty" db:"-"`
}

// NewFeeStatement snapshots the structure total into a fresh statement.
// Later changes to the structure do not touch TotalAmount.
func NewFeeStatement(number, studentID string, structure *FeeStructure, dueDate, now time.Time) *FeeStatement {
	total := TotalForStructure(structure).Total
	statement := &FeeStatement{
		ID:              uuid.New(),
		StatementNumber: number,
		StudentID:       studentID,
		FeeStructureID:  structure.ID,
		TotalAmount:     total,
		PaidAmount:      decimal.Zero,
		Balance:         total,
		Status:          StatementStatusUnpaid,
		DueDate:         dueDate,
		IssuedAt:        now,
		UpdatedAt:       now,
	}
	statement.Recompute(now)
	return statement
}

// Recompute derives Balance and Status from PaidAmount, TotalAmount and DueDate.
// Overdue is applied last: it wins over unpaid and partial, never over paid.
func (s *FeeStatement) Recompute(now time.Time) {
	switch {
	case s.PaidAmount.GreaterThanOrEqual(s.TotalAmount):
		s.Status = StatementStatusPaid
		s.Balance = decimal.Zero
	case s.PaidAmount.IsPositive():
		s.Status = StatementStatusPartial
		s.Balance = s.TotalAmount.Sub(s.PaidAmount)
	default:
		s.Status = StatementStatusUnpaid
		s.Balance = s.TotalAmount
	}

	if utils.IsPastDue(s.DueDate, now) && s.Status != StatementStatusPaid {
		s.Status = StatementStatusOverdue
	}
}

// Reconcile returns a copy of the statement with PaidAmount re-derived from the
// completed payments and Balance/Status recomputed. The input is left untouched so a
// failed write never leaves a half-updated statement behind.
func Reconcile(statement *FeeStatement, payments []*FeePayment, now time.Time) *FeeStatement {
	next := *statement
	next.Payments = payments
	next.PaidAmount = CompletedSum(payments)
	next.Recompute(now)
	next.UpdatedAt = now
	return &next
}

// Changed reports whether reconciliation moved any derived field
func (s *FeeStatement) Changed(other *FeeStatement) bool {
	return !s.PaidAmount.Equal(other.PaidAmount) ||
		!s.Balance.Equal(other.Balance) ||
		s.Status != other.Status
}

// IsSettled reports whether the statement no longer accepts payments
func (s *FeeStatement) IsSettled() bool {
	return s.Status == StatementStatusPaid
}

// Overpaid returns how much completed payments exceed the total, if at all
func (s *FeeStatement) Overpaid() decimal.Decimal {
	if s.PaidAmount.GreaterThan(s.TotalAmount) {
		return s.PaidAmount.Sub(s.TotalAmount)
	}
	return decimal.Zero
}

// DTOs for requests and responses

type IssueStatementRequest struct {
	StudentID       string    `json:"student_id" validate:"required,max=64"`
	FeeStructureID  uuid.UUID `json:"fee_structure_id" validate:"required"`
	DueDate         time.Time `json:"due_date" validate:"required"`
	StatementNumber string    `json:"statement_number" validate:"omitempty,max=64"`
	ContactEmail    string    `json:"contact_email" validate:"omitempty,email"`
}
