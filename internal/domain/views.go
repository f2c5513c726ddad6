package domain

import (
	"github.com/shopspring/decimal"
)

// StructureView is a structure together with its derived totals
type StructureView struct {
	*FeeStructure
	StructureTotals
}

// NewStructureView builds the read model from an already-loaded structure
func NewStructureView(structure *FeeStructure) *StructureView {
	return &StructureView{
		FeeStructure:    structure,
		StructureTotals: TotalForStructure(structure),
	}
}

// StatementView decorates a statement with amounts the client needs to act on
type StatementView struct {
	*FeeStatement
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	OverpaidAmount decimal.Decimal `json:"overpaid_amount"`
	Currency       string          `json:"currency"`
}

func NewStatementView(statement *FeeStatement, currency string) *StatementView {
	return &StatementView{
		FeeStatement:   statement,
		PendingAmount:  PendingSum(statement.Payments),
		OverpaidAmount: statement.Overpaid(),
		Currency:       currency,
	}
}

// StudentAccount aggregates every statement issued to one student
type StudentAccount struct {
	StudentID        string          `json:"student_id"`
	Currency         string          `json:"currency"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	OverdueBalance   decimal.Decimal `json:"overdue_balance"`
	StatementCount   int             `json:"statement_count"`
	OverdueCount     int             `json:"overdue_count"`
	OutstandingCount int             `json:"outstanding_count"`
	Statements       []*FeeStatement `json:"statements"`
}

// NewStudentAccount sums already-reconciled statements
func NewStudentAccount(studentID, currency string, statements []*FeeStatement) *StudentAccount {
	account := &StudentAccount{
		StudentID:      studentID,
		Currency:       currency,
		TotalBilled:    decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalBalance:   decimal.Zero,
		OverdueBalance: decimal.Zero,
		StatementCount: len(statements),
		Statements:     statements,
	}
	if account.Statements == nil {
		account.Statements = []*FeeStatement{}
	}

	for _, s := range statements {
		account.TotalBilled = account.TotalBilled.Add(s.TotalAmount)
		account.TotalPaid = account.TotalPaid.Add(s.PaidAmount)
		account.TotalBalance = account.TotalBalance.Add(s.Balance)
		if s.Status == StatementStatusOverdue {
			account.OverdueCount++
			account.OverdueBalance = account.OverdueBalance.Add(s.Balance)
		}
		if s.Balance.IsPositive() {
			account.OutstandingCount++
		}
	}

	return account
}
