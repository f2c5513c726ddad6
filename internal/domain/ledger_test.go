package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func item(amount int64, mandatory, active bool) *FeeStructureItem {
	return &FeeStructureItem{
		ID:          uuid.New(),
		Category:    "tuition",
		Amount:      decimal.NewFromInt(amount),
		IsMandatory: mandatory,
		IsActive:    active,
	}
}

func payment(amount int64, status string) *FeePayment {
	return &FeePayment{
		ID:     uuid.New(),
		Amount: decimal.NewFromInt(amount),
		Status: status,
	}
}

func TestTotalForStructure(t *testing.T) {
	tests := []struct {
		name              string
		items             []*FeeStructureItem
		expectedMandatory int64
		expectedOptional  int64
		expectedTotal     int64
	}{
		{
			name:              "mandatory and optional items",
			items:             []*FeeStructureItem{item(100000, true, true), item(20000, false, true)},
			expectedMandatory: 100000,
			expectedOptional:  20000,
			expectedTotal:     120000,
		},
		{
			name:              "inactive items are excluded",
			items:             []*FeeStructureItem{item(100000, true, true), item(20000, false, true), item(5000, true, false)},
			expectedMandatory: 100000,
			expectedOptional:  20000,
			expectedTotal:     120000,
		},
		{
			name:          "no items",
			items:         nil,
			expectedTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := TotalForStructure(&FeeStructure{Items: tt.items})

			assert.True(t, totals.Mandatory.Equal(decimal.NewFromInt(tt.expectedMandatory)), "mandatory %s", totals.Mandatory)
			assert.True(t, totals.Optional.Equal(decimal.NewFromInt(tt.expectedOptional)), "optional %s", totals.Optional)
			assert.True(t, totals.Total.Equal(decimal.NewFromInt(tt.expectedTotal)), "total %s", totals.Total)
		})
	}
}

func TestTotalForStructure_OrderIndependent(t *testing.T) {
	items := []*FeeStructureItem{item(100000, true, true), item(20000, false, true), item(7500, false, true), item(300, true, false)}
	reversed := make([]*FeeStructureItem, len(items))
	for i := range items {
		reversed[len(items)-1-i] = items[i]
	}

	forward := TotalForStructure(&FeeStructure{Items: items})
	backward := TotalForStructure(&FeeStructure{Items: reversed})

	assert.True(t, forward.Total.Equal(backward.Total))
	assert.True(t, forward.Mandatory.Equal(backward.Mandatory))
	assert.True(t, forward.Optional.Equal(backward.Optional))
}

func TestTotalForStructure_AddThenDeactivate(t *testing.T) {
	structure := &FeeStructure{Items: []*FeeStructureItem{item(100000, true, true), item(20000, false, true)}}
	before := TotalForStructure(structure)

	added := item(15000, true, true)
	structure.Items = append(structure.Items, added)
	require.True(t, TotalForStructure(structure).Total.Equal(decimal.NewFromInt(135000)))

	added.IsActive = false
	after := TotalForStructure(structure)

	assert.True(t, before.Total.Equal(after.Total))
	assert.True(t, before.Mandatory.Equal(after.Mandatory))
}

func TestRecompute(t *testing.T) {
	total := decimal.NewFromInt(120000)

	tests := []struct {
		name            string
		paid            int64
		dueDate         time.Time
		expectedStatus  string
		expectedBalance int64
	}{
		{"nothing paid, not due", 0, now.AddDate(0, 0, 7), StatementStatusUnpaid, 120000},
		{"nothing paid, due yesterday", 0, now.AddDate(0, 0, -1), StatementStatusOverdue, 120000},
		{"nothing paid, due exactly now", 0, now, StatementStatusUnpaid, 120000},
		{"partially paid, not due", 50000, now.AddDate(0, 0, 7), StatementStatusPartial, 70000},
		{"partially paid, due yesterday", 50000, now.AddDate(0, 0, -1), StatementStatusOverdue, 70000},
		{"fully paid", 120000, now.AddDate(0, 0, 7), StatementStatusPaid, 0},
		{"fully paid, due yesterday", 120000, now.AddDate(0, 0, -1), StatementStatusPaid, 0},
		{"overpaid, due yesterday", 130000, now.AddDate(0, 0, -1), StatementStatusPaid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &FeeStatement{
				TotalAmount: total,
				PaidAmount:  decimal.NewFromInt(tt.paid),
				DueDate:     tt.dueDate,
			}

			s.Recompute(now)

			assert.Equal(t, tt.expectedStatus, s.Status)
			assert.True(t, s.Balance.Equal(decimal.NewFromInt(tt.expectedBalance)), "balance %s", s.Balance)
		})
	}
}

func TestRecompute_BalancePlusPaidEqualsTotal(t *testing.T) {
	total := decimal.NewFromInt(120000)
	dueDates := []time.Time{now.AddDate(0, 0, -30), now, now.AddDate(0, 1, 0)}

	for paid := int64(0); paid <= 120000; paid += 7500 {
		for _, due := range dueDates {
			s := &FeeStatement{TotalAmount: total, PaidAmount: decimal.NewFromInt(paid), DueDate: due}
			s.Recompute(now)

			assert.True(t, s.Balance.Add(s.PaidAmount).Equal(total), "paid=%d due=%s", paid, due)

			switch {
			case paid == 120000:
				assert.Equal(t, StatementStatusPaid, s.Status)
			case due.Before(now):
				assert.Equal(t, StatementStatusOverdue, s.Status)
			case paid == 0:
				assert.Equal(t, StatementStatusUnpaid, s.Status)
			default:
				assert.Equal(t, StatementStatusPartial, s.Status)
			}
		}
	}
}

func TestNewFeeStatement_SnapshotsStructureTotal(t *testing.T) {
	structure := &FeeStructure{
		ID:    uuid.New(),
		Items: []*FeeStructureItem{item(100000, true, true), item(20000, false, true)},
	}

	s := NewFeeStatement("FS-2026-0001", "STU-1", structure, now.AddDate(0, 1, 0), now)

	assert.Equal(t, structure.ID, s.FeeStructureID)
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(120000)))
	assert.True(t, s.PaidAmount.IsZero())
	assert.True(t, s.Balance.Equal(s.TotalAmount))
	assert.Equal(t, StatementStatusUnpaid, s.Status)

	// a later change to the structure does not reach the statement
	structure.Items = append(structure.Items, item(50000, true, true))
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(120000)))
}

func TestReconcile_LedgerScenario(t *testing.T) {
	statement := &FeeStatement{
		StatementNumber: "FS-2026-0002",
		TotalAmount:     decimal.NewFromInt(120000),
		PaidAmount:      decimal.Zero,
		Balance:         decimal.NewFromInt(120000),
		Status:          StatementStatusUnpaid,
		DueDate:         now.AddDate(0, 0, 14),
	}

	// first payment of 50,000 completes
	payments := []*FeePayment{payment(50000, PaymentStatusCompleted)}
	afterFirst := Reconcile(statement, payments, now)

	assert.True(t, afterFirst.PaidAmount.Equal(decimal.NewFromInt(50000)))
	assert.True(t, afterFirst.Balance.Equal(decimal.NewFromInt(70000)))
	assert.Equal(t, StatementStatusPartial, afterFirst.Status)

	// second payment of 70,000 settles the statement
	payments = append(payments, payment(70000, PaymentStatusCompleted))
	afterSecond := Reconcile(afterFirst, payments, now)

	assert.True(t, afterSecond.PaidAmount.Equal(decimal.NewFromInt(120000)))
	assert.True(t, afterSecond.Balance.IsZero())
	assert.Equal(t, StatementStatusPaid, afterSecond.Status)

	// the inputs were not mutated
	assert.True(t, statement.PaidAmount.IsZero())
	assert.Equal(t, StatementStatusUnpaid, statement.Status)
	assert.Equal(t, StatementStatusPartial, afterFirst.Status)
}

// Only completed payments count toward the paid amount; a recorded but
// unconfirmed payment leaves the statement untouched.
func TestReconcile_IgnoresNonCompletedPayments(t *testing.T) {
	statement := &FeeStatement{
		TotalAmount: decimal.NewFromInt(120000),
		DueDate:     now.AddDate(0, 0, 14),
	}
	payments := []*FeePayment{
		payment(50000, PaymentStatusPending),
		payment(20000, PaymentStatusFailed),
		payment(10000, PaymentStatusCancelled),
	}

	result := Reconcile(statement, payments, now)

	assert.True(t, result.PaidAmount.IsZero())
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(120000)))
	assert.Equal(t, StatementStatusUnpaid, result.Status)
	assert.True(t, PendingSum(payments).Equal(decimal.NewFromInt(50000)))
}

func TestReconcile_RepairsDriftedRunningTotal(t *testing.T) {
	statement := &FeeStatement{
		TotalAmount: decimal.NewFromInt(120000),
		PaidAmount:  decimal.NewFromInt(90000), // stale stored total
		Status:      StatementStatusPartial,
		DueDate:     now.AddDate(0, 0, 14),
	}

	result := Reconcile(statement, []*FeePayment{payment(50000, PaymentStatusCompleted)}, now)

	assert.True(t, result.PaidAmount.Equal(decimal.NewFromInt(50000)))
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(70000)))
	assert.True(t, statement.Changed(result))
	assert.False(t, result.Changed(result))
}

func TestFeePayment_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusPending, PaymentStatusPending, false},
		{PaymentStatusCompleted, PaymentStatusCancelled, false},
		{PaymentStatusFailed, PaymentStatusCompleted, false},
		{PaymentStatusPending, "refunded", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			p := &FeePayment{Status: tt.from}
			assert.Equal(t, tt.expected, p.CanTransitionTo(tt.to))
		})
	}
}

func TestNewStudentAccount(t *testing.T) {
	statements := []*FeeStatement{
		{TotalAmount: decimal.NewFromInt(120000), PaidAmount: decimal.NewFromInt(120000), Balance: decimal.Zero, Status: StatementStatusPaid},
		{TotalAmount: decimal.NewFromInt(100000), PaidAmount: decimal.NewFromInt(40000), Balance: decimal.NewFromInt(60000), Status: StatementStatusOverdue},
		{TotalAmount: decimal.NewFromInt(80000), PaidAmount: decimal.Zero, Balance: decimal.NewFromInt(80000), Status: StatementStatusUnpaid},
	}

	account := NewStudentAccount("STU-9", "UGX", statements)

	assert.True(t, account.TotalBilled.Equal(decimal.NewFromInt(300000)))
	assert.True(t, account.TotalPaid.Equal(decimal.NewFromInt(160000)))
	assert.True(t, account.TotalBalance.Equal(decimal.NewFromInt(140000)))
	assert.True(t, account.OverdueBalance.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, 3, account.StatementCount)
	assert.Equal(t, 1, account.OverdueCount)
	assert.Equal(t, 2, account.OutstandingCount)
}

func TestNewStatementView(t *testing.T) {
	s := &FeeStatement{
		TotalAmount: decimal.NewFromInt(100),
		PaidAmount:  decimal.NewFromInt(110),
		Payments:    []*FeePayment{payment(110, PaymentStatusCompleted), payment(25, PaymentStatusPending)},
	}

	view := NewStatementView(s, "UGX")

	assert.True(t, view.PendingAmount.Equal(decimal.NewFromInt(25)))
	assert.True(t, view.OverpaidAmount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "UGX", view.Currency)
}
