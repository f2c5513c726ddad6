package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/domain"
)

// LedgerUpdate runs inside the reconciliation transaction. It receives the locked
// statement with its payments and returns the statement to store together with
// the payments whose status it changed. Returning an error rolls everything back.
type LedgerUpdate func(statement *domain.FeeStatement, payments []*domain.FeePayment) (*domain.FeeStatement, []*domain.FeePayment, error)

// FeeStructureRepository defines the interface for fee structure data operations
type FeeStructureRepository interface {
	// Create stores a structure together with its items
	Create(ctx context.Context, structure *domain.FeeStructure) error

	// GetByID retrieves a structure with all of its items
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error)

	// List retrieves structures matching the filter, items included
	List(ctx context.Context, filter domain.StructureFilter) ([]*domain.FeeStructure, error)

	// AddItem attaches a new item to a structure; ErrStructureIssued once a statement references it
	AddItem(ctx context.Context, item *domain.FeeStructureItem) error

	// SetItemActive toggles the active flag of one item
	SetItemActive(ctx context.Context, structureID, itemID uuid.UUID, active bool) error

	// SetActive toggles the active flag of a structure
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// FeeStatementRepository defines the interface for fee statement data operations
type FeeStatementRepository interface {
	// Create stores a newly issued statement
	Create(ctx context.Context, statement *domain.FeeStatement) error

	// GetByNumber retrieves a statement by its statement number
	GetByNumber(ctx context.Context, number string) (*domain.FeeStatement, error)

	// GetByStudentAndStructure retrieves the statement issued to a student for a structure
	GetByStudentAndStructure(ctx context.Context, studentID string, structureID uuid.UUID) (*domain.FeeStatement, error)

	// ListByStudent retrieves every statement issued to a student
	ListByStudent(ctx context.Context, studentID string) ([]*domain.FeeStatement, error)

	// ListPastDue retrieves unsettled statements due before now that are not yet marked overdue
	ListPastDue(ctx context.Context, now time.Time) ([]*domain.FeeStatement, error)

	// ListDueBetween retrieves unpaid or partial statements due in [from, to]
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.FeeStatement, error)

	// ListOverdue retrieves statements currently marked overdue
	ListOverdue(ctx context.Context) ([]*domain.FeeStatement, error)

	// Reconcile locks the statement row, applies update and persists the result atomically
	Reconcile(ctx context.Context, statementID uuid.UUID, update LedgerUpdate) (*domain.FeeStatement, error)
}

// FeePaymentRepository defines the interface for fee payment data operations
type FeePaymentRepository interface {
	// Create records a payment
	Create(ctx context.Context, payment *domain.FeePayment) error

	// GetByReference retrieves a payment by its unique reference
	GetByReference(ctx context.Context, reference string) (*domain.FeePayment, error)

	// ListByStatement retrieves all payments of a statement, oldest first
	ListByStatement(ctx context.Context, statementID uuid.UUID) ([]*domain.FeePayment, error)
}
