package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/segyhp/fee-ledger/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) Create(ctx context.Context, structure *domain.FeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) List(ctx context.Context, filter domain.StructureFilter) ([]*domain.FeeStructure, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) AddItem(ctx context.Context, item *domain.FeeStructureItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) SetItemActive(ctx context.Context, structureID, itemID uuid.UUID, active bool) error {
	args := m.Called(ctx, structureID, itemID, active)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

type MockFeeStatementRepository struct {
	mock.Mock
}

func (m *MockFeeStatementRepository) Create(ctx context.Context, statement *domain.FeeStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockFeeStatementRepository) GetByNumber(ctx context.Context, number string) (*domain.FeeStatement, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStatement), args.Error(1)
}

func (m *MockFeeStatementRepository) GetByStudentAndStructure(ctx context.Context, studentID string, structureID uuid.UUID) (*domain.FeeStatement, error) {
	args := m.Called(ctx, studentID, structureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStatement), args.Error(1)
}

func (m *MockFeeStatementRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.FeeStatement, error) {
	args := m.Called(ctx, studentID)
	return statements(args)
}

func (m *MockFeeStatementRepository) ListPastDue(ctx context.Context, now time.Time) ([]*domain.FeeStatement, error) {
	args := m.Called(ctx, now)
	return statements(args)
}

func (m *MockFeeStatementRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.FeeStatement, error) {
	args := m.Called(ctx, from, to)
	return statements(args)
}

func (m *MockFeeStatementRepository) ListOverdue(ctx context.Context) ([]*domain.FeeStatement, error) {
	args := m.Called(ctx)
	return statements(args)
}

// Reconcile returns the locked statement and payments configured on the mock, then
// runs update against them the way the real transaction would.
func (m *MockFeeStatementRepository) Reconcile(ctx context.Context, statementID uuid.UUID, update repository.LedgerUpdate) (*domain.FeeStatement, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(2)
	}
	if err := args.Error(2); err != nil {
		return nil, err
	}

	statement := args.Get(0).(*domain.FeeStatement)
	var payments []*domain.FeePayment
	if p := args.Get(1); p != nil {
		payments = p.([]*domain.FeePayment)
	}

	next, _, err := update(statement, payments)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func statements(args mock.Arguments) ([]*domain.FeeStatement, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeeStatement), args.Error(1)
}

type MockFeePaymentRepository struct {
	mock.Mock
}

func (m *MockFeePaymentRepository) Create(ctx context.Context, payment *domain.FeePayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockFeePaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.FeePayment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeePayment), args.Error(1)
}

func (m *MockFeePaymentRepository) ListByStatement(ctx context.Context, statementID uuid.UUID) ([]*domain.FeePayment, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeePayment), args.Error(1)
}
