package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockFeeService struct {
	mock.Mock
}

func (m *MockFeeService) CreateStructure(ctx context.Context, request *domain.CreateStructureRequest) (*domain.StructureView, error) {
	args := m.Called(ctx, request)
	return structureView(args)
}

func (m *MockFeeService) GetStructure(ctx context.Context, id uuid.UUID) (*domain.StructureView, error) {
	args := m.Called(ctx, id)
	return structureView(args)
}

func (m *MockFeeService) GetStructureTotals(ctx context.Context, id uuid.UUID) (domain.StructureTotals, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.StructureTotals), args.Error(1)
}

func (m *MockFeeService) ListStructures(ctx context.Context, filter domain.StructureFilter) ([]*domain.StructureView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StructureView), args.Error(1)
}

func (m *MockFeeService) AddStructureItem(ctx context.Context, structureID uuid.UUID, request *domain.FeeItemRequest) (*domain.StructureView, error) {
	args := m.Called(ctx, structureID, request)
	return structureView(args)
}

func (m *MockFeeService) DeactivateStructureItem(ctx context.Context, structureID, itemID uuid.UUID) (*domain.StructureView, error) {
	args := m.Called(ctx, structureID, itemID)
	return structureView(args)
}

func (m *MockFeeService) DeactivateStructure(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeeService) IssueStatement(ctx context.Context, request *domain.IssueStatementRequest) (*domain.FeeStatement, error) {
	args := m.Called(ctx, request)
	return statement(args)
}

func (m *MockFeeService) GetStatement(ctx context.Context, number string) (*domain.StatementView, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatementView), args.Error(1)
}

func (m *MockFeeService) ReconcileStatement(ctx context.Context, number string) (*domain.FeeStatement, error) {
	args := m.Called(ctx, number)
	return statement(args)
}

func (m *MockFeeService) ListPayments(ctx context.Context, number string) ([]*domain.FeePayment, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FeePayment), args.Error(1)
}

func (m *MockFeeService) RecordPayment(ctx context.Context, number string, request *domain.RecordPaymentRequest) (*domain.FeePayment, error) {
	args := m.Called(ctx, number, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeePayment), args.Error(1)
}

func (m *MockFeeService) UpdatePaymentStatus(ctx context.Context, reference, status string) (*domain.PaymentStatusResponse, error) {
	args := m.Called(ctx, reference, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentStatusResponse), args.Error(1)
}

func (m *MockFeeService) ListStudentStatements(ctx context.Context, studentID string) ([]*domain.FeeStatement, error) {
	args := m.Called(ctx, studentID)
	return statements(args)
}

func (m *MockFeeService) GetStudentAccount(ctx context.Context, studentID string) (*domain.StudentAccount, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentAccount), args.Error(1)
}

func structureView(args mock.Arguments) (*domain.StructureView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructureView), args.Error(1)
}

func statement(args mock.Arguments) (*domain.FeeStatement, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStatement), args.Error(1)
}

// NewMockFeeService creates a new mock fee service instance
func NewMockFeeService() *MockFeeService {
	return &MockFeeService{}
}
