package mocks

import (
	"context"

	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockStatementCache struct {
	mock.Mock
}

func (m *MockStatementCache) Get(ctx context.Context, number string) (*domain.FeeStatement, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStatement), args.Error(1)
}

func (m *MockStatementCache) Set(ctx context.Context, statement *domain.FeeStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementCache) Delete(ctx context.Context, number string) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendReminder(statement *domain.FeeStatement) error {
	args := m.Called(statement)
	return args.Error(0)
}
