package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type feePaymentRepository struct {
	db *sqlx.DB
}

func NewFeePaymentRepository(db *sqlx.DB) FeePaymentRepository {
	return &feePaymentRepository{db: db}
}

const paymentColumns = `
	id, fee_statement_id, amount, payment_method, status, payment_reference, paid_at, created_at, updated_at
`

func (r *feePaymentRepository) Create(ctx context.Context, payment *domain.FeePayment) error {
	query := `
		INSERT INTO fee_payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.FeeStatementID,
		payment.Amount,
		payment.PaymentMethod,
		payment.Status,
		payment.PaymentReference,
		payment.PaidAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	return translate(err)
}

func (r *feePaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.FeePayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE payment_reference = $1`

	var payment domain.FeePayment
	if err := r.db.GetContext(ctx, &payment, query, reference); err != nil {
		return nil, translate(err)
	}

	return &payment, nil
}

func (r *feePaymentRepository) ListByStatement(ctx context.Context, statementID uuid.UUID) ([]*domain.FeePayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE fee_statement_id = $1 ORDER BY created_at`

	payments := []*domain.FeePayment{}
	if err := r.db.SelectContext(ctx, &payments, query, statementID); err != nil {
		return nil, err
	}

	return payments, nil
}
