package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type feeStatementRepository struct {
	db *sqlx.DB
}

func NewFeeStatementRepository(db *sqlx.DB) FeeStatementRepository {
	return &feeStatementRepository{db: db}
}

const statementColumns = `
	id, statement_number, student_id, fee_structure_id, total_amount, paid_amount, balance,
	status, due_date, contact_email, issued_at, updated_at
`

func (r *feeStatementRepository) Create(ctx context.Context, statement *domain.FeeStatement) error {
	query := `
		INSERT INTO fee_statements (` + statementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		statement.ID,
		statement.StatementNumber,
		statement.StudentID,
		statement.FeeStructureID,
		statement.TotalAmount,
		statement.PaidAmount,
		statement.Balance,
		statement.Status,
		statement.DueDate,
		statement.ContactEmail,
		statement.IssuedAt,
		statement.UpdatedAt,
	)

	return translate(err)
}

func (r *feeStatementRepository) GetByNumber(ctx context.Context, number string) (*domain.FeeStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM fee_statements WHERE statement_number = $1`

	var statement domain.FeeStatement
	if err := r.db.GetContext(ctx, &statement, query, number); err != nil {
		return nil, translate(err)
	}

	return &statement, nil
}

func (r *feeStatementRepository) GetByStudentAndStructure(ctx context.Context, studentID string, structureID uuid.UUID) (*domain.FeeStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM fee_statements WHERE student_id = $1 AND fee_structure_id = $2`

	var statement domain.FeeStatement
	if err := r.db.GetContext(ctx, &statement, query, studentID, structureID); err != nil {
		return nil, translate(err)
	}

	return &statement, nil
}

func (r *feeStatementRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.FeeStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM fee_statements WHERE student_id = $1 ORDER BY due_date DESC`

	return r.selectStatements(ctx, query, studentID)
}

func (r *feeStatementRepository) ListPastDue(ctx context.Context, now time.Time) ([]*domain.FeeStatement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM fee_statements
		WHERE status IN ('unpaid', 'partial') AND due_date < $1
		ORDER BY due_date
	`

	return r.selectStatements(ctx, query, now)
}

func (r *feeStatementRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.FeeStatement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM fee_statements
		WHERE status IN ('unpaid', 'partial') AND due_date >= $1 AND due_date <= $2
		ORDER BY due_date
	`

	return r.selectStatements(ctx, query, from, to)
}

func (r *feeStatementRepository) ListOverdue(ctx context.Context) ([]*domain.FeeStatement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM fee_statements
		WHERE status = 'overdue'
		ORDER BY due_date
	`

	return r.selectStatements(ctx, query)
}

func (r *feeStatementRepository) selectStatements(ctx context.Context, query string, args ...interface{}) ([]*domain.FeeStatement, error) {
	statements := []*domain.FeeStatement{}
	if err := r.db.SelectContext(ctx, &statements, query, args...); err != nil {
		return nil, err
	}
	return statements, nil
}

func (r *feeStatementRepository) Reconcile(ctx context.Context, statementID uuid.UUID, update LedgerUpdate) (*domain.FeeStatement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The row lock serializes concurrent reconciliations of the same statement
	var statement domain.FeeStatement
	lockQuery := `SELECT ` + statementColumns + ` FROM fee_statements WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &statement, lockQuery, statementID); err != nil {
		return nil, translate(err)
	}

	payments := []*domain.FeePayment{}
	paymentsQuery := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE fee_statement_id = $1 ORDER BY created_at FOR UPDATE`
	if err = tx.SelectContext(ctx, &payments, paymentsQuery, statementID); err != nil {
		return nil, err
	}

	next, changed, err := update(&statement, payments)
	if err != nil {
		return nil, err
	}

	for _, p := range changed {
		_, err = tx.ExecContext(ctx,
			`UPDATE fee_payments SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`,
			p.ID, p.Status, p.PaidAt, p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
	}

	updateQuery := `
		UPDATE fee_statements
		SET paid_amount = $2, balance = $3, status = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, updateQuery, next.ID, next.PaidAmount, next.Balance, next.Status, next.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err = requireRow(result); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return next, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
