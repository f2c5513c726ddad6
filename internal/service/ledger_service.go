package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/fee-ledger/internal/cache"
	"github.com/segyhp/fee-ledger/internal/config"
	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/segyhp/fee-ledger/internal/notify"
	"github.com/segyhp/fee-ledger/internal/repository"
	customError "github.com/segyhp/fee-ledger/pkg/errors"
	"github.com/segyhp/fee-ledger/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const studentStructureConstraint = "uq_fee_statements_student_structure"

type LedgerService struct {
	structureRepo repository.FeeStructureRepository
	statementRepo repository.FeeStatementRepository
	paymentRepo   repository.FeePaymentRepository
	cache         cache.StatementCache
	config        *config.Config
	log           *logrus.Logger
	now           func() time.Time
}

func NewLedgerService(
	structureRepo repository.FeeStructureRepository,
	statementRepo repository.FeeStatementRepository,
	paymentRepo repository.FeePaymentRepository,
	statementCache cache.StatementCache,
	config *config.Config,
	log *logrus.Logger,
) *LedgerService {
	if statementCache == nil {
		statementCache = cache.NoopStatementCache{}
	}
	return &LedgerService{
		structureRepo: structureRepo,
		statementRepo: statementRepo,
		paymentRepo:   paymentRepo,
		cache:         statementCache,
		config:        config,
		log:           log,
		now:           time.Now,
	}
}

// CreateStructure stores a new fee structure with its initial items
func (s *LedgerService) CreateStructure(ctx context.Context, request *domain.CreateStructureRequest) (*domain.StructureView, error) {
	now := s.now()
	structure := &domain.FeeStructure{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(request.Name),
		Level:        strings.TrimSpace(request.Level),
		AcademicYear: strings.TrimSpace(request.AcademicYear),
		Term:         strings.TrimSpace(request.Term),
		IsActive:     true,
		Items:        make([]*domain.FeeStructureItem, 0, len(request.Items)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, itemRequest := range request.Items {
		item, err := newItem(structure.ID, itemRequest, now)
		if err != nil {
			return nil, err
		}
		structure.Items = append(structure.Items, item)
	}

	if err := s.structureRepo.Create(ctx, structure); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	view := domain.NewStructureView(structure)
	s.log.WithFields(logrus.Fields{
		"fee_structure_id": structure.ID,
		"level":            structure.Level,
		"academic_year":    structure.AcademicYear,
		"term":             structure.Term,
		"total_fees":       view.Total.String(),
	}).Info("Fee structure created")

	return view, nil
}

func newItem(structureID uuid.UUID, request domain.FeeItemRequest, now time.Time) (*domain.FeeStructureItem, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation(fmt.Sprintf("item %q must have a positive amount", request.Category))
	}
	if !utils.HasMoneyScale(request.Amount) {
		return nil, customError.WrapValidation(fmt.Sprintf("item %q amount has more than %d decimal places", request.Category, utils.MoneyScale))
	}
	if strings.TrimSpace(request.Category) == "" {
		return nil, customError.WrapValidation("item category is required")
	}
	return &domain.FeeStructureItem{
		ID:             uuid.New(),
		FeeStructureID: structureID,
		Category:       strings.TrimSpace(request.Category),
		Description:    strings.TrimSpace(request.Description),
		Amount:         request.Amount,
		IsMandatory:    request.IsMandatory,
		IsActive:       true,
		CreatedAt:      now,
	}, nil
}

// GetStructure returns a structure with its items and freshly computed totals
func (s *LedgerService) GetStructure(ctx context.Context, id uuid.UUID) (*domain.StructureView, error) {
	structure, err := s.structureByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewStructureView(structure), nil
}

// GetStructureTotals sums the active items of a structure
func (s *LedgerService) GetStructureTotals(ctx context.Context, id uuid.UUID) (domain.StructureTotals, error) {
	structure, err := s.structureByID(ctx, id)
	if err != nil {
		return domain.StructureTotals{}, err
	}
	return domain.TotalForStructure(structure), nil
}

// ListStructures returns the structures matching the filter
func (s *LedgerService) ListStructures(ctx context.Context, filter domain.StructureFilter) ([]*domain.StructureView, error) {
	structures, err := s.structureRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	views := make([]*domain.StructureView, 0, len(structures))
	for _, structure := range structures {
		views = append(views, domain.NewStructureView(structure))
	}
	return views, nil
}

// AddStructureItem attaches an item to a structure that has not been issued yet
func (s *LedgerService) AddStructureItem(ctx context.Context, structureID uuid.UUID, request *domain.FeeItemRequest) (*domain.StructureView, error) {
	if _, err := s.structureByID(ctx, structureID); err != nil {
		return nil, err
	}

	item, err := newItem(structureID, *request, s.now())
	if err != nil {
		return nil, err
	}

	err = s.structureRepo.AddItem(ctx, item)
	switch {
	case errors.Is(err, repository.ErrStructureIssued):
		return nil, customError.WrapStructureLocked(structureID.String())
	case errors.Is(err, repository.ErrNotFound):
		return nil, customError.WrapStructureNotFound(structureID.String())
	case err != nil:
		return nil, customError.WrapDatabaseError(err)
	}

	return s.GetStructure(ctx, structureID)
}

// DeactivateStructureItem soft-deletes an item; issued statements keep their snapshot
func (s *LedgerService) DeactivateStructureItem(ctx context.Context, structureID, itemID uuid.UUID) (*domain.StructureView, error) {
	err := s.structureRepo.SetItemActive(ctx, structureID, itemID, false)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapStructureItemNotFound(itemID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.WithFields(logrus.Fields{
		"fee_structure_id": structureID,
		"item_id":          itemID,
	}).Info("Fee structure item deactivated")

	return s.GetStructure(ctx, structureID)
}

// DeactivateStructure stops a structure from being issued again
func (s *LedgerService) DeactivateStructure(ctx context.Context, id uuid.UUID) error {
	err := s.structureRepo.SetActive(ctx, id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapStructureNotFound(id.String())
	}
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.log.WithField("fee_structure_id", id).Info("Fee structure deactivated")
	return nil
}

// IssueStatement bills a student against a structure, snapshotting its current total
func (s *LedgerService) IssueStatement(ctx context.Context, request *domain.IssueStatementRequest) (*domain.FeeStatement, error) {
	studentID := strings.TrimSpace(request.StudentID)
	if studentID == "" {
		return nil, customError.WrapValidation("student_id is required")
	}
	if request.DueDate.IsZero() {
		return nil, customError.WrapValidation("due_date is required")
	}

	structure, err := s.structureByID(ctx, request.FeeStructureID)
	if err != nil {
		return nil, err
	}
	if !structure.IsActive {
		return nil, customError.WrapValidation(fmt.Sprintf("Fee structure %s is inactive", structure.ID))
	}
	if !domain.TotalForStructure(structure).Total.IsPositive() {
		return nil, customError.WrapValidation(fmt.Sprintf("Fee structure %s has no active items", structure.ID))
	}

	// Check if a statement already exists for this student and structure
	existing, err := s.statementRepo.GetByStudentAndStructure(ctx, studentID, structure.ID)
	if err == nil && existing != nil {
		return nil, customError.WrapStatementExists(
			fmt.Sprintf("Student %s already has statement %s for this fee structure", studentID, existing.StatementNumber))
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	number := strings.TrimSpace(request.StatementNumber)
	if number == "" {
		number = utils.GenerateStatementNumber(s.config.Business.StatementPrefix, now)
	} else {
		existing, err = s.statementRepo.GetByNumber(ctx, number)
		if err == nil && existing != nil {
			return nil, customError.WrapStatementExists(fmt.Sprintf("Statement number %s already exists", number))
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapDatabaseError(err)
		}
	}

	statement := domain.NewFeeStatement(number, studentID, structure, request.DueDate, now)
	statement.ContactEmail = strings.TrimSpace(request.ContactEmail)

	if err = s.statementRepo.Create(ctx, statement); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			if dup.Constraint == studentStructureConstraint {
				return nil, customError.WrapStatementExists(
					fmt.Sprintf("Student %s already has a statement for this fee structure", studentID))
			}
			return nil, customError.WrapStatementExists(fmt.Sprintf("Statement number %s already exists", number))
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.WithFields(logrus.Fields{
		"statement_number": statement.StatementNumber,
		"student_id":       statement.StudentID,
		"total_amount":     statement.TotalAmount.String(),
		"due_date":         statement.DueDate.Format(time.RFC3339),
	}).Info("Fee statement issued")

	return statement, nil
}

// GetStatement returns a statement with its payments
func (s *LedgerService) GetStatement(ctx context.Context, number string) (*domain.StatementView, error) {
	cached, err := s.cache.Get(ctx, number)
	if err != nil {
		s.log.WithError(customError.WrapCacheError(err)).WithField("statement_number", number).Warn("Statement cache read failed")
	}
	if cached != nil {
		s.refresh(cached)
		return domain.NewStatementView(cached, s.config.Business.Currency), nil
	}

	statement, err := s.statementByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByStatement(ctx, statement.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	statement.Payments = payments

	if err = s.cache.Set(ctx, statement); err != nil {
		s.log.WithError(customError.WrapCacheError(err)).WithField("statement_number", number).Warn("Statement cache write failed")
	}

	return domain.NewStatementView(statement, s.config.Business.Currency), nil
}

// ListPayments returns every payment recorded against a statement, oldest first
func (s *LedgerService) ListPayments(ctx context.Context, number string) ([]*domain.FeePayment, error) {
	statement, err := s.statementByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByStatement(ctx, statement.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// RecordPayment appends a pending payment to a statement. Statement totals are not
// touched until the payment is confirmed through UpdatePaymentStatus.
func (s *LedgerService) RecordPayment(ctx context.Context, number string, request *domain.RecordPaymentRequest) (*domain.FeePayment, error) {
	statement, err := s.statementByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if statement.IsSettled() {
		return nil, customError.WrapValidation(fmt.Sprintf("Fee statement %s is already fully paid", number))
	}
	limit := outstanding(statement)
	if !request.Amount.IsPositive() || request.Amount.GreaterThan(limit) {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String(), limit.String())
	}
	if !utils.HasMoneyScale(request.Amount) {
		return nil, customError.WrapValidation(fmt.Sprintf("amount %s has more than %d decimal places", request.Amount, utils.MoneyScale))
	}

	now := s.now()
	reference := strings.TrimSpace(request.PaymentReference)
	if reference == "" {
		reference = utils.GeneratePaymentReference(now)
	} else {
		existing, err := s.paymentRepo.GetByReference(ctx, reference)
		if err == nil && existing != nil {
			return nil, customError.WrapPaymentExists(reference)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapDatabaseError(err)
		}
	}

	payment := &domain.FeePayment{
		ID:               uuid.New(),
		FeeStatementID:   statement.ID,
		Amount:           request.Amount,
		PaymentMethod:    request.PaymentMethod,
		Status:           domain.PaymentStatusPending,
		PaymentReference: reference,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err = s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, customError.WrapPaymentExists(reference)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidate(ctx, number)
	s.log.WithFields(logrus.Fields{
		"statement_number":  number,
		"payment_reference": reference,
		"amount":            payment.Amount.String(),
		"payment_method":    payment.PaymentMethod,
	}).Info("Fee payment recorded")

	return payment, nil
}

// UpdatePaymentStatus applies a gateway confirmation to a pending payment and
// reconciles its statement in the same transaction
func (s *LedgerService) UpdatePaymentStatus(ctx context.Context, reference, status string) (*domain.PaymentStatusResponse, error) {
	switch status {
	case domain.PaymentStatusCompleted, domain.PaymentStatusFailed, domain.PaymentStatusCancelled:
	default:
		return nil, customError.WrapValidation(fmt.Sprintf("unsupported payment status %q", status))
	}

	payment, err := s.paymentRepo.GetByReference(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapPaymentNotFound(reference)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	var updated *domain.FeePayment

	statement, err := s.statementRepo.Reconcile(ctx, payment.FeeStatementID,
		func(statement *domain.FeeStatement, payments []*domain.FeePayment) (*domain.FeeStatement, []*domain.FeePayment, error) {
			for _, p := range payments {
				if p.ID != payment.ID {
					continue
				}
				// Re-check under the row lock so a payment is confirmed at most once
				if !p.CanTransitionTo(status) {
					return nil, nil, customError.WrapInvalidTransition(p.Status, status)
				}
				p.Status = status
				p.UpdatedAt = now
				if status == domain.PaymentStatusCompleted {
					paidAt := now
					p.PaidAt = &paidAt
				}
				updated = p
				return domain.Reconcile(statement, payments, now), []*domain.FeePayment{p}, nil
			}
			return nil, nil, customError.WrapPaymentNotFound(reference)
		})
	if err != nil {
		return nil, s.reconcileError(err, payment.FeeStatementID.String())
	}

	s.invalidate(ctx, statement.StatementNumber)
	s.log.WithFields(logrus.Fields{
		"statement_number":  statement.StatementNumber,
		"payment_reference": reference,
		"payment_status":    status,
		"paid_amount":       statement.PaidAmount.String(),
		"balance":           statement.Balance.String(),
		"status":            statement.Status,
	}).Info("Fee payment status updated")

	return &domain.PaymentStatusResponse{Payment: updated, Statement: statement}, nil
}

// ReconcileStatement re-derives paid amount, balance and status from the payment history
func (s *LedgerService) ReconcileStatement(ctx context.Context, number string) (*domain.FeeStatement, error) {
	statement, err := s.statementByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, statement)
}

func (s *LedgerService) reconcile(ctx context.Context, statement *domain.FeeStatement) (*domain.FeeStatement, error) {
	now := s.now()
	var previous domain.FeeStatement

	result, err := s.statementRepo.Reconcile(ctx, statement.ID,
		func(locked *domain.FeeStatement, payments []*domain.FeePayment) (*domain.FeeStatement, []*domain.FeePayment, error) {
			previous = *locked
			return domain.Reconcile(locked, payments, now), nil, nil
		})
	if err != nil {
		return nil, s.reconcileError(err, statement.StatementNumber)
	}

	s.invalidate(ctx, result.StatementNumber)
	if previous.Changed(result) {
		s.log.WithFields(logrus.Fields{
			"statement_number": result.StatementNumber,
			"previous_status":  previous.Status,
			"status":           result.Status,
			"paid_amount":      result.PaidAmount.String(),
			"balance":          result.Balance.String(),
		}).Info("Fee statement reconciled")
	}

	return result, nil
}

// ListStudentStatements returns every statement issued to a student
func (s *LedgerService) ListStudentStatements(ctx context.Context, studentID string) ([]*domain.FeeStatement, error) {
	statements, err := s.statementRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	s.refresh(statements...)
	return statements, nil
}

// GetStudentAccount aggregates a student's statements into one balance
func (s *LedgerService) GetStudentAccount(ctx context.Context, studentID string) (*domain.StudentAccount, error) {
	statements, err := s.ListStudentStatements(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return domain.NewStudentAccount(studentID, s.config.Business.Currency, statements), nil
}

// RefreshOverdue reconciles unsettled statements whose due date has passed.
// It returns how many statements became overdue; failures are collected, not fatal.
func (s *LedgerService) RefreshOverdue(ctx context.Context) (int, error) {
	statements, err := s.statementRepo.ListPastDue(ctx, s.now())
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	var (
		marked int
		errs   []error
	)
	for _, statement := range statements {
		result, err := s.reconcile(ctx, statement)
		if err != nil {
			s.log.WithError(err).WithField("statement_number", statement.StatementNumber).Error("Overdue refresh failed")
			errs = append(errs, err)
			continue
		}
		if result.Status == domain.StatementStatusOverdue {
			marked++
		}
	}

	s.log.WithFields(logrus.Fields{
		"checked": len(statements),
		"overdue": marked,
		"failed":  len(errs),
	}).Info("Overdue refresh completed")

	return marked, errors.Join(errs...)
}

// DueSoon lists unpaid or partial statements falling due within window
func (s *LedgerService) DueSoon(ctx context.Context, window time.Duration) ([]*domain.FeeStatement, error) {
	now := s.now()
	statements, err := s.statementRepo.ListDueBetween(ctx, now, now.Add(window))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	s.refresh(statements...)
	return statements, nil
}

// SendReminders notifies the billing contact of every statement due soon or overdue
func (s *LedgerService) SendReminders(ctx context.Context, notifier notify.Notifier) (int, error) {
	dueSoon, err := s.DueSoon(ctx, s.config.ReminderWindow())
	if err != nil {
		return 0, err
	}
	overdue, err := s.statementRepo.ListOverdue(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	s.refresh(overdue...)

	var (
		sent int
		errs []error
	)
	for _, statement := range append(dueSoon, overdue...) {
		if statement.ContactEmail == "" || !statement.Balance.IsPositive() {
			continue
		}
		if err := notifier.SendReminder(statement); err != nil {
			errs = append(errs, fmt.Errorf("statement %s: %w", statement.StatementNumber, err))
			continue
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{
		"due_soon": len(dueSoon),
		"overdue":  len(overdue),
		"sent":     sent,
		"failed":   len(errs),
	}).Info("Fee reminders dispatched")

	return sent, errors.Join(errs...)
}

func (s *LedgerService) structureByID(ctx context.Context, id uuid.UUID) (*domain.FeeStructure, error) {
	structure, err := s.structureRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapStructureNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return structure, nil
}

func (s *LedgerService) statementByNumber(ctx context.Context, number string) (*domain.FeeStatement, error) {
	statement, err := s.statementRepo.GetByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapStatementNotFound(number)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	s.refresh(statement)
	return statement, nil
}

// refresh re-derives balance and status against the current time; stored status only
// moves on writes and the overdue sweep
func (s *LedgerService) refresh(statements ...*domain.FeeStatement) {
	now := s.now()
	for _, statement := range statements {
		statement.Recompute(now)
	}
}

func (s *LedgerService) reconcileError(err error, statement string) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapStatementNotFound(statement)
	}
	return customError.WrapDatabaseError(err)
}

func (s *LedgerService) invalidate(ctx context.Context, number string) {
	if err := s.cache.Delete(ctx, number); err != nil {
		s.log.WithError(customError.WrapCacheError(err)).WithField("statement_number", number).Warn("Statement cache invalidation failed")
	}
}

// outstanding is the amount a statement can still accept
func outstanding(statement *domain.FeeStatement) decimal.Decimal {
	if statement.Balance.IsNegative() {
		return decimal.Zero
	}
	return statement.Balance
}
