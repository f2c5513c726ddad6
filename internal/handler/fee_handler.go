package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/segyhp/fee-ledger/pkg/response"
)

// FeeService is the ledger behaviour the HTTP layer depends on
type FeeService interface {
	CreateStructure(ctx context.Context, request *domain.CreateStructureRequest) (*domain.StructureView, error)
	GetStructure(ctx context.Context, id uuid.UUID) (*domain.StructureView, error)
	GetStructureTotals(ctx context.Context, id uuid.UUID) (domain.StructureTotals, error)
	ListStructures(ctx context.Context, filter domain.StructureFilter) ([]*domain.StructureView, error)
	AddStructureItem(ctx context.Context, structureID uuid.UUID, request *domain.FeeItemRequest) (*domain.StructureView, error)
	DeactivateStructureItem(ctx context.Context, structureID, itemID uuid.UUID) (*domain.StructureView, error)
	DeactivateStructure(ctx context.Context, id uuid.UUID) error

	IssueStatement(ctx context.Context, request *domain.IssueStatementRequest) (*domain.FeeStatement, error)
	GetStatement(ctx context.Context, number string) (*domain.StatementView, error)
	ReconcileStatement(ctx context.Context, number string) (*domain.FeeStatement, error)
	ListPayments(ctx context.Context, number string) ([]*domain.FeePayment, error)
	RecordPayment(ctx context.Context, number string, request *domain.RecordPaymentRequest) (*domain.FeePayment, error)
	UpdatePaymentStatus(ctx context.Context, reference, status string) (*domain.PaymentStatusResponse, error)

	ListStudentStatements(ctx context.Context, studentID string) ([]*domain.FeeStatement, error)
	GetStudentAccount(ctx context.Context, studentID string) (*domain.StudentAccount, error)
}

type FeeHandler struct {
	service   FeeService
	validator *Validator
}

func NewFeeHandler(service FeeService) *FeeHandler {
	return &FeeHandler{
		service:   service,
		validator: NewValidator(),
	}
}

// CreateStructure handles POST /fee-structures
func (h *FeeHandler) CreateStructure(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateStructureRequest
	if !h.decode(w, r, &request) {
		return
	}

	view, err := h.service.CreateStructure(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, view)
}

// ListStructures handles GET /fee-structures
func (h *FeeHandler) ListStructures(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.StructureFilter{
		Level:        strings.TrimSpace(query.Get("level")),
		AcademicYear: strings.TrimSpace(query.Get("academic_year")),
		Term:         strings.TrimSpace(query.Get("term")),
	}

	views, err := h.service.ListStructures(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, views)
}

// GetStructure handles GET /fee-structures/{id}
func (h *FeeHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.service.GetStructure(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, view)
}

// GetStructureTotals handles GET /fee-structures/{id}/totals
func (h *FeeHandler) GetStructureTotals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	totals, err := h.service.GetStructureTotals(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, totals)
}

// AddStructureItem handles POST /fee-structures/{id}/items
func (h *FeeHandler) AddStructureItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var request domain.FeeItemRequest
	if !h.decode(w, r, &request) {
		return
	}

	view, err := h.service.AddStructureItem(r.Context(), id, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, view)
}

// DeactivateStructureItem handles DELETE /fee-structures/{id}/items/{itemId}
func (h *FeeHandler) DeactivateStructureItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	view, err := h.service.DeactivateStructureItem(r.Context(), id, itemID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, view)
}

// DeactivateStructure handles DELETE /fee-structures/{id}
func (h *FeeHandler) DeactivateStructure(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeactivateStructure(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{"id": id, "is_active": false})
}

// IssueStatement handles POST /fee-statements
func (h *FeeHandler) IssueStatement(w http.ResponseWriter, r *http.Request) {
	var request domain.IssueStatementRequest
	if !h.decode(w, r, &request) {
		return
	}

	statement, err := h.service.IssueStatement(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, statement)
}

// GetStatement handles GET /fee-statements/{number}
func (h *FeeHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetStatement(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, view)
}

// ReconcileStatement handles POST /fee-statements/{number}/recompute
func (h *FeeHandler) ReconcileStatement(w http.ResponseWriter, r *http.Request) {
	statement, err := h.service.ReconcileStatement(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, statement)
}

// ListPayments handles GET /fee-statements/{number}/payments
func (h *FeeHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payments)
}

// RecordPayment handles POST /fee-statements/{number}/payments
func (h *FeeHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var request domain.RecordPaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), mux.Vars(r)["number"], &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, payment)
}

// UpdatePaymentStatus handles POST /payments/{reference}/status
func (h *FeeHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var request domain.UpdatePaymentStatusRequest
	if !h.decode(w, r, &request) {
		return
	}

	result, err := h.service.UpdatePaymentStatus(r.Context(), mux.Vars(r)["reference"], request.Status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// ListStudentStatements handles GET /students/{studentId}/statements
func (h *FeeHandler) ListStudentStatements(w http.ResponseWriter, r *http.Request) {
	statements, err := h.service.ListStudentStatements(r.Context(), mux.Vars(r)["studentId"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, statements)
}

// GetStudentAccount handles GET /students/{studentId}/account
func (h *FeeHandler) GetStudentAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetStudentAccount(r.Context(), mux.Vars(r)["studentId"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, account)
}

// decode reads a JSON body into dst and validates it, writing the 400 itself on failure
func (h *FeeHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}

	if details := h.validator.Struct(dst); details != nil {
		response.ValidationError(w, details)
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
