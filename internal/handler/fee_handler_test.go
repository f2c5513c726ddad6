package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/segyhp/fee-ledger/internal/mocks"
	customError "github.com/segyhp/fee-ledger/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func serve(t *testing.T, h http.HandlerFunc, method, target, body string, vars map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()

	h(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCreateStructure(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		setupMock   func(*mocks.MockFeeService)
		wantStatus  int
		wantDetails []string
	}{
		{
			name: "created",
			body: `{"name":"P1 Term 1","level":"P1","academic_year":"2026","term":"1",
				"items":[{"category":"tuition","amount":"100000","is_mandatory":true},{"category":"trip","amount":20000}]}`,
			setupMock: func(m *mocks.MockFeeService) {
				m.On("CreateStructure", mock.Anything, mock.MatchedBy(func(r *domain.CreateStructureRequest) bool {
					return len(r.Items) == 2 && r.Items[1].Amount.Equal(decimal.NewFromInt(20000))
				})).Return(domain.NewStructureView(&domain.FeeStructure{ID: uuid.New(), Name: "P1 Term 1"}), nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:        "missing fields and non-positive amount",
			body:        `{"name":"P1","items":[{"category":"tuition","amount":"0"}]}`,
			setupMock:   func(m *mocks.MockFeeService) {},
			wantStatus:  http.StatusBadRequest,
			wantDetails: []string{"level", "academic_year", "term", "items[0].amount"},
		},
		{
			name: "sub-cent item amount",
			body: `{"name":"P1","level":"P1","academic_year":"2026","term":"1",
				"items":[{"category":"tuition","amount":"0.004"}]}`,
			setupMock:   func(m *mocks.MockFeeService) {},
			wantStatus:  http.StatusBadRequest,
			wantDetails: []string{"items[0].amount"},
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			setupMock:  func(m *mocks.MockFeeService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockFeeService()
			tt.setupMock(svc)
			h := NewFeeHandler(svc)

			rec, env := serve(t, h.CreateStructure, http.MethodPost, "/api/v1/fee-structures", tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, field := range tt.wantDetails {
				assert.Contains(t, env.Details, field)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestGetStructure_InvalidID(t *testing.T) {
	svc := mocks.NewMockFeeService()
	h := NewFeeHandler(svc)

	rec, env := serve(t, h.GetStructure, http.MethodGet, "/api/v1/fee-structures/abc", "", map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	svc.AssertNotCalled(t, "GetStructure", mock.Anything, mock.Anything)
}

func TestGetStructureTotals(t *testing.T) {
	svc := mocks.NewMockFeeService()
	id := uuid.New()
	svc.On("GetStructureTotals", mock.Anything, id).Return(domain.StructureTotals{
		Mandatory: decimal.NewFromInt(100000),
		Optional:  decimal.NewFromInt(20000),
		Total:     decimal.NewFromInt(120000),
	}, nil)
	h := NewFeeHandler(svc)

	rec, env := serve(t, h.GetStructureTotals, http.MethodGet, "/", "", map[string]string{"id": id.String()})

	require.Equal(t, http.StatusOK, rec.Code)
	var totals map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.Equal(t, "120000", totals["total_fees"])
	assert.Equal(t, "100000", totals["total_mandatory_fees"])
}

func TestAddStructureItem_Locked(t *testing.T) {
	svc := mocks.NewMockFeeService()
	id := uuid.New()
	svc.On("AddStructureItem", mock.Anything, id, mock.Anything).Return(nil, customError.WrapStructureLocked(id.String()))
	h := NewFeeHandler(svc)

	rec, _ := serve(t, h.AddStructureItem, http.MethodPost, "/", `{"category":"lunch","amount":"5000"}`, map[string]string{"id": id.String()})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIssueStatement(t *testing.T) {
	structureID := uuid.New()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{
			name:       "issued",
			body:       `{"student_id":"STU-1","fee_structure_id":"` + structureID.String() + `","due_date":"2026-03-01T00:00:00Z"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate",
			body:       `{"student_id":"STU-1","fee_structure_id":"` + structureID.String() + `","due_date":"2026-03-01T00:00:00Z"}`,
			err:        customError.WrapStatementExists("exists"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "structure missing",
			body:       `{"student_id":"STU-1","fee_structure_id":"` + structureID.String() + `","due_date":"2026-03-01T00:00:00Z"}`,
			err:        customError.WrapStructureNotFound(structureID.String()),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad contact email",
			body:       `{"student_id":"STU-1","fee_structure_id":"` + structureID.String() + `","due_date":"2026-03-01T00:00:00Z","contact_email":"nope"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing structure id",
			body:       `{"student_id":"STU-1","due_date":"2026-03-01T00:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockFeeService()
			if tt.wantStatus != http.StatusBadRequest {
				var statement *domain.FeeStatement
				if tt.err == nil {
					statement = &domain.FeeStatement{StatementNumber: "FS-2026-00000001", StudentID: "STU-1"}
				}
				if statement != nil {
					svc.On("IssueStatement", mock.Anything, mock.Anything).Return(statement, nil)
				} else {
					svc.On("IssueStatement", mock.Anything, mock.Anything).Return(nil, tt.err)
				}
			}
			h := NewFeeHandler(svc)

			rec, _ := serve(t, h.IssueStatement, http.MethodPost, "/api/v1/fee-statements", tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestRecordPayment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*mocks.MockFeeService)
		wantStatus int
	}{
		{
			name: "recorded",
			body: `{"amount":"50000","payment_method":"mobile_money"}`,
			setupMock: func(m *mocks.MockFeeService) {
				m.On("RecordPayment", mock.Anything, "FS-1", mock.MatchedBy(func(r *domain.RecordPaymentRequest) bool {
					return r.Amount.Equal(decimal.NewFromInt(50000))
				})).Return(&domain.FeePayment{PaymentReference: "PAY-1", Status: domain.PaymentStatusPending}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown method",
			body:       `{"amount":"50000","payment_method":"barter"}`,
			setupMock:  func(m *mocks.MockFeeService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative amount",
			body:       `{"amount":"-1","payment_method":"cash"}`,
			setupMock:  func(m *mocks.MockFeeService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "sub-cent amount",
			body:       `{"amount":"0.004","payment_method":"cash"}`,
			setupMock:  func(m *mocks.MockFeeService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "exceeds balance",
			body: `{"amount":"999999","payment_method":"cash"}`,
			setupMock: func(m *mocks.MockFeeService) {
				m.On("RecordPayment", mock.Anything, "FS-1", mock.Anything).
					Return(nil, customError.WrapInvalidPaymentAmount("999999", "70000"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "statement missing",
			body: `{"amount":"100","payment_method":"cash"}`,
			setupMock: func(m *mocks.MockFeeService) {
				m.On("RecordPayment", mock.Anything, "FS-1", mock.Anything).Return(nil, customError.WrapStatementNotFound("FS-1"))
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockFeeService()
			tt.setupMock(svc)
			h := NewFeeHandler(svc)

			rec, _ := serve(t, h.RecordPayment, http.MethodPost, "/", tt.body, map[string]string{"number": "FS-1"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	svc := mocks.NewMockFeeService()
	paidAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc.On("UpdatePaymentStatus", mock.Anything, "PAY-1", domain.PaymentStatusCompleted).Return(&domain.PaymentStatusResponse{
		Payment:   &domain.FeePayment{PaymentReference: "PAY-1", Status: domain.PaymentStatusCompleted, PaidAt: &paidAt},
		Statement: &domain.FeeStatement{StatementNumber: "FS-1", Status: domain.StatementStatusPaid},
	}, nil)
	svc.On("UpdatePaymentStatus", mock.Anything, "PAY-2", domain.PaymentStatusCompleted).
		Return(nil, customError.WrapInvalidTransition(domain.PaymentStatusFailed, domain.PaymentStatusCompleted))
	h := NewFeeHandler(svc)

	rec, env := serve(t, h.UpdatePaymentStatus, http.MethodPost, "/", `{"status":"completed"}`, map[string]string{"reference": "PAY-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = serve(t, h.UpdatePaymentStatus, http.MethodPost, "/", `{"status":"completed"}`, map[string]string{"reference": "PAY-2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h.UpdatePaymentStatus, http.MethodPost, "/", `{"status":"pending"}`, map[string]string{"reference": "PAY-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}

func TestGetStatement_InternalErrorIsHidden(t *testing.T) {
	svc := mocks.NewMockFeeService()
	svc.On("GetStatement", mock.Anything, "FS-1").Return(nil, customError.WrapDatabaseError(errors.New("pq: connection reset")))
	h := NewFeeHandler(svc)

	rec := httptest.NewRecorder()
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"number": "FS-1"})
	h.GetStatement(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestGetStudentAccount(t *testing.T) {
	svc := mocks.NewMockFeeService()
	account := domain.NewStudentAccount("STU-1", "UGX", []*domain.FeeStatement{
		{TotalAmount: decimal.NewFromInt(120000), PaidAmount: decimal.NewFromInt(50000), Balance: decimal.NewFromInt(70000), Status: domain.StatementStatusOverdue},
	})
	svc.On("GetStudentAccount", mock.Anything, "STU-1").Return(account, nil)
	h := NewFeeHandler(svc)

	rec, env := serve(t, h.GetStudentAccount, http.MethodGet, "/", "", map[string]string{"studentId": "STU-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "70000", got["total_balance"])
	assert.Equal(t, "70000", got["overdue_balance"])
}

func TestListStructures_PassesFilter(t *testing.T) {
	svc := mocks.NewMockFeeService()
	svc.On("ListStructures", mock.Anything, domain.StructureFilter{Level: "P1", AcademicYear: "2026"}).
		Return([]*domain.StructureView{}, nil)
	h := NewFeeHandler(svc)

	rec, _ := serve(t, h.ListStructures, http.MethodGet, "/api/v1/fee-structures?level=P1&academic_year=2026", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
