package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/apperrors"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	studentResult  *dto.TokenResponse
	studentErr     error
	employeeResult *dto.TokenResponse
	employeeErr    error
	logoutErr      error
	logoutJTI      string
}

func (m *mockAuthService) StudentLogin(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.studentResult, m.studentErr
}
func (m *mockAuthService) EmployeeLogin(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.employeeResult, m.employeeErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}

// ── Mock OutpassService ──

type mockOutpassService struct {
	applyResult   *dto.OutpassResponse
	applyErr      error
	decideResult  *dto.OutpassResponse
	decideErr     error
	cancelResult  *dto.OutpassResponse
	cancelErr     error
	verifyResult  *dto.OutpassResponse
	verifyErr     error
	getResult     *dto.OutpassResponse
	getErr        error
	listResult    []dto.OutpassResponse
	listErr       error
	currentResult *dto.OutpassResponse
	currentErr    error
}

func (m *mockOutpassService) Apply(_ context.Context, _ string, _ *dto.ApplyOutpassRequest, _ []byte, _ string) (*dto.OutpassResponse, error) {
	return m.applyResult, m.applyErr
}
func (m *mockOutpassService) FacultyDecide(_ context.Context, _, _ string, _ *dto.DecisionRequest) (*dto.OutpassResponse, error) {
	return m.decideResult, m.decideErr
}
func (m *mockOutpassService) HodDecide(_ context.Context, _, _ string, _ *dto.DecisionRequest) (*dto.OutpassResponse, error) {
	return m.decideResult, m.decideErr
}
func (m *mockOutpassService) Cancel(_ context.Context, _, _ string) (*dto.OutpassResponse, error) {
	return m.cancelResult, m.cancelErr
}
func (m *mockOutpassService) VerifyExit(_ context.Context, _, _ string) (*dto.OutpassResponse, error) {
	return m.verifyResult, m.verifyErr
}
func (m *mockOutpassService) VerifyReturn(_ context.Context, _, _ string) (*dto.OutpassResponse, error) {
	return m.verifyResult, m.verifyErr
}
func (m *mockOutpassService) Get(_ context.Context, _ string) (*dto.OutpassResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockOutpassService) Mine(_ context.Context, _ string) ([]dto.OutpassResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockOutpassService) Current(_ context.Context, _ string) (*dto.OutpassResponse, error) {
	return m.currentResult, m.currentErr
}
func (m *mockOutpassService) PendingFor(_ context.Context, _, _, _ string) ([]dto.OutpassResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockOutpassService) History(_ context.Context, _ string) ([]dto.OutpassResponse, error) {
	return m.listResult, m.listErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportDepartmentHistory(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "faculty")
	c.Set("department_id", "test-dept-id")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_StudentLogin_Success(t *testing.T) {
	mock := &mockAuthService{
		studentResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
			User:         dto.UserResponse{ID: "stu-1", Role: "student"},
		},
	}
	h := NewAuthHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/student/login", jsonBody(dto.LoginRequest{
		Email:    "asha@college.test",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/student/login", h.StudentLogin)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_StudentLogin_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/student/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/student/login", h.StudentLogin)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10001 {
		t.Errorf("expected error code 10001, got %d", resp.Code)
	}
}

func TestAuthHandler_EmployeeLogin_InvalidCredentials(t *testing.T) {
	mock := &mockAuthService{employeeErr: service.ErrInvalidCredentials}
	h := NewAuthHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/employee/login", jsonBody(dto.LoginRequest{
		Email:    "ravi@college.test",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/employee/login", h.EmployeeLogin)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected logout to revoke test-jti, got %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// OutpassHandler Tests
// ═══════════════════════════════════════════════════════════

func TestOutpassHandler_Apply_Success(t *testing.T) {
	mock := &mockOutpassService{
		applyResult: &dto.OutpassResponse{
			ID:     "op-1",
			Status: "pending_faculty",
		},
	}
	h := NewOutpassHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/outpasses", jsonBody(dto.ApplyOutpassRequest{
		ReasonCategory: "medical",
		Reason:         "Dental appointment",
		DateFrom:       time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		DateTo:         time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/outpasses", func(c *gin.Context) {
		setAuth(c)
		h.Apply(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestOutpassHandler_Apply_BadPayload(t *testing.T) {
	h := NewOutpassHandler(&mockOutpassService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/outpasses", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/outpasses", func(c *gin.Context) {
		setAuth(c)
		h.Apply(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13001 {
		t.Errorf("expected error code 13001, got %d", resp.Code)
	}
}

func TestOutpassHandler_Apply_Unauthenticated(t *testing.T) {
	h := NewOutpassHandler(&mockOutpassService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/outpasses", nil)

	r := gin.New()
	r.POST("/outpasses", h.Apply)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestOutpassHandler_Current_NoneActive(t *testing.T) {
	mock := &mockOutpassService{currentErr: service.ErrOutpassNotFound}
	h := NewOutpassHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/outpasses/current", nil)

	r := gin.New()
	r.GET("/outpasses/current", func(c *gin.Context) {
		setAuth(c)
		h.Current(c)
	})
	r.ServeHTTP(w, req)

	// no active pass is a normal state, not an error
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Data != nil {
		t.Errorf("expected nil data, got %v", resp.Data)
	}
}

func TestOutpassHandler_FacultyDecide_BadDecision(t *testing.T) {
	h := NewOutpassHandler(&mockOutpassService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/outpasses/op-1/faculty-decision", jsonBody(map[string]string{
		"decision": "maybe",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/outpasses/:id/faculty-decision", func(c *gin.Context) {
		setAuth(c)
		h.FacultyDecide(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestOutpassHandler_HodDecide_LostRace(t *testing.T) {
	mock := &mockOutpassService{decideErr: apperrors.ErrStatusConflict}
	h := NewOutpassHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/outpasses/op-1/hod-decision", jsonBody(dto.DecisionRequest{
		Decision: "approved",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/outpasses/:id/hod-decision", func(c *gin.Context) {
		setAuth(c)
		h.HodDecide(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13109 {
		t.Errorf("expected error code 13109, got %d", resp.Code)
	}
}

func TestOutpassHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrOutpassNotFound, 404, 13101},
		{"StudentNotFound", service.ErrStudentNotFound, 404, 13102},
		{"InvalidWindow", service.ErrInvalidTimeWindow, 400, 13103},
		{"ReturnAfterCutoff", service.ErrReturnAfterCutoff, 400, 13104},
		{"ActiveExists", service.ErrActiveOutpassExists, 409, 13105},
		{"NotOwner", service.ErrNotOwner, 403, 13106},
		{"DocumentUpload", service.ErrDocumentUpload, 502, 13107},
		{"AlreadyReturned", service.ErrAlreadyReturned, 409, 13108},
		{"StatusConflict", apperrors.ErrStatusConflict, 409, 13109},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockOutpassService{getErr: tt.err}
			h := NewOutpassHandler(mock)

			w := setupRecorder()
			req := httptest.NewRequest("GET", "/outpasses/op-1", nil)

			r := gin.New()
			r.GET("/outpasses/:id", h.Get)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestOutpassHandler_Pending_Success(t *testing.T) {
	mock := &mockOutpassService{
		listResult: []dto.OutpassResponse{{ID: "op-1", Status: "pending_faculty"}},
	}
	h := NewOutpassHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/outpasses/pending", nil)

	r := gin.New()
	r.GET("/outpasses/pending", func(c *gin.Context) {
		setAuth(c)
		h.Pending(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "outpass_register_computer_science_2026-08-28.xlsx",
	}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/outpasses", nil)

	r := gin.New()
	r.GET("/export/outpasses", func(c *gin.Context) {
		setAuth(c)
		h.DepartmentHistory(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_NoDepartmentInToken(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/outpasses", nil)

	r := gin.New()
	r.GET("/export/outpasses", func(c *gin.Context) {
		setAuth(c)
		c.Set("department_id", "")
		h.DepartmentHistory(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_NoRecords(t *testing.T) {
	mock := &mockExportService{err: service.ErrExportNoRecords}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/outpasses", nil)

	r := gin.New()
	r.GET("/export/outpasses", func(c *gin.Context) {
		setAuth(c)
		h.DepartmentHistory(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 16102 {
		t.Errorf("expected error code 16102, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// VoiceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestVoiceHandler_FacultyScript(t *testing.T) {
	h := NewVoiceHandler()

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/voice/script", nil)

	r := gin.New()
	r.GET("/voice/script", h.FacultyScript)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != twimlContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.Contains(w.Body.String(), "<Response>") {
		t.Error("expected TwiML response body")
	}
}

func TestVoiceHandler_HodSummaryScript_PendingCount(t *testing.T) {
	h := NewVoiceHandler()

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/voice/hod-summary?pending=4", nil)

	r := gin.New()
	r.GET("/voice/hod-summary", h.HodSummaryScript)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "4") {
		t.Errorf("expected the pending count in the script, got %s", w.Body.String())
	}
}

func TestVoiceHandler_HodSummaryScript_BadQuery(t *testing.T) {
	h := NewVoiceHandler()

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/voice/hod-summary?pending=lots", nil)

	r := gin.New()
	r.GET("/voice/hod-summary", h.HodSummaryScript)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
