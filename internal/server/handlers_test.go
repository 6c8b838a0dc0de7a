package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/auth/session"
	"github.com/smallbiznis/greenpack/internal/authorization"
	"github.com/smallbiznis/greenpack/internal/config"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/internal/ratelimit"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
	"github.com/smallbiznis/greenpack/internal/upload"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInquiryService struct {
	inquirydomain.Service
	submitted []inquirydomain.SubmitRequest
}

func (f *fakeInquiryService) Submit(ctx context.Context, req inquirydomain.SubmitRequest) (inquirydomain.Inquiry, error) {
	if _, err := leadcapture.BuildRecord(leadcapture.KindInquiry, req.Fields, req.Session); err != nil {
		return inquirydomain.Inquiry{}, err
	}
	f.submitted = append(f.submitted, req)
	return inquirydomain.Inquiry{ID: snowflake.ID(900), Name: req.Fields["name"], Status: inquirydomain.StatusNew}, nil
}

func (f *fakeInquiryService) ListByUser(ctx context.Context, userID snowflake.ID) ([]inquirydomain.Inquiry, error) {
	return []inquirydomain.Inquiry{{ID: snowflake.ID(901), UserID: &userID}}, nil
}

type fakeSubscriberService struct {
	subscriberdomain.Service
	existing map[string]bool
}

func (f *fakeSubscriberService) Subscribe(ctx context.Context, req subscriberdomain.SubscribeRequest) (subscriberdomain.Subscriber, error) {
	if f.existing[req.Fields["email"]] {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrAlreadySubscribed
	}
	return subscriberdomain.Subscriber{Email: req.Fields["email"]}, nil
}

type fakeAuthorizer struct {
	err     error
	actor   string
	object  string
	action  string
	checked int
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, actor, object, action string) error {
	f.checked++
	f.actor, f.object, f.action = actor, object, action
	return f.err
}

type recordedAudit struct {
	actorType  string
	actorID    string
	action     string
	targetType string
	targetID   string
	metadata   map[string]any
}

type fakeAuditService struct {
	auditdomain.Service
	entries []recordedAudit
}

func (f *fakeAuditService) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	entry := recordedAudit{actorType: actorType, action: action, targetType: targetType, metadata: metadata}
	if actorID != nil {
		entry.actorID = *actorID
	}
	if targetID != nil {
		entry.targetID = *targetID
	}
	f.entries = append(f.entries, entry)
	return nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	return router
}

func decodeError(t *testing.T, body []byte) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error
}

func TestEstimateImpactQuery(t *testing.T) {
	srv := &Server{}
	router := newTestRouter()
	router.GET("/api/impact/estimate", srv.EstimateImpact)

	req := httptest.NewRequest(http.MethodGet, "/api/impact/estimate?monthly_bag_count=1000&average_bag_weight_grams=10", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body impactEstimateResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.InDelta(t, 10.0, body.Estimate.MonthlyPlasticSavedKg, 1e-9)
	assert.InDelta(t, 120.0, body.Estimate.AnnualPlasticSavedKg, 1e-9)
	assert.InDelta(t, 300.0, body.Estimate.AnnualCarbonOffsetKg, 1e-9)
	assert.Equal(t, int64(14), body.Estimate.TreesEquivalent)
	assert.InDelta(t, 2040.0, body.Estimate.AnnualWaterSavedLiters, 1e-9)
}

func TestEstimateImpactRejectsNegativeInput(t *testing.T) {
	srv := &Server{}
	router := newTestRouter()
	router.POST("/api/impact/estimate", srv.EstimateImpact)

	req := httptest.NewRequest(http.MethodPost, "/api/impact/estimate", bytes.NewBufferString(`{"monthly_bag_count":-5,"average_bag_weight_grams":10}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp.Body.Bytes())
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "monthly_bag_count", payload.Errors[0].Field)
	assert.Equal(t, "invalid_value", payload.Errors[0].Code)
}

func TestEstimateImpactRejectsOverflowingUsage(t *testing.T) {
	srv := &Server{}
	router := newTestRouter()
	router.GET("/api/impact/estimate", srv.EstimateImpact)

	req := httptest.NewRequest(http.MethodGet, "/api/impact/estimate?monthly_bag_count=9223372036854775807&average_bag_weight_grams=1e300", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp.Body.Bytes())
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "usage", payload.Errors[0].Field)
	assert.Equal(t, "invalid_value", payload.Errors[0].Code)
}

func TestSubmitInquiryValidationErrorsInSchemaOrder(t *testing.T) {
	inquiries := &fakeInquiryService{}
	srv := &Server{inquirySvc: inquiries, sessions: session.NewManager(config.Config{})}
	router := newTestRouter()
	router.POST("/api/inquiries", srv.SubmitInquiry)

	req := httptest.NewRequest(http.MethodPost, "/api/inquiries", bytes.NewBufferString(`{"email":"not-an-email","phone":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp.Body.Bytes())
	require.Len(t, payload.Errors, 3)
	assert.Equal(t, ValidationError{Field: "name", Code: "required", Message: "name is required"}, payload.Errors[0])
	assert.Equal(t, "email", payload.Errors[1].Field)
	assert.Equal(t, "invalid_format", payload.Errors[1].Code)
	assert.Equal(t, "message", payload.Errors[2].Field)
	assert.Empty(t, inquiries.submitted)
}

func TestSubmitInquiryAttachesSessionUser(t *testing.T) {
	inquiries := &fakeInquiryService{}
	authSvc := newFakeAuthService().withUser(snowflake.ID(42), "buyer@example.com", authdomain.RoleCustomer, "tok")
	srv := &Server{
		inquirySvc: inquiries,
		authsvc:    authSvc,
		sessions:   session.NewManager(config.Config{}),
	}
	router := newTestRouter()
	router.POST("/api/inquiries", srv.OptionalAuth(), srv.SubmitInquiry)

	req := httptest.NewRequest(http.MethodPost, "/api/inquiries", bytes.NewBufferString(`{"name":"Ana","email":"ana@example.com","message":"Need 5000 bags"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "tok"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Len(t, inquiries.submitted, 1)
	require.NotNil(t, inquiries.submitted[0].Session)
	assert.Equal(t, snowflake.ID(42), inquiries.submitted[0].Session.UserID)
	assert.Equal(t, "buyer@example.com", inquiries.submitted[0].Session.Email)
}

func TestSubmitInquiryAnonymousWithStaleCookie(t *testing.T) {
	inquiries := &fakeInquiryService{}
	srv := &Server{
		inquirySvc: inquiries,
		authsvc:    newFakeAuthService(),
		sessions:   session.NewManager(config.Config{}),
	}
	router := newTestRouter()
	router.POST("/api/inquiries", srv.OptionalAuth(), srv.SubmitInquiry)

	req := httptest.NewRequest(http.MethodPost, "/api/inquiries", bytes.NewBufferString(`{"name":"Ana","email":"ana@example.com","message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "expired"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Len(t, inquiries.submitted, 1)
	assert.Nil(t, inquiries.submitted[0].Session)
}

func TestSubscribeDuplicateReturns409(t *testing.T) {
	srv := &Server{
		subscriberSvc: &fakeSubscriberService{existing: map[string]bool{"dup@example.com": true}},
		sessions:      session.NewManager(config.Config{}),
	}
	router := newTestRouter()
	router.POST("/api/newsletter", srv.SubscribeNewsletter)

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter", bytes.NewBufferString(`{"email":"dup@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "already subscribed", decodeError(t, resp.Body.Bytes()).Message)
}

func TestFormRateLimitReturns429(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, FormsPerSecond: 1, FormsBurst: 1}}
	srv := &Server{
		subscriberSvc: &fakeSubscriberService{},
		sessions:      session.NewManager(cfg),
		formLimiter:   ratelimit.NewFormLimiter(cfg, nil, zap.NewNop(), nil),
	}
	router := newTestRouter()
	router.POST("/api/newsletter", srv.FormRateLimit("newsletter"), srv.SubscribeNewsletter)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletter", bytes.NewBufferString(`{"email":"a@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	require.Equal(t, http.StatusCreated, send().Code)
	second := send()
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestAdminRoutesRequireSessionAndCapability(t *testing.T) {
	authSvc := newFakeAuthService().
		withUser(snowflake.ID(7), "staff@example.com", authdomain.RoleMarketingManager, "staff-token")
	authz := &fakeAuthorizer{err: authorization.ErrForbidden}
	srv := &Server{
		authsvc:    authSvc,
		authzSvc:   authz,
		sessions:   session.NewManager(config.Config{}),
		inquirySvc: &fakeInquiryService{},
	}
	router := newTestRouter()
	admin := router.Group("/admin", srv.WebAuthRequired())
	admin.PATCH("/inquiries/:id/status", srv.authorize(authorization.ObjectInquiry, authorization.ActionInquiryUpdate), srv.UpdateInquiryStatus)

	anonymous := httptest.NewRecorder()
	router.ServeHTTP(anonymous, httptest.NewRequest(http.MethodPatch, "/admin/inquiries/1/status", bytes.NewBufferString(`{"status":"quoted"}`)))
	require.Equal(t, http.StatusUnauthorized, anonymous.Code)
	assert.Zero(t, authz.checked)

	req := httptest.NewRequest(http.MethodPatch, "/admin/inquiries/1/status", bytes.NewBufferString(`{"status":"quoted"}`))
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "staff-token"})
	denied := httptest.NewRecorder()
	router.ServeHTTP(denied, req)

	require.Equal(t, http.StatusForbidden, denied.Code)
	assert.Equal(t, "user:7", authz.actor)
	assert.Equal(t, authorization.ObjectInquiry, authz.object)
	assert.Equal(t, authorization.ActionInquiryUpdate, authz.action)
}

func TestListMyInquiriesUsesSessionUser(t *testing.T) {
	authSvc := newFakeAuthService().withUser(snowflake.ID(11), "c@example.com", authdomain.RoleCustomer, "c-token")
	srv := &Server{
		authsvc:    authSvc,
		sessions:   session.NewManager(config.Config{}),
		inquirySvc: &fakeInquiryService{},
	}
	router := newTestRouter()
	router.GET("/api/me/inquiries", srv.WebAuthRequired(), srv.ListMyInquiries)

	req := httptest.NewRequest(http.MethodGet, "/api/me/inquiries", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "c-token"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"user_id":"11"`)
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"storage failure", &repository.StorageError{Op: "create", Collection: "inquiries", Err: errors.New("conn reset")}, http.StatusInternalServerError, "internal_error"},
		{"storage missing row", &repository.StorageError{Op: "update", Collection: "inquiries", Err: repository.ErrNotFound}, http.StatusNotFound, "not_found"},
		{"upload failure", &upload.UploadError{Path: "logos/1.png", Err: errors.New("s3 down")}, http.StatusBadGateway, "upload_failed"},
		{"file too large", upload.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
		{"unknown status", inquirydomain.ErrInvalidStatus, http.StatusBadRequest, "validation_error"},
		{"forbidden", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"expired session", authdomain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, payload.Type)
		})
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(&repository.StorageError{Op: "find", Collection: "products", Err: errors.New("timeout")})
	assert.Equal(t, "storage_error", errType)
	assert.Equal(t, "find", code)

	errType, code = classifyErrorForLog(&leadcapture.ValidationError{Errors: []leadcapture.FieldError{{Field: "email", Kind: leadcapture.Required}}})
	assert.Equal(t, "validation_error", errType)
	assert.Equal(t, "required", code)
}

func TestSetUserRoleUpdatesTargetUser(t *testing.T) {
	authSvc := newFakeAuthService().
		withUser(snowflake.ID(1), "admin@example.com", authdomain.RoleAdmin, "admin-token").
		withUser(snowflake.ID(9), "jo@example.com", authdomain.RoleCustomer, "jo-token")
	authz := &fakeAuthorizer{}
	audits := &fakeAuditService{}
	srv := &Server{
		authsvc:  authSvc,
		authzSvc: authz,
		auditSvc: audits,
		sessions: session.NewManager(config.Config{}),
	}
	router := newTestRouter()
	admin := router.Group("/admin", srv.WebAuthRequired())
	admin.PATCH("/users/:id/role", srv.authorize(authorization.ObjectUser, authorization.ActionUserManage), srv.SetUserRole)

	req := httptest.NewRequest(http.MethodPatch, "/admin/users/9/role", bytes.NewBufferString(`{"role":" Product_Manager "}`))
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "admin-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, authdomain.RoleProductManager, authSvc.users[snowflake.ID(9)].Role)
	assert.Equal(t, "user:1", authz.actor)
	assert.Equal(t, authorization.ActionUserManage, authz.action)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, "user.role_changed", audits.entries[0].action)
	assert.Equal(t, "user", audits.entries[0].actorType)
	assert.Equal(t, "1", audits.entries[0].actorID)
	assert.Equal(t, "9", audits.entries[0].targetID)
	assert.Equal(t, "product_manager", audits.entries[0].metadata["role"])

	missing := httptest.NewRequest(http.MethodPatch, "/admin/users/404/role", bytes.NewBufferString(`{"role":"admin"}`))
	missing.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "admin-token"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, missing)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, audits.entries, 1)
}
