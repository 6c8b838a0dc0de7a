package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/auth/session"
	"github.com/smallbiznis/greenpack/internal/config"
)

type fakeAuthService struct {
	createUserCalls int
	loginCalls      int
	lastCreate      authdomain.CreateUserRequest
	createErr       error
	sessions        map[string]snowflake.ID
	users           map[snowflake.ID]*authdomain.User
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{
		sessions: map[string]snowflake.ID{},
		users:    map[snowflake.ID]*authdomain.User{},
	}
}

func (f *fakeAuthService) withUser(id snowflake.ID, email string, role authdomain.Role, token string) *fakeAuthService {
	f.users[id] = &authdomain.User{ID: id, Email: email, Role: role}
	f.sessions[token] = id
	return f
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	f.createUserCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	user := &authdomain.User{
		ID:    snowflake.ID(200),
		Email: req.Email,
		Role:  req.Role,
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	for _, user := range f.users {
		if user.Email == req.Email {
			return &authdomain.LoginResult{
				Session: &authdomain.SessionView{
					Metadata: map[string]any{"user_id": user.ID.String()},
				},
				User:      user,
				RawToken:  "session-token",
				ExpiresAt: time.Now().Add(time.Hour),
				SessionID: snowflake.ID(300),
			}, nil
		}
	}
	return nil, authdomain.ErrInvalidCredentials
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	delete(f.sessions, rawToken)
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	userID, ok := f.sessions[rawToken]
	if !ok {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{ID: snowflake.ID(300), UserID: userID}, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, req authdomain.ChangePasswordRequest) error {
	return nil
}

func (f *fakeAuthService) SetRole(ctx context.Context, userID snowflake.ID, role authdomain.Role) (*authdomain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, authdomain.ErrUserNotFound
	}
	user.Role = role
	return user, nil
}

func TestSignupCreatesCustomerAndSetsSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authSvc := newFakeAuthService()
	srv := &Server{
		cfg:      config.Config{},
		authsvc:  authSvc,
		sessions: session.NewManager(config.Config{}),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/signup", srv.Signup)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"email":"alice@example.com","password":"correct-horse","full_name":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if authSvc.lastCreate.Role != authdomain.RoleCustomer {
		t.Fatalf("expected customer role, got %q", authSvc.lastCreate.Role)
	}
	if authSvc.loginCalls != 1 {
		t.Fatalf("expected one login, got %d", authSvc.loginCalls)
	}
	if !strings.Contains(resp.Header().Get("Set-Cookie"), session.DefaultCookieName+"=session-token") {
		t.Fatalf("expected session cookie, got %q", resp.Header().Get("Set-Cookie"))
	}
}

func TestSignupDuplicateEmailReturns409(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authSvc := newFakeAuthService()
	authSvc.createErr = authdomain.ErrUserExists
	srv := &Server{
		authsvc:  authSvc,
		sessions: session.NewManager(config.Config{}),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/signup", srv.Signup)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"email":"alice@example.com","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if authSvc.loginCalls != 0 {
		t.Fatal("expected no login after failed signup")
	}
}

func TestSignupWeakPasswordReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authSvc := newFakeAuthService()
	authSvc.createErr = authdomain.ErrWeakPassword
	srv := &Server{
		authsvc:  authSvc,
		sessions: session.NewManager(config.Config{}),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/auth/signup", srv.Signup)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"email":"alice@example.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"field":"password"`) {
		t.Fatalf("expected password field error, got %s", resp.Body.String())
	}
}
