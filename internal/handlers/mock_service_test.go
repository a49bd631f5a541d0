package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"session_auth/internal/models"
	"session_auth/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	mu sync.Mutex

	registerErr error
	loginSID    string
	loginErr    error
	logoutErr   error
	listResp    []string
	listErr     error

	// sessions maps live session ids to usernames for WhoAmI
	sessions  map[string]string
	whoAmIErr error

	lastRegisterUsername string
	lastRegisterPassword string
	lastLoginUsername    string
	lastLoginPrior       string
	lastLogoutSID        string
	logoutCalls          int
}

func (m *mockAuth) Register(ctx context.Context, username, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRegisterUsername = username
	m.lastRegisterPassword = password
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &models.User{ID: 1, Username: username}, nil
}

func (m *mockAuth) Login(ctx context.Context, username, password, prior string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLoginUsername = username
	m.lastLoginPrior = prior
	if m.loginErr != nil {
		return "", m.loginErr
	}
	if m.sessions == nil {
		m.sessions = make(map[string]string)
	}
	m.sessions[m.loginSID] = username
	return m.loginSID, nil
}

func (m *mockAuth) Logout(ctx context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls++
	m.lastLogoutSID = sid
	if m.logoutErr != nil {
		return m.logoutErr
	}
	delete(m.sessions, sid)
	return nil
}

func (m *mockAuth) WhoAmI(ctx context.Context, sid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.whoAmIErr != nil {
		return "", m.whoAmIErr
	}
	u, ok := m.sessions[sid]
	if !ok {
		return "", service.ErrUnauthorized
	}
	return u, nil
}

func (m *mockAuth) ListUsernames(ctx context.Context) ([]string, error) {
	return m.listResp, m.listErr
}

// endSession drops sid as if it expired.
func (m *mockAuth) endSession(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
}

type mockEventLog struct {
	mu       sync.Mutex
	resp     []models.AuthEvent
	err      error
	recorded []models.AuthEvent
	lastF    service.LogFilter
	calls    int
}

func (m *mockEventLog) Record(ctx context.Context, e models.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, e)
	return nil
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastF = f
	return m.resp, m.err
}

func (m *mockEventLog) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.recorded))
	for _, e := range m.recorded {
		out = append(out, e.Type)
	}
	return out
}

// ---- Shared Test Helpers ----

var testConfig = Config{
	Secret: "test-secret-test-secret-test-sec",
	MaxAge: time.Hour,
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, testConfig)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

// sessionCookie returns the session cookie set by resp, or nil.
func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == defaultCookieName {
			return c
		}
	}
	return nil
}
