package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/guest"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// testGuestLimit caps guest sessions per test server.
const testGuestLimit = 4

// testEnv is a running server with all three services over a temporary SQLite database.
type testEnv struct {
	auth     *apiconnect.AuthServiceClient
	groups   *apiconnect.GroupServiceClient
	expenses *apiconnect.ExpenseServiceClient
	guests   *guest.Registry
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	guests := guest.NewRegistry(time.Hour, testGuestLimit)
	stores := NewStores(store, guests)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	m := metrics.New(prometheus.NewRegistry(), guests.Len)

	opts := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, store, jwtManager, guests, slog.Default()), opts))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(stores, m), opts))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(stores), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		guests:   guests,
	}
}

// withToken wraps msg in a request carrying a Bearer token, if any.
func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return resp.Msg.Token
}

// createGroup creates a group owned by the token's user.
func (e *testEnv) createGroup(t *testing.T, token string, members ...string) *api.Group {
	t.Helper()
	resp, err := e.groups.CreateGroup(context.Background(), withToken(&api.CreateGroupRequest{
		Name:    "Test Group",
		Members: members,
	}, token))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

// memberID returns the ID of the named member.
func memberID(t *testing.T, group *api.Group, name string) string {
	t.Helper()
	for _, m := range group.Members {
		if m.Name == name {
			return m.ID
		}
	}
	t.Fatalf("member %q not in group", name)
	return ""
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected code %v, got %v (%v)", want, got, err)
	}
}
