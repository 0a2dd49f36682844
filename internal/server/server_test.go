package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/guest"
	"github.com/mmynk/settleup/internal/storage/memory"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>index</html>"), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log('app')"), 0o644); err != nil {
		t.Fatalf("write app.js: %v", err)
	}

	cfg := &config.Config{
		Port:        8080,
		CORSOrigins: []string{"*"},
		StaticPath:  staticDir,
		GuestTTL:    time.Hour,
	}
	store := memory.New()
	s := New(cfg, Deps{
		Store:         store,
		Guests:        guest.NewRegistry(time.Hour, 0),
		JWTManager:    auth.NewJWTManager("test-secret", time.Hour),
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		Registry:      prometheus.NewRegistry(),
	})

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/health")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	var health healthResponse
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Uptime == "" {
		t.Errorf("unexpected health response: %+v", health)
	}
}

type failingWriter struct {
	header http.Header
}

func (w *failingWriter) Header() http.Header { return w.header }
func (w *failingWriter) WriteHeader(int) {}
func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestHealth_WriteFailureLogged(t *testing.T) {
	s, _ := newTestServer(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s.handleHealth(&failingWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/health", nil))

	out := buf.String()
	if !strings.Contains(out, "Failed to write health response") || !strings.Contains(out, "connection reset") {
		t.Errorf("expected a warning about the failed write, got %q", out)
	}
}

func TestStaticFiles(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: "index"},
		{path: "/app.js", wantStatus: http.StatusOK, wantBody: "console.log"},
		{path: "/groups/abc", wantStatus: http.StatusOK, wantBody: "index"},
		{path: "/settleup.v1.NoSuchService/Call", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, ts.URL+tt.path)
			if status != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, status)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("expected body to contain %q, got %q", tt.wantBody, body)
			}
		})
	}
}

func TestRPCAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	authClient := apiconnect.NewAuthServiceClient(ts.Client(), ts.URL)
	groupClient := apiconnect.NewGroupServiceClient(ts.Client(), ts.URL)

	session, err := authClient.StartGuestSession(ctx, connect.NewRequest(&api.StartGuestSessionRequest{}))
	if err != nil {
		t.Fatalf("StartGuestSession failed: %v", err)
	}

	req := connect.NewRequest(&api.CreateGroupRequest{Name: "Trip", Members: []string{"A", "B"}})
	req.Header().Set("Authorization", "Bearer "+session.Msg.Token)
	created, err := groupClient.CreateGroup(ctx, req)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	getReq := connect.NewRequest(&api.GetGroupRequest{GroupID: created.Msg.Group.ID})
	getReq.Header().Set("Authorization", "Bearer "+session.Msg.Token)
	if _, err := groupClient.GetGroup(ctx, getReq); err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}

	status, body := get(t, ts.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", status)
	}
	for _, want := range []string{
		`settleup_rpc_requests_total{code="ok",procedure="/settleup.v1.GroupService/CreateGroup"} 1`,
		"settleup_settlement_computations_total 1",
		"settleup_guest_sessions_active 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+apiconnect.GroupServiceGetGroupProcedure, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestServeAndShutdown(t *testing.T) {
	s, _ := newTestServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	status, _ := get(t, "http://"+l.Addr().String()+"/health")
	if status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v after shutdown", err)
	}
}
