package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/jmerrifield20/walletd/internal/api/handler"
	"github.com/jmerrifield20/walletd/internal/identity"
	"github.com/jmerrifield20/walletd/internal/ledger"
	"go.uber.org/zap"
)

var testSecret = []byte("test-signing-secret")

type testEnv struct {
	router *gin.Engine
	store  *accounts.MemoryStore
	tokens *identity.TokenIssuer
}

// setupRouter wires the real services over a MemoryStore.
func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := accounts.NewMemoryStore()
	tokens := identity.NewTokenIssuer(testSecret, time.Hour)
	acctSvc := accounts.NewService(store, identity.NewBcryptHasher(4), zap.NewNop())
	ledgerSvc := ledger.NewService(store, zap.NewNop())

	r := gin.New()
	handler.ConfigureRouter(r)
	root := r.Group("/")
	handler.NewHealthHandler(acctSvc, zap.NewNop()).Register(root)
	handler.NewAuthHandler(acctSvc, tokens, zap.NewNop()).Register(root)
	handler.NewEntryHandler(acctSvc, ledgerSvc, tokens, zap.NewNop()).Register(root)

	return &testEnv{router: r, store: store, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, username, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "email": email, "password": password})
	w := e.do(t, http.MethodPost, "/register", "", string(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, w.Code, w.Body.String())
	}
	return decodeBody(t, w)["token"].(string)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func expectMessage(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["message"]; got != msg {
		t.Errorf("expected message %q, got %v", msg, got)
	}
}
