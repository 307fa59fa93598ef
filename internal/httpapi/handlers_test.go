package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"phone-gateway/internal/auth"
	"phone-gateway/internal/config"
	"phone-gateway/internal/history"

	"github.com/gin-gonic/gin"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/crypto/bcrypt"
)

type stubCarrier struct {
	calls []openapi.ApiV2010Call
	sent  bool
}

func (s *stubCarrier) ListCalls(_ context.Context, _ int) ([]openapi.ApiV2010Call, error) {
	return s.calls, nil
}

func (s *stubCarrier) ListMessages(_ context.Context, _ int) ([]openapi.ApiV2010Message, error) {
	return nil, nil
}

func (s *stubCarrier) ListRecordings(_ context.Context, _ int) ([]openapi.ApiV2010Recording, error) {
	return nil, nil
}

func (s *stubCarrier) SendMessage(_ context.Context, from, to, body, _ string) (*openapi.ApiV2010Message, error) {
	s.sent = true
	sid, st := "SM1", "queued"
	return &openapi.ApiV2010Message{Sid: &sid, From: &from, To: &to, Body: &body, Status: &st}, nil
}

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) VoiceAccessToken(string, time.Duration) (string, error) {
	return s.token, s.err
}

func newTestHandlers(t *testing.T) (Handlers, *stubCarrier) {
	t.Helper()

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	carrier := &stubCarrier{}
	return Handlers{
		Auth:           m,
		History:        history.NewService(carrier, "+15550009999", "https://gw.example.com/sms/status"),
		Tokens:         stubTokens{token: "jwt-token"},
		PasswordHash:   string(hash),
		ClientIdentity: "browser",
	}, carrier
}

func newTestRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/login", h.Login)
	r.POST("/api/refresh", h.Refresh)

	api := r.Group("/api", auth.RequireAccessToken(h.Auth))
	api.GET("/voice-token", h.VoiceToken)
	api.GET("/calls", h.ListCalls)
	api.POST("/messages/send", h.SendMessage)
	return r
}

func doJSON(r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/login", `{"password":"sesame"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.AccessToken
}

func TestLoginIssuesTokenPair(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	tok := loginToken(t, r)
	if tok == "" {
		t.Fatal("expected access token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	w := doJSON(r, http.MethodPost, "/api/login", `{"password":"guess"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	w := doJSON(r, http.MethodPost, "/api/login", `{"password":"sesame"}`, "")
	var out struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(r, http.MethodPost, "/api/refresh", `{"refresh_token":"`+out.RefreshToken+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status %d: %s", w.Code, w.Body.String())
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	access := loginToken(t, r)
	w := doJSON(r, http.MethodPost, "/api/refresh", `{"refresh_token":"`+access+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	w := doJSON(r, http.MethodGet, "/api/calls", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestListCallsReturnsSummary(t *testing.T) {
	h, carrier := newTestHandlers(t)
	sid, status, dur := "CA1", "completed", "30"
	carrier.calls = []openapi.ApiV2010Call{{Sid: &sid, Status: &status, Duration: &dur}}
	r := newTestRouter(h)

	tok := loginToken(t, r)
	w := doJSON(r, http.MethodGet, "/api/calls", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Calls   []history.Call       `json:"calls"`
		Summary history.CallsSummary `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Calls) != 1 || out.Summary.CompletedCalls != 1 {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestVoiceTokenReturnsIdentity(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newTestRouter(h)

	tok := loginToken(t, r)
	w := doJSON(r, http.MethodGet, "/api/voice-token", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Token    string `json:"token"`
		Identity string `json:"identity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Token != "jwt-token" || out.Identity != "browser" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestSendMessageValidatesInput(t *testing.T) {
	h, carrier := newTestHandlers(t)
	r := newTestRouter(h)

	tok := loginToken(t, r)
	w := doJSON(r, http.MethodPost, "/api/messages/send", `{"to":"","body":""}`, tok)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	if carrier.sent {
		t.Fatal("carrier should not have been called")
	}

	w = doJSON(r, http.MethodPost, "/api/messages/send", `{"to":"+15550002222","body":"hi"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !carrier.sent {
		t.Fatal("expected carrier send")
	}
}
