package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-otp-auth/internal/config"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/infrastructure/otpstore"
	"github.com/go-otp-auth/internal/pkg/otpgen"
	transporthttp "github.com/go-otp-auth/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureMailer records delivered bodies instead of sending.
type captureMailer struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (m *captureMailer) SendEmail(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.bodies = append(m.bodies, body)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.bodies)
	code := regexp.MustCompile(`\d{6}`).FindString(m.bodies[len(m.bodies)-1])
	require.NotEmpty(t, code)
	return code
}

func testConfig(apiKey string) *config.Config {
	return &config.Config{
		AppPort:        "0",
		AppEnv:         "test",
		JWTSecret:      "handler-test-secret",
		JWTExpiry:      24 * time.Hour,
		OTPTTL:         5 * time.Minute,
		OTPLength:      6,
		APIKey:         apiKey,
		AllowedOrigins: []string{"*"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *captureMailer) {
	t.Helper()
	tokens, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.JWTExpiry)
	require.NoError(t, err)

	ml := &captureMailer{}
	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Store:     otpstore.NewMemoryStore(),
		Mailer:    ml,
		Generator: otpgen.NewCryptoSource(),
		Tokens:    tokens,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, ml
}

func postJSON(t *testing.T, url string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRequestVerifyProfile_FullFlow(t *testing.T) {
	srv, ml := newTestServer(t, testConfig(""))

	// Request a passcode.
	resp, body := postJSON(t, srv.URL+"/api/request-otp", map[string]string{"email": "u@x.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OTP sent to u@x.com.", body["message"])

	// Redeem the delivered code for a token.
	code := ml.lastCode(t)
	resp, body = postJSON(t, srv.URL+"/api/verify-otp", map[string]string{"email": "u@x.com", "otp": code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Verification successful!", body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// The token opens the profile endpoint.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	profResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer profResp.Body.Close()
	require.Equal(t, http.StatusOK, profResp.StatusCode)

	var prof struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(profResp.Body).Decode(&prof))
	assert.Equal(t, "u@x.com", prof.User.Email)
}

func TestRequestOTP_MissingEmail(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(""))

	resp, body := postJSON(t, srv.URL+"/api/request-otp", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestRequestOTP_DeliveryFailure(t *testing.T) {
	srv, ml := newTestServer(t, testConfig(""))
	ml.err = fmt.Errorf("smtp: connection refused")

	resp, body := postJSON(t, srv.URL+"/api/request-otp", map[string]string{"email": "u@x.com"}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to send OTP email", body["error"])
}

func TestVerifyOTP_UnknownEmail(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(""))

	resp, _ := postJSON(t, srv.URL+"/api/verify-otp", map[string]string{"email": "nobody@x.com", "otp": "123456"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	srv, ml := newTestServer(t, testConfig(""))

	resp, _ := postJSON(t, srv.URL+"/api/request-otp", map[string]string{"email": "u@x.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	wrong := "000000"
	if ml.lastCode(t) == wrong {
		wrong = "000001"
	}
	resp, _ = postJSON(t, srv.URL+"/api/verify-otp", map[string]string{"email": "u@x.com", "otp": wrong}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyOTP_SecondUseRejected(t *testing.T) {
	srv, ml := newTestServer(t, testConfig(""))

	resp, _ := postJSON(t, srv.URL+"/api/request-otp", map[string]string{"email": "u@x.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code := ml.lastCode(t)

	resp, _ = postJSON(t, srv.URL+"/api/verify-otp", map[string]string{"email": "u@x.com", "otp": code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/verify-otp", map[string]string{"email": "u@x.com", "otp": code}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfile_MissingToken(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(""))

	resp, err := http.Get(srv.URL + "/api/profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOTPEndpoints_APIKeyMode(t *testing.T) {
	srv, _ := newTestServer(t, testConfig("svc-secret"))

	// Without the key the endpoint is closed.
	resp, _ := postJSON(t, srv.URL+"/api/request-otp", map[string]string{"email": "u@x.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the key it behaves normally.
	resp, _ = postJSON(t, srv.URL+"/api/request-otp", map[string]string{"email": "u@x.com"},
		map[string]string{"X-API-KEY": "svc-secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(""))

	resp, err := http.Get(srv.URL + "/api/health-check/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
