package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthServer mimics the external auth service: /login issues a token
// for the fixed test user, /verify-token accepts only that token.
func stubAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Username != "eric" || creds.Password != "vmware1!" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad user or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "good-token"})
	})
	mux.HandleFunc("/verify-token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.AccessToken != "good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token verified"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func gatedProbe(cfg AuthConfig) http.Handler {
	gate := newAuthGate(cfg, log)
	return gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthModeVerify(t *testing.T) {
	auth := stubAuthServer(t)
	h := gatedProbe(AuthConfig{Mode: authModeVerify, AuthURL: auth.URL})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusOK},
		{"invalid token", "Bearer forged", http.StatusUnauthorized},
		{"not a bearer header", "Basic abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart/items/bill", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthModeTestUser(t *testing.T) {
	auth := stubAuthServer(t)

	// The gate logs in the fixed test user itself; the request needs no
	// token at all.
	h := gatedProbe(AuthConfig{
		Mode:         authModeTestUser,
		AuthURL:      auth.URL,
		TestUsername: "eric",
		TestPassword: "vmware1!",
	})
	req := httptest.NewRequest(http.MethodGet, "/cart/items/bill", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Bad configured credentials fail closed.
	h = gatedProbe(AuthConfig{
		Mode:         authModeTestUser,
		AuthURL:      auth.URL,
		TestUsername: "eric",
		TestPassword: "wrong",
	})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart/items/bill", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthBypassMode(t *testing.T) {
	// Any mode outside 1 and 2 bypasses verification entirely; no auth
	// service is reachable here.
	h := gatedProbe(AuthConfig{Mode: 0, AuthURL: "http://127.0.0.1:1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart/items/bill", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthServiceUnreachableFailsClosed(t *testing.T) {
	h := gatedProbe(AuthConfig{Mode: authModeVerify, AuthURL: "http://127.0.0.1:1"})
	req := httptest.NewRequest(http.MethodGet, "/cart/items/bill", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
