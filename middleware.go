package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Auth modes. Mode 1 verifies the caller's bearer token against the auth
// service; mode 2 logs in a fixed test user and verifies the token it gets
// back, for running without real clients; any other value bypasses auth
// entirely.
const (
	authModeVerify   = 1
	authModeTestUser = 2
)

// AuthConfig is the explicit configuration of the auth gate; it replaces
// any process-wide mode switch.
type AuthConfig struct {
	Mode         int
	AuthURL      string
	TestUsername string
	TestPassword string
}

type authGate struct {
	cfg    AuthConfig
	client *http.Client
	log    logrus.FieldLogger
}

func newAuthGate(cfg AuthConfig, log logrus.FieldLogger) *authGate {
	return &authGate{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Middleware gates a route on bearer-token verification according to the
// configured mode.
func (a *authGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch a.cfg.Mode {
		case authModeVerify:
			token := bearerToken(r)
			if token == "" {
				a.log.Info("no bearer token sent")
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "unauthorized"})
				return
			}
			if !a.verifyToken(r, token) {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "unauthorized"})
				return
			}
		case authModeTestUser:
			token, ok := a.loginTestUser(r)
			if !ok || !a.verifyToken(r, token) {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "unauthorized"})
				return
			}
		default:
			// Bypass mode.
		}
		next.ServeHTTP(w, r)
	})
}

// verifyToken asks the auth service whether the token is valid.
func (a *authGate) verifyToken(r *http.Request, token string) bool {
	body, _ := json.Marshal(map[string]string{"access_token": token})
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, a.cfg.AuthURL+"/verify-token", bytes.NewReader(body))
	if err != nil {
		a.log.WithError(err).Error("building verify-token request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		a.log.WithError(err).Error("calling verify-token")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.log.WithField("status", resp.StatusCode).Info("token rejected by auth service")
		return false
	}
	return true
}

// loginTestUser fetches a token for the fixed test user (mode 2 only).
func (a *authGate) loginTestUser(r *http.Request) (string, bool) {
	body, _ := json.Marshal(map[string]string{
		"username": a.cfg.TestUsername,
		"password": a.cfg.TestPassword,
	})
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, a.cfg.AuthURL+"/login", bytes.NewReader(body))
	if err != nil {
		a.log.WithError(err).Error("building login request")
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		a.log.WithError(err).Error("calling login")
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.log.WithField("status", resp.StatusCode).Info("test user login failed")
		return "", false
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		a.log.WithError(err).Error("decoding login response")
		return "", false
	}
	return out.AccessToken, true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// logMiddleware tags each request with an id and logs method, path and
// duration.
func logMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID, _ := uuid.NewRandom()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"http.req.id":     requestID.String(),
				"http.req.method": r.Method,
				"http.req.path":   r.URL.Path,
				"duration":        time.Since(start),
			}).Debug("request complete")
		})
	}
}
