package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/service"

	"github.com/gin-gonic/gin"
)

// newGuardedRouter wires only the token middleware in front of a probe route
// that echoes the user id the middleware resolved.
func newGuardedRouter(auth *mockAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Authorization: auth}, logger.Get(logger.ErrorLevel))
	r.GET("/secure", h.userIdMiddleware, func(c *gin.Context) {
		uid, _ := c.Get(userIDContextKey)
		c.JSON(http.StatusOK, gin.H{"userId": uid})
	})
	return r
}

func TestUserIDMiddleware_RejectsBadHeaders(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		wantErr  string
	}{
		{name: "missing header", wantErr: "missing Authorization header"},
		{name: "wrong scheme", header: "Token abc", wantErr: "invalid Authorization header format"},
		{name: "bearer without token", header: "Bearer", wantErr: "invalid Authorization header format"},
		{name: "rejected token", header: "Bearer expired", parseErr: errors.New("expired"), wantErr: "invalid or expired token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newGuardedRouter(&mockAuth{parseErr: tc.parseErr})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set(authorizationHeader, tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401 (body=%s)", w.Code, w.Body.String())
			}
			var resp struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tc.wantErr {
				t.Fatalf("error: got %q, want %q", resp.Error, tc.wantErr)
			}
		})
	}
}

func TestUserIDMiddleware_ValidTokenPassesThrough(t *testing.T) {
	auth := &mockAuth{parseID: 123}
	r := newGuardedRouter(auth)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set(authorizationHeader, "Bearer good-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		UserID int `json:"userId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.UserID != 123 {
		t.Fatalf("expected userId 123, got %d", resp.UserID)
	}
	if auth.lastParseToken != "good-token" {
		t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, "good-token")
	}
}
