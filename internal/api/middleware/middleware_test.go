package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"showcase/internal/auth"
)

type stubValidator map[string]uint

func (s stubValidator) ValidateAccessToken(token string) (*auth.TokenClaims, error) {
	id, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.TokenClaims{UserID: id, TokenType: auth.TokenTypeAccess}, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"user": id, "correlation": GetCorrelationID(c)})
	})
	r.GET("/", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(AuthMiddleware(stubValidator{"good": 3}))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("header %q: status %d, want %d", tt.header, w.Code, tt.want)
		}
	}
}

func TestOptionalAuthMiddlewareAllowsAnonymous(t *testing.T) {
	r := newEngine(OptionalAuthMiddleware(stubValidator{"good": 3}))

	for _, header := range []string{"", "Bearer bad", "Bearer good"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("header %q: status %d", header, w.Code)
		}
	}
}

func TestInternalSecretMiddleware(t *testing.T) {
	r := newEngine(InternalSecretMiddleware("s3cret"))

	tests := []struct {
		secret string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusUnauthorized},
		{"s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Internal-Secret", tt.secret)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("secret %q: status %d, want %d", tt.secret, w.Code, tt.want)
		}
	}

	unconfigured := newEngine(InternalSecretMiddleware(" "))
	w := httptest.NewRecorder()
	unconfigured.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unconfigured secret: status %d", w.Code)
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	r := newEngine(CorrelationIDMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Correlation-ID"); got != "abc" {
		t.Fatalf("echoed correlation id = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("X-Correlation-ID"); len(got) != 36 {
		t.Fatalf("generated correlation id = %q", got)
	}
}

func TestSlogLoggerMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	r.GET("/items/:id", func(c *gin.Context) {
		LoggerFromContext(c).Info("handled")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/3", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"msg=handled", "correlation_id=corr-1", "path=/items/:id", "status=204"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}
