package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

func TestAuthenticateAcceptsIssuedToken(t *testing.T) {
	tm := newTestManager(t)
	id := uuid.New()
	token, err := tm.Issue(id, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got uuid.UUID
	h := Authenticate(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, err = GetUserIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("GetUserIDFromContext: %v", err)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got != id {
		t.Fatalf("user id=%s want %s", got, id)
	}
}

func TestAuthenticateAcceptsSubjectClaim(t *testing.T) {
	tm := newTestManager(t)
	id := uuid.New()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id.String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := tm.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, err := userIDFromClaims(claims); err != nil || got != id {
		t.Fatalf("userIDFromClaims: %s %v", got, err)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	tm := newTestManager(t)
	other, _ := NewTokenManager("other-secret", time.Hour)
	foreign, _ := other.Issue(uuid.New(), "mallory")

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Issue(uuid.New(), "bob")

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"wrong secret":   "Bearer " + foreign,
		"expired":        "Bearer " + stale,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h := Authenticate(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("handler should not be called")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status=%d", rec.Code)
			}
		})
	}
}
