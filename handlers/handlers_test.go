package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/middleware"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type stubAuthService struct {
	registerErr error
}

func (s *stubAuthService) Register(_ context.Context, in services.RegisterInput) (*models.User, string, error) {
	if s.registerErr != nil {
		return nil, "", s.registerErr
	}
	return &models.User{ID: uuid.New(), Email: in.Email, Username: in.Username}, "tok", nil
}

func (s *stubAuthService) Login(context.Context, services.LoginInput) (*models.User, string, error) {
	return nil, "", &services.Error{Kind: services.KindUnauthorized, Msg: "invalid email or password"}
}

type stubBattleService struct {
	services.BattleService
	submit func(userID, battleID uuid.UUID, prompt string) (*services.SubmitResult, error)
}

func (s *stubBattleService) SubmitPrompt(_ context.Context, userID, battleID uuid.UUID, prompt string) (*services.SubmitResult, error) {
	return s.submit(userID, battleID, prompt)
}

type stubUserService struct {
	services.UserService
	gotContentType string
	gotBody        string
}

func (s *stubUserService) UploadAvatar(_ context.Context, userID uuid.UUID, contentType string, file io.Reader) (*models.User, error) {
	b, _ := io.ReadAll(file)
	s.gotContentType, s.gotBody = contentType, string(b)
	url := "https://cdn.example.com/a.png"
	return &models.User{ID: userID, AvatarURL: &url}, nil
}

func withUser(r *http.Request, id uuid.UUID) *http.Request {
	claims := jwt.MapClaims{"user_id": id.String()}
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind services.Kind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindUnauthorized, http.StatusUnauthorized},
		{services.KindForbidden, http.StatusForbidden},
		{services.KindNotFound, http.StatusNotFound},
		{services.KindConflict, http.StatusConflict},
		{services.KindUpstream, http.StatusBadGateway},
		{services.KindParse, http.StatusBadGateway},
		{services.KindPersistence, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q)=%d want %d", tt.kind, got, tt.want)
		}
	}
}

func TestMapServiceErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	err := &services.Error{Kind: services.KindPersistence, Op: "battles.Get", Err: errors.New("pq: connection refused")}

	mapServiceErrorToHTTP(rec, req, logger.NewNop(), fmt.Errorf("wrapped: %w", err))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if msg := decodeBody(t, rec)["error"]; msg == "" || bytes.Contains(rec.Body.Bytes(), []byte("pq:")) {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestRegisterHandler(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, logger.NewNop())

	rec := httptest.NewRecorder()
	body := `{"email":"a@example.com","password":"longenough","username":"alice"}`
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["token"] != "tok" || out["user"] == nil {
		t.Fatalf("unexpected body: %v", out)
	}

	conflict := NewAuthHandler(&stubAuthService{registerErr: &services.Error{Kind: services.KindConflict, Msg: "email address is already in use"}}, logger.NewNop())
	rec = httptest.NewRecorder()
	conflict.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "email address is already in use" {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, logger.NewNop())
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"email":"a@b.co","role":"admin"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestLoginMapsUnauthorized(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, logger.NewNop())
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.co","password":"x"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestSubmitPromptHandler(t *testing.T) {
	battleID, userID := uuid.New(), uuid.New()
	svc := &stubBattleService{submit: func(u, b uuid.UUID, prompt string) (*services.SubmitResult, error) {
		if u != userID || b != battleID || prompt != "write a haiku" {
			t.Fatalf("unexpected args: %s %s %q", u, b, prompt)
		}
		return &services.SubmitResult{
			Battle: &models.Battle{ID: b, Status: models.BattleStatusInProgress},
			State:  services.SubmitStateWaiting,
		}, nil
	}}
	h := NewBattleHandler(svc, logger.NewNop())
	router := chi.NewRouter()
	router.Post("/battles/{id}/prompt", h.SubmitPrompt)

	req := httptest.NewRequest(http.MethodPost, "/battles/"+battleID.String()+"/prompt", bytes.NewBufferString(`{"prompt":"write a haiku"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withUser(req, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["state"] != "waiting" {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestSubmitPromptHandlerErrors(t *testing.T) {
	userID := uuid.New()
	svc := &stubBattleService{submit: func(uuid.UUID, uuid.UUID, string) (*services.SubmitResult, error) {
		return nil, &services.Error{Kind: services.KindParse, Msg: "language model returned an unusable reply"}
	}}
	h := NewBattleHandler(svc, logger.NewNop())
	router := chi.NewRouter()
	router.Post("/battles/{id}/prompt", h.SubmitPrompt)

	tests := []struct {
		name string
		path string
		user bool
		want int
	}{
		{"bad id", "/battles/not-a-uuid/prompt", true, http.StatusBadRequest},
		{"no user", "/battles/" + uuid.NewString() + "/prompt", false, http.StatusUnauthorized},
		{"model failure", "/battles/" + uuid.NewString() + "/prompt", true, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(`{"prompt":"p"}`))
			if tt.user {
				req = withUser(req, userID)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestUploadAvatarHandler(t *testing.T) {
	svc := &stubUserService{}
	h := NewUserHandler(svc, logger.NewNop())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="avatar"; filename="a.png"`)
	hdr.Set("Content-Type", "image/png")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadAvatar(rec, withUser(req, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotContentType != "image/png" || svc.gotBody != "png-bytes" {
		t.Fatalf("service got %q %q", svc.gotContentType, svc.gotBody)
	}
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(failingPinger{}, logger.NewNop()).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(failingPinger{err: errors.New("down")}, logger.NewNop()).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com/"})
	req := httptest.NewRequest(http.MethodGet, "/ws/battles/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	if !check(req) {
		t.Fatalf("allowed origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Fatalf("foreign origin accepted")
	}
	if !originChecker([]string{"*"})(req) {
		t.Fatalf("wildcard should accept any origin")
	}
}

func TestReadIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=5&offset=-1", nil)
	if v, err := readIntQuery(req, "limit", 20); err != nil || v != 5 {
		t.Fatalf("limit=%d err=%v", v, err)
	}
	if _, err := readIntQuery(req, "offset", 0); err == nil {
		t.Fatalf("negative offset should be rejected")
	}
	if v, _ := readIntQuery(req, "missing", 7); v != 7 {
		t.Fatalf("default not applied")
	}
}
