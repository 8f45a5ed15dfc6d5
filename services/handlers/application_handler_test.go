package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/provisa-fr/provisa_api/dto"
	"github.com/provisa-fr/provisa_api/shared"
)

type stubApplicationService struct {
	resp   *dto.SubmitApplicationResponse
	err    error
	lastIP string
	called bool
}

func (s *stubApplicationService) SubmitApplication(_ *dto.SubmitApplicationRequest, clientIP string) (*dto.SubmitApplicationResponse, error) {
	s.called = true
	s.lastIP = clientIP
	return s.resp, s.err
}

func newTestApp(svc ApplicationServiceInterface) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	handler := NewApplicationHandler(svc)
	app.Post("/api/v1/applications", handler.SubmitApplication)
	return app
}

func postApplication(t *testing.T, app *fiber.App, body string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	res.Body.Close()

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, raw)
	}
	return res, parsed
}

const submissionBody = `{
	"name": "Marie Laurent",
	"email": "marie@example.com",
	"phone": "+33612345678",
	"country": "France",
	"profession": "Ingénieure",
	"message": "Je souhaite préparer mon installation en France."
}`

func TestSubmitApplicationReturnsSuccessBody(t *testing.T) {
	svc := &stubApplicationService{
		resp: &dto.SubmitApplicationResponse{Success: true, Message: shared.MsgSubmissionSaved},
	}
	app := newTestApp(svc)

	res, body := postApplication(t, app, submissionBody, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["message"] != shared.MsgSubmissionSaved {
		t.Errorf("message = %v, want %q", body["message"], shared.MsgSubmissionSaved)
	}
	if !svc.called {
		t.Error("service never invoked")
	}
}

func TestSubmitApplicationMalformedBody(t *testing.T) {
	svc := &stubApplicationService{}
	app := newTestApp(svc)

	res, body := postApplication(t, app, `{"name": `, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if body["error"] != shared.MsgInvalidBody {
		t.Errorf("error = %v, want %q", body["error"], shared.MsgInvalidBody)
	}
	if svc.called {
		t.Error("service invoked for a malformed body")
	}
}

func TestSubmitApplicationValidationError(t *testing.T) {
	svc := &stubApplicationService{
		err: shared.NewBadRequestError(nil, shared.MsgEmailInvalid),
	}
	app := newTestApp(svc)

	res, body := postApplication(t, app, submissionBody, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if body["error"] != shared.MsgEmailInvalid {
		t.Errorf("error = %v, want %q", body["error"], shared.MsgEmailInvalid)
	}
	if _, present := body["retryAfter"]; present {
		t.Error("retryAfter present on a non-429 response")
	}
}

func TestSubmitApplicationRateLimited(t *testing.T) {
	retryAfter := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	svc := &stubApplicationService{err: shared.NewRateLimitError(retryAfter)}
	app := newTestApp(svc)

	res, body := postApplication(t, app, submissionBody, nil)
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", res.StatusCode)
	}
	if body["error"] != shared.MsgRateLimited {
		t.Errorf("error = %v, want %q", body["error"], shared.MsgRateLimited)
	}
	if body["retryAfter"] != "2026-08-31T14:00:00Z" {
		t.Errorf("retryAfter = %v, want RFC3339 UTC instant", body["retryAfter"])
	}
}

func TestSubmitApplicationInternalError(t *testing.T) {
	svc := &stubApplicationService{
		err: shared.NewInternalError(io.ErrUnexpectedEOF),
	}
	app := newTestApp(svc)

	res, body := postApplication(t, app, submissionBody, nil)
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", res.StatusCode)
	}
	// Infrastructure detail stays server-side.
	if body["error"] != shared.MsgInternalError {
		t.Errorf("error = %v, want %q", body["error"], shared.MsgInternalError)
	}
}

func TestSubmitApplicationClientIPFromForwardedFor(t *testing.T) {
	svc := &stubApplicationService{
		resp: &dto.SubmitApplicationResponse{Success: true, Message: shared.MsgSubmissionSaved},
	}
	app := newTestApp(svc)

	postApplication(t, app, submissionBody, map[string]string{
		"X-Forwarded-For": "198.51.100.7, 10.0.0.1",
	})
	if svc.lastIP != "198.51.100.7" {
		t.Errorf("client IP = %q, want first X-Forwarded-For entry", svc.lastIP)
	}
}

func TestSubmitApplicationClientIPFromRealIP(t *testing.T) {
	svc := &stubApplicationService{
		resp: &dto.SubmitApplicationResponse{Success: true, Message: shared.MsgSubmissionSaved},
	}
	app := newTestApp(svc)

	postApplication(t, app, submissionBody, map[string]string{
		"X-Real-IP": "198.51.100.9",
	})
	if svc.lastIP != "198.51.100.9" {
		t.Errorf("client IP = %q, want X-Real-IP value", svc.lastIP)
	}
}
