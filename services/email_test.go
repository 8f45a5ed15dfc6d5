package services

import (
	"context"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/provisa-fr/provisa_api/model"
)

func newTestMailer(t *testing.T) *EmailService {
	t.Helper()
	svc := &EmailService{templates: map[string]*template.Template{}}
	if err := svc.loadTemplates(); err != nil {
		t.Fatalf("loadTemplates: %v", err)
	}
	return svc
}

func testApplication() *model.Application {
	return &model.Application{
		ID:         "app-1",
		Name:       "Marie Laurent",
		Email:      "marie@example.com",
		Phone:      "+33612345678",
		Country:    "france",
		Profession: "Ingénieure",
		Message:    "Je souhaite préparer mon installation en France.",
		Status:     "nouveau",
		CreatedAt:  time.Now(),
	}
}

func TestRenderAdminNotification(t *testing.T) {
	svc := newTestMailer(t)
	app := testApplication()

	html, err := svc.render("admin_notification", applicationEmailData{
		Name:       app.Name,
		Email:      app.Email,
		Phone:      app.Phone,
		Country:    app.Country,
		Profession: app.Profession,
		Message:    app.Message,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Nouvelle candidature",
		"Marie Laurent",
		"mailto:marie@example.com",
		"+33612345678",
		"Ingénieure",
		"Je souhaite préparer mon installation en France.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("admin notification missing %q", want)
		}
	}
}

func TestRenderConfirmation(t *testing.T) {
	svc := newTestMailer(t)

	html, err := svc.render("confirmation", applicationEmailData{
		Name:    "Marie Laurent",
		Email:   "marie@example.com",
		Country: "france",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Candidature bien reçue",
		"Merci Marie Laurent",
		"24 à 48 heures",
		"marie@example.com",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("confirmation missing %q", want)
		}
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	svc := newTestMailer(t)

	html, err := svc.render("admin_notification", applicationEmailData{
		Name:    "<script>alert(1)</script>",
		Email:   "a@b.fr",
		Message: "hello <b>there</b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("candidate-supplied markup not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("expected escaped script tag in output")
	}
}

func TestDispatchWithoutClientIsNoop(t *testing.T) {
	svc := newTestMailer(t)

	// Must neither panic nor attempt network traffic when no API key is set.
	svc.DispatchApplication(context.Background(), testApplication())
}
