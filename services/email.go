package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"

	appContext "github.com/alphabatem/common/context"
	"github.com/resend/resend-go/v2"
	log "github.com/sirupsen/logrus"

	"github.com/provisa-fr/provisa_api/model"
)

// EmailService sends the two outbound mails for an accepted candidature: an
// operator notification and a confirmation to the candidate. Both sends are
// best-effort and independent; Dispatch never reports failure upward.
type EmailService struct {
	appContext.DefaultService

	client     *resend.Client
	fromEmail  string
	adminEmail string

	templates map[string]*template.Template
}

const EMAIL_SVC = "email_svc"

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *appContext.Context) error {
	// Some deploy targets restrict which env names can be set; accept the
	// fallback name too.
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("RESEND_KEY")
	}
	if apiKey != "" {
		svc.client = resend.NewClient(apiKey)
	}

	svc.fromEmail = os.Getenv("FROM_EMAIL")
	if svc.fromEmail == "" {
		svc.fromEmail = "ProVisa <contact@provisa.fr>"
	}
	svc.adminEmail = os.Getenv("ADMIN_EMAIL")
	if svc.adminEmail == "" {
		svc.adminEmail = "contact@provisa.fr"
	}

	svc.templates = make(map[string]*template.Template)

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	if err := svc.loadTemplates(); err != nil {
		return err
	}

	if svc.client == nil {
		log.Warn("RESEND_API_KEY not configured, notification emails disabled")
	}
	return nil
}

// Email templates
const adminNotificationHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #667eea; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .info-block { background: white; padding: 20px; margin: 15px 0; border-radius: 8px; }
        .label { color: #667eea; font-weight: bold; margin-bottom: 5px; }
        .value { color: #333; font-size: 16px; margin-bottom: 15px; }
        .message-box { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 15px 0; }
        .footer { text-align: center; color: #999; font-size: 12px; padding: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1 style="margin: 0;">Nouvelle candidature</h1>
            <p style="margin: 10px 0 0 0;">Une nouvelle demande d'immigration professionnelle</p>
        </div>
        <div class="content">
            <div class="info-block">
                <div class="label">Candidat</div>
                <div class="value">{{.Name}}</div>
                <div class="label">Email</div>
                <div class="value"><a href="mailto:{{.Email}}">{{.Email}}</a></div>
                <div class="label">Téléphone</div>
                <div class="value">{{.Phone}}</div>
                <div class="label">Pays de destination</div>
                <div class="value">{{.Country}}</div>
                <div class="label">Profession</div>
                <div class="value">{{.Profession}}</div>
            </div>
            <div class="message-box">
                <div class="label">Message du candidat</div>
                <div class="value">{{.Message}}</div>
            </div>
        </div>
        <div class="footer">
            <p>Cette candidature a été soumise via le formulaire ProVisa</p>
        </div>
    </div>
</body>
</html>
`

const confirmationHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #667eea; color: white; padding: 40px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .info-box { background: #e8f4f8; border-left: 4px solid #667eea; padding: 20px; margin: 20px 0; }
        .summary { background: white; padding: 20px; margin: 20px 0; border-radius: 8px; }
        .summary-item { padding: 10px 0; border-bottom: 1px solid #eee; }
        .label { color: #667eea; font-weight: bold; display: inline-block; width: 150px; }
        .footer { text-align: center; color: #999; font-size: 12px; padding: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1 style="margin: 0;">Candidature bien reçue</h1>
            <p style="margin: 15px 0 0 0; font-size: 18px;">Merci {{.Name}}</p>
        </div>
        <div class="content">
            <p>Nous avons bien reçu votre candidature pour <strong>{{.Country}}</strong> et nous vous remercions de votre confiance.</p>
            <div class="info-box">
                <p style="margin: 0;"><strong>Délai de réponse :</strong> notre équipe d'experts va examiner votre dossier et vous recontactera dans les <strong>24 à 48 heures</strong>.</p>
            </div>
            <div class="summary">
                <h2 style="color: #667eea; margin-top: 0;">Récapitulatif de votre demande</h2>
                <div class="summary-item"><span class="label">Nom :</span>{{.Name}}</div>
                <div class="summary-item"><span class="label">Email :</span>{{.Email}}</div>
                <div class="summary-item"><span class="label">Téléphone :</span>{{.Phone}}</div>
                <div class="summary-item"><span class="label">Destination :</span>{{.Country}}</div>
                <div class="summary-item"><span class="label">Profession :</span>{{.Profession}}</div>
            </div>
            <p style="text-align: center; color: #666; font-style: italic;">L'équipe ProVisa</p>
        </div>
        <div class="footer">
            <p>Cet email a été envoyé car vous avez soumis une candidature sur ProVisa</p>
        </div>
    </div>
</body>
</html>
`

type applicationEmailData struct {
	Name       string
	Email      string
	Phone      string
	Country    string
	Profession string
	Message    string
}

func (svc *EmailService) loadTemplates() error {
	var err error

	svc.templates["admin_notification"], err = template.New("admin_notification").Parse(adminNotificationHTML)
	if err != nil {
		return fmt.Errorf("failed to parse admin notification template: %v", err)
	}

	svc.templates["confirmation"], err = template.New("confirmation").Parse(confirmationHTML)
	if err != nil {
		return fmt.Errorf("failed to parse confirmation template: %v", err)
	}

	return nil
}

// DispatchApplication notifies the operator and confirms receipt to the
// candidate. Failures are logged and swallowed: the candidature is already
// durable and must not be failed retroactively by mail transport trouble.
func (svc *EmailService) DispatchApplication(ctx context.Context, app *model.Application) {
	if svc.client == nil {
		log.Warn("Email client not configured, skipping application notifications")
		return
	}

	data := applicationEmailData{
		Name:       app.Name,
		Email:      app.Email,
		Phone:      app.Phone,
		Country:    app.Country,
		Profession: app.Profession,
		Message:    app.Message,
	}

	if err := svc.sendAdminNotification(ctx, data); err != nil {
		log.WithError(err).WithField("application_id", app.ID).Error("Failed to send admin notification")
	}

	if err := svc.sendConfirmation(ctx, data); err != nil {
		log.WithError(err).WithField("application_id", app.ID).Error("Failed to send confirmation email")
	}
}

func (svc *EmailService) sendAdminNotification(ctx context.Context, data applicationEmailData) error {
	html, err := svc.render("admin_notification", data)
	if err != nil {
		return err
	}

	_, err = svc.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    svc.fromEmail,
		To:      []string{svc.adminEmail},
		Subject: fmt.Sprintf("Nouvelle candidature - %s", data.Name),
		Html:    html,
		ReplyTo: data.Email,
	})
	return err
}

func (svc *EmailService) sendConfirmation(ctx context.Context, data applicationEmailData) error {
	html, err := svc.render("confirmation", data)
	if err != nil {
		return err
	}

	_, err = svc.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    svc.fromEmail,
		To:      []string{data.Email},
		Subject: "Candidature bien reçue - ProVisa",
		Html:    html,
		ReplyTo: svc.adminEmail,
	})
	return err
}

func (svc *EmailService) render(name string, data applicationEmailData) (string, error) {
	tmpl, ok := svc.templates[name]
	if !ok {
		return "", fmt.Errorf("template %s not loaded", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
