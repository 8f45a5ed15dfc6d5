package services

import (
	"context"
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/provisa-fr/provisa_api/dto"
	"github.com/provisa-fr/provisa_api/model"
	"github.com/provisa-fr/provisa_api/shared"
)

// Collaborator contracts for the intake pipeline. The concrete services fill
// them in Start; tests substitute fakes.
type spamFilter interface {
	Check(req *dto.SubmitApplicationRequest, now time.Time) error
}

type admissionGate interface {
	Admit(ctx context.Context, clientIP string) (*dto.AdmissionDecision, error)
}

type submissionStore interface {
	SaveApplication(ctx context.Context, app *model.Application) error
}

// notificationDispatcher never reports failure: notification is not on the
// correctness path and its errors stay server-side.
type notificationDispatcher interface {
	DispatchApplication(ctx context.Context, app *model.Application)
}

// ApplicationService runs one submission through the intake pipeline:
// spam heuristics, field validation, the per-IP admission gate, durable
// persistence, then best-effort notifications. Only persistence decides
// success; everything after it cannot fail the request.
type ApplicationService struct {
	appContext.DefaultService

	spam     spamFilter
	gate     admissionGate
	store    submissionStore
	notifier notificationDispatcher
}

const APPLICATION_SVC = "application_svc"

const (
	storeTimeout    = 5 * time.Second
	dispatchTimeout = 15 * time.Second
)

func (svc ApplicationService) Id() string {
	return APPLICATION_SVC
}

func (svc *ApplicationService) Start() error {
	svc.spam = svc.Service(SPAM_SVC).(*SpamService)
	svc.gate = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.notifier = svc.Service(EMAIL_SVC).(*EmailService)
	return nil
}

// SubmitApplication evaluates exactly one submission. Rejections before the
// store step persist nothing; an admitted attempt that later fails to
// persist keeps its rate-limit cost, since the gate prices attempts, not
// outcomes.
func (svc *ApplicationService) SubmitApplication(req *dto.SubmitApplicationRequest, clientIP string) (*dto.SubmitApplicationResponse, error) {
	now := time.Now()

	if err := svc.spam.Check(req, now); err != nil {
		RecordSubmission(OutcomeSpamRejected)
		return nil, err
	}

	normalized, err := req.Validate()
	if err != nil {
		RecordSubmission(OutcomeValidationRejected)
		return nil, err
	}

	// Store interactions run on detached, bounded contexts: a client that
	// disconnects mid-request must not leave a half-admitted submission.
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	decision, err := svc.gate.Admit(ctx, clientIP)
	if err != nil {
		RecordSubmission(OutcomeError)
		return nil, shared.NewInternalError(err)
	}
	if !decision.Allowed {
		RecordSubmission(OutcomeRateLimited)
		log.WithFields(log.Fields{
			"client_ip":   clientIP,
			"retry_after": decision.RetryAfter,
		}).Info("Submission rate limited")
		return nil, shared.NewRateLimitError(*decision.RetryAfter)
	}

	app := svc.buildRecord(normalized, now)

	if err := svc.store.SaveApplication(ctx, app); err != nil {
		if errors.Is(err, shared.ErrDuplicateSubmission) {
			// A retried requestId: the first attempt already succeeded and
			// already sent its notifications.
			RecordSubmission(OutcomeDuplicate)
			return &dto.SubmitApplicationResponse{Success: true, Message: shared.MsgSubmissionSaved}, nil
		}
		RecordSubmission(OutcomeError)
		return nil, shared.NewInternalError(err)
	}

	RecordSubmission(OutcomeAccepted)
	log.WithFields(log.Fields{
		"application_id": app.ID,
		"country":        app.Country,
	}).Info("Application saved")

	go func() {
		dispatchCtx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		svc.notifier.DispatchApplication(dispatchCtx, app)
	}()

	return &dto.SubmitApplicationResponse{Success: true, Message: shared.MsgSubmissionSaved}, nil
}

func (svc *ApplicationService) buildRecord(normalized *dto.NormalizedApplication, now time.Time) *model.Application {
	app := &model.Application{
		ID:         uuid.NewString(),
		Name:       normalized.Name,
		Email:      normalized.Email,
		Phone:      normalized.Phone,
		Country:    normalized.Country,
		Profession: normalized.Profession,
		Message:    normalized.Message,
		Status:     shared.StatusNouveau,
		CreatedAt:  now,
	}
	if normalized.RequestID != "" {
		app.RequestID = &normalized.RequestID
	}
	return app
}
