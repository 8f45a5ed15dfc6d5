package services

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/provisa-fr/provisa_api/dto"
	"github.com/provisa-fr/provisa_api/shared"
)

// SpamService screens submissions with three heuristics, cheapest and most
// reliable first: honeypot, fill time, content patterns. Any match rejects
// with the same generic message; which heuristic fired is only logged, so
// automated submitters get no signal to adapt to.
type SpamService struct {
	appContext.DefaultService

	minFillTime time.Duration
}

const SPAM_SVC = "spam_svc"

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)viagra|cialis|casino|lottery|winner`),
	regexp.MustCompile(`(?i)\bhttps?://\S+\b.*\bhttps?://\S+\b`),
	regexp.MustCompile(`(?i)<script|javascript:|onclick|onerror`),
}

func (svc SpamService) Id() string {
	return SPAM_SVC
}

func (svc *SpamService) Configure(ctx *appContext.Context) error {
	svc.minFillTime = 3 * time.Second
	if v := os.Getenv("SPAM_MIN_FILL_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid SPAM_MIN_FILL_TIME: %q", v)
		}
		svc.minFillTime = d
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *SpamService) Start() error {
	return nil
}

// Check returns nil for a clean submission. now is the evaluation instant,
// passed in so the timing heuristic is testable.
func (svc *SpamService) Check(req *dto.SubmitApplicationRequest, now time.Time) error {
	if strings.TrimSpace(req.Honeypot) != "" {
		log.WithField("heuristic", "honeypot").Info("Submission rejected as spam")
		return shared.NewSpamRejectionError(fmt.Errorf("honeypot filled"))
	}

	// A zero timestamp means the frontend did not report one; only a
	// reported render time can prove the form was filled too fast.
	if req.Timestamp > 0 {
		elapsed := now.Sub(time.UnixMilli(req.Timestamp))
		if elapsed < svc.minFillTime {
			log.WithFields(log.Fields{
				"heuristic": "timing",
				"elapsed":   elapsed.String(),
			}).Info("Submission rejected as spam")
			return shared.NewSpamRejectionError(fmt.Errorf("form submitted after %s", elapsed))
		}
	}

	allText := fmt.Sprintf("%s %s %s %s", req.Name, req.Email, req.Message, req.Profession)
	for i, pattern := range suspiciousPatterns {
		if pattern.MatchString(allText) {
			log.WithFields(log.Fields{
				"heuristic": "content",
				"pattern":   i,
			}).Info("Submission rejected as spam")
			return shared.NewSpamRejectionError(fmt.Errorf("content matched pattern %d", i))
		}
	}

	return nil
}
