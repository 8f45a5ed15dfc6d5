package dto

import "time"

// AdmissionDecision is the rate limiter's verdict for one attempt.
type AdmissionDecision struct {
	Allowed    bool       `json:"allowed"`
	Remaining  int        `json:"remaining"`
	RetryAfter *time.Time `json:"retry_after,omitempty"`
}
