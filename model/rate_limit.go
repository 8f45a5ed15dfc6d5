package model

import "time"

// ApplicationRateLimit tracks submission pressure per client IP. One row per
// IP, mutated in place on every admitted attempt. Version guards the
// read-modify-write cycle: every update must carry the version it read, so
// concurrent attempts from the same IP cannot both count the same slot.
type ApplicationRateLimit struct {
	ID               string     `json:"id" gorm:"primaryKey;type:text;not null"`
	IPAddress        string     `json:"ip_address" gorm:"uniqueIndex;not null;size:64"`
	SubmissionCount  int        `json:"submission_count" gorm:"default:0;not null"`
	WindowStartedAt  time.Time  `json:"window_started_at" gorm:"not null"`
	LastSubmissionAt time.Time  `json:"last_submission_at" gorm:"not null;index"`
	BlockedUntil     *time.Time `json:"blocked_until,omitempty" gorm:"index"`
	Version          int64      `json:"-" gorm:"default:0;not null"`
	CreatedAt        time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"not null"`
}

func (ApplicationRateLimit) TableName() string {
	return "application_rate_limits"
}
