package model

import "time"

// Application is a persisted candidature. Rows are created once by the
// intake pipeline and never mutated by it; Status belongs to the operator
// workflow. Column names follow the historical applications table.
type Application struct {
	ID         string  `json:"id" gorm:"primaryKey;type:text;not null"`
	RequestID  *string `json:"request_id,omitempty" gorm:"column:request_id;uniqueIndex;size:128"`
	Name       string  `json:"name" gorm:"column:nom;not null;size:100"`
	Email      string  `json:"email" gorm:"column:email;not null;size:255;index"`
	Phone      string  `json:"phone" gorm:"column:telephone;not null;size:20"`
	Country    string  `json:"country" gorm:"column:pays;not null;size:20"`
	Profession string  `json:"profession" gorm:"column:profession;not null;size:100"`
	Message    string  `json:"message" gorm:"column:message;type:text;not null"`

	Status    string    `json:"status" gorm:"default:nouveau;not null;size:32"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

func (Application) TableName() string {
	return "applications"
}
