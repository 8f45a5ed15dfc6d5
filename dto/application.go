package dto

import (
	"strings"
	"unicode/utf8"

	"github.com/provisa-fr/provisa_api/shared"
)

// SubmitApplicationRequest is the raw form payload. Honeypot and Timestamp
// are anti-bot signals produced by the frontend: Honeypot is a hidden field
// humans never fill, Timestamp is the epoch-millisecond instant the form was
// rendered.
type SubmitApplicationRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	Profession string `json:"profession"`
	Message    string `json:"message"`
	Honeypot   string `json:"honeypot,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// NormalizedApplication holds the canonical field values that get persisted:
// trimmed, email lower-cased, country accent- and case-folded.
type NormalizedApplication struct {
	Name       string
	Email      string
	Phone      string
	Country    string
	Profession string
	Message    string
	RequestID  string
}

type SubmitApplicationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Validate checks fields in a fixed order and reports the first violation
// only, so a given bad payload always produces the same message. A nil error
// means every field passed; the returned value carries the canonical forms.
func (r *SubmitApplicationRequest) Validate() (*NormalizedApplication, error) {
	name := strings.TrimSpace(r.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return nil, shared.NewBadRequestError(nil, shared.MsgNameLength)
	}

	email := strings.ToLower(strings.TrimSpace(r.Email))
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return nil, shared.NewBadRequestError(err, shared.MsgEmailInvalid)
	}

	phone := strings.TrimSpace(r.Phone)
	if n := utf8.RuneCountInString(phone); n < 8 || n > 20 {
		return nil, shared.NewBadRequestError(nil, shared.MsgPhoneInvalid)
	}

	country := FoldAccents(strings.TrimSpace(r.Country))
	if !isValidCountry(country) {
		return nil, shared.NewBadRequestError(nil, shared.MsgCountryInvalid)
	}

	profession := strings.TrimSpace(r.Profession)
	if n := utf8.RuneCountInString(profession); n < 2 || n > 100 {
		return nil, shared.NewBadRequestError(nil, shared.MsgProfessionLength)
	}

	message := strings.TrimSpace(r.Message)
	if n := utf8.RuneCountInString(message); n < 10 || n > 1000 {
		return nil, shared.NewBadRequestError(nil, shared.MsgMessageLength)
	}

	return &NormalizedApplication{
		Name:       name,
		Email:      email,
		Phone:      phone,
		Country:    country,
		Profession: profession,
		Message:    message,
		RequestID:  strings.TrimSpace(r.RequestID),
	}, nil
}

func isValidCountry(country string) bool {
	for _, c := range shared.ValidCountries {
		if country == c {
			return true
		}
	}
	return false
}
