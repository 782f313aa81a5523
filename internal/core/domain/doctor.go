package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var emailCheck = validator.New()

// Doctor is a practitioner directory entry. Doctors have no owner.
type Doctor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Contact        string    `json:"contact"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks the field constraints shared by create and update.
func (d *Doctor) Validate() error {
	var problems []string
	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(d.Specialization) == "" {
		problems = append(problems, "specialization is required")
	}
	if emailCheck.Var(d.Email, "required,email") != nil {
		problems = append(problems, "email must be a valid email")
	}
	problems = appendTooLong(problems, "name", d.Name, maxNameLen)
	problems = appendTooLong(problems, "specialization", d.Specialization, maxNameLen)
	problems = appendTooLong(problems, "contact", d.Contact, maxContactLen)
	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}
