package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxNameLen           = 255
	maxAge               = 150
	maxGenderLen         = 20
	maxContactLen        = 50
	maxAddressLen        = 500
	maxMedicalHistoryLen = 5000
)

// Patient is a medical record owned by the user who created it.
// OwnerID is set once at creation and never changes.
type Patient struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Contact        string    `json:"contact"`
	Address        string    `json:"address"`
	MedicalHistory string    `json:"medical_history"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks the field constraints shared by create and update.
func (p *Patient) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Age < 0 || p.Age > maxAge {
		problems = append(problems, fmt.Sprintf("age must be between 0 and %d", maxAge))
	}
	problems = appendTooLong(problems, "name", p.Name, maxNameLen)
	problems = appendTooLong(problems, "gender", p.Gender, maxGenderLen)
	problems = appendTooLong(problems, "contact", p.Contact, maxContactLen)
	problems = appendTooLong(problems, "address", p.Address, maxAddressLen)
	problems = appendTooLong(problems, "medical_history", p.MedicalHistory, maxMedicalHistoryLen)
	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

func appendTooLong(problems []string, field, value string, max int) []string {
	if len([]rune(value)) > max {
		return append(problems, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return problems
}
