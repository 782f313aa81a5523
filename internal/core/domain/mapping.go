package domain

import "time"

// Mapping records that a doctor treats a patient. It is visible only to the
// owner of the referenced patient; OwnerID mirrors that owner so stores
// without joins can scope queries.
type Mapping struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	DoctorID   string    `json:"doctor_id"`
	OwnerID    string    `json:"-"`
	AssignedAt time.Time `json:"assigned_at"`
}
