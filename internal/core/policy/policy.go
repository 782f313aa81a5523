// Package policy holds the authorization predicates for every resource.
//
// Services call these before each mutating or scoped read. A false result on
// an owner-scoped resource must be reported as not found, never as forbidden.
package policy

import "github.com/carelink/healthcare-api/internal/core/domain"

// CanAccessPatient reports whether caller may read, update or delete p.
func CanAccessPatient(caller domain.Identity, p *domain.Patient) bool {
	return caller.Authenticated() && p != nil && p.OwnerID == caller.UserID
}

// CanCreatePatient reports whether caller may create a patient. The caller
// becomes the owner.
func CanCreatePatient(caller domain.Identity) bool {
	return caller.Authenticated()
}

// CanAccessDoctor reports whether caller may perform any operation on the
// doctor directory.
func CanAccessDoctor(caller domain.Identity) bool {
	return caller.Authenticated()
}

// CanAccessMapping reports whether caller may create, read or delete a
// mapping that references patient.
func CanAccessMapping(caller domain.Identity, patient *domain.Patient) bool {
	return CanAccessPatient(caller, patient)
}

// CanSeeMapping reports whether a stored mapping is visible to caller.
func CanSeeMapping(caller domain.Identity, m *domain.Mapping) bool {
	return caller.Authenticated() && m != nil && m.OwnerID == caller.UserID
}
