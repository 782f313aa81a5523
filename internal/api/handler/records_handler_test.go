package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/service"
	"github.com/carelink/healthcare-api/internal/infrastructure/db/memory"
)

type recordHandlers struct {
	patients *PatientHandler
	doctors  *DoctorHandler
	mappings *MappingHandler
}

func newRecordHandlers() recordHandlers {
	store := memory.NewStore()
	log := zerolog.Nop()
	return recordHandlers{
		patients: NewPatientHandler(service.NewPatientService(store.Patients(), store.Mappings(), store, log)),
		doctors:  NewDoctorHandler(service.NewDoctorService(store.Doctors(), store.Mappings(), store, log)),
		mappings: NewMappingHandler(service.NewMappingService(store.Mappings(), store.Patients(), store.Doctors(), store, log)),
	}
}

// call runs h as userID with an optional :id path parameter.
func call(t *testing.T, h echo.HandlerFunc, userID, method, target, id, body string) (*httpResult, error) {
	t.Helper()
	c, rec := newTestContext(method, target, body)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	if userID != "" {
		authenticated(c, userID)
	}
	err := h(c)
	return &httpResult{code: rec.Code, body: rec.Body.Bytes()}, err
}

type httpResult struct {
	code int
	body []byte
}

func (r *httpResult) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.body, v); err != nil {
		t.Fatalf("invalid json %q: %v", r.body, err)
	}
}

func mustCreatePatient(t *testing.T, h recordHandlers, userID, body string) domain.Patient {
	t.Helper()
	res, err := call(t, h.patients.Create, userID, http.MethodPost, "/v1/patients", "", body)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	if res.code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.code)
	}
	var p domain.Patient
	res.decode(t, &p)
	return p
}

func mustCreateDoctor(t *testing.T, h recordHandlers, userID string) domain.Doctor {
	t.Helper()
	res, err := call(t, h.doctors.Create, userID, http.MethodPost, "/v1/doctors", "",
		`{"name":"Dr. House","specialization":"Diagnostics","email":"house@example.com"}`)
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	var d domain.Doctor
	res.decode(t, &d)
	return d
}

func TestPatientHandler_CreateAssignsCallerAsOwner(t *testing.T) {
	h := newRecordHandlers()
	p := mustCreatePatient(t, h, "u-1", `{"name":"Jane","age":34,"gender":"F","owner_id":"u-2"}`)

	if p.OwnerID != "u-1" {
		t.Errorf("owner_id = %q, want caller", p.OwnerID)
	}
	if p.ID == "" || p.Age != 34 {
		t.Errorf("unexpected patient: %+v", p)
	}
}

func TestPatientHandler_Create_Validation(t *testing.T) {
	h := newRecordHandlers()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"age":3}`, "name is required"},
		{"missing age", `{"name":"Jane"}`, "age is required"},
		{"negative age", `{"name":"Jane","age":-1}`, "age must be at least 0"},
		{"gender too long", `{"name":"Jane","age":1,"gender":"` + strings.Repeat("x", 21) + `"}`, "gender must be at most 20 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, h.patients.Create, "u-1", http.MethodPost, "/v1/patients", "", tt.body)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestPatientHandler_Create_ZeroAgeAllowed(t *testing.T) {
	h := newRecordHandlers()
	p := mustCreatePatient(t, h, "u-1", `{"name":"Newborn","age":0}`)
	if p.Age != 0 {
		t.Errorf("age = %d", p.Age)
	}
}

func TestPatientHandler_RequiresIdentity(t *testing.T) {
	h := newRecordHandlers()
	_, err := call(t, h.patients.List, "", http.MethodGet, "/v1/patients", "", "")
	assertHTTPError(t, err, http.StatusUnauthorized)
}

func TestPatientHandler_ListIsScopedAndPaginated(t *testing.T) {
	h := newRecordHandlers()
	for i := 0; i < 3; i++ {
		mustCreatePatient(t, h, "u-1", `{"name":"Mine","age":40}`)
	}
	mustCreatePatient(t, h, "u-2", `{"name":"Theirs","age":50}`)

	res, err := call(t, h.patients.List, "u-1", http.MethodGet, "/v1/patients?page=2&limit=2", "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var page patientListResponse
	res.decode(t, &page)

	if page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected 1 item on page 2, got %d", len(page.Data))
	}
	if page.Data[0].OwnerID != "u-1" {
		t.Errorf("foreign patient leaked: %+v", page.Data[0])
	}
}

func TestPatientHandler_ListRejectsNonNumericPage(t *testing.T) {
	h := newRecordHandlers()
	_, err := call(t, h.patients.List, "u-1", http.MethodGet, "/v1/patients?page=abc", "", "")
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestPatientHandler_ForeignPatientIsNotFound(t *testing.T) {
	h := newRecordHandlers()
	p := mustCreatePatient(t, h, "u-1", `{"name":"Jane","age":34}`)

	handlers := map[string]echo.HandlerFunc{
		http.MethodGet:    h.patients.Get,
		http.MethodPut:    h.patients.Update,
		http.MethodPatch:  h.patients.Patch,
		http.MethodDelete: h.patients.Delete,
	}
	for method, fn := range handlers {
		_, err := call(t, fn, "u-2", method, "/v1/patients/"+p.ID, p.ID, `{"name":"Hijack","age":1}`)
		if !errors.Is(err, domain.ErrPatientNotFound) {
			t.Errorf("%s: expected ErrPatientNotFound, got %v", method, err)
		}
	}
}

func TestPatientHandler_UpdateAndPatch(t *testing.T) {
	h := newRecordHandlers()
	p := mustCreatePatient(t, h, "u-1", `{"name":"Jane","age":34,"contact":"555"}`)

	res, err := call(t, h.patients.Update, "u-1", http.MethodPut, "/v1/patients/"+p.ID, p.ID,
		`{"name":"Jane Doe","age":35}`)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var updated domain.Patient
	res.decode(t, &updated)
	if updated.Name != "Jane Doe" || updated.Age != 35 || updated.Contact != "" {
		t.Errorf("PUT must replace every field: %+v", updated)
	}

	res, err = call(t, h.patients.Patch, "u-1", http.MethodPatch, "/v1/patients/"+p.ID, p.ID,
		`{"medical_history":"asthma"}`)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	var patched domain.Patient
	res.decode(t, &patched)
	if patched.Name != "Jane Doe" || patched.MedicalHistory != "asthma" {
		t.Errorf("PATCH must keep absent fields: %+v", patched)
	}
	if patched.OwnerID != "u-1" {
		t.Errorf("owner changed: %q", patched.OwnerID)
	}
}

func TestPatientHandler_Delete(t *testing.T) {
	h := newRecordHandlers()
	p := mustCreatePatient(t, h, "u-1", `{"name":"Jane","age":34}`)

	res, err := call(t, h.patients.Delete, "u-1", http.MethodDelete, "/v1/patients/"+p.ID, p.ID, "")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.code)
	}

	_, err = call(t, h.patients.Get, "u-1", http.MethodGet, "/v1/patients/"+p.ID, p.ID, "")
	if !errors.Is(err, domain.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound after delete, got %v", err)
	}
}

func TestDoctorHandler_GlobalAccess(t *testing.T) {
	h := newRecordHandlers()
	d := mustCreateDoctor(t, h, "u-1")

	res, err := call(t, h.doctors.Patch, "u-2", http.MethodPatch, "/v1/doctors/"+d.ID, d.ID,
		`{"specialization":"Nephrology"}`)
	if err != nil {
		t.Fatalf("patch by another user: %v", err)
	}
	var patched domain.Doctor
	res.decode(t, &patched)
	if patched.Specialization != "Nephrology" || patched.Name != "Dr. House" {
		t.Errorf("unexpected doctor: %+v", patched)
	}

	res, err = call(t, h.doctors.List, "u-3", http.MethodGet, "/v1/doctors", "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var page doctorListResponse
	res.decode(t, &page)
	if page.Pagination.Total != 1 || page.Pagination.Page != 1 || page.Pagination.Limit != 20 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}
}

func TestDoctorHandler_Create_InvalidEmail(t *testing.T) {
	h := newRecordHandlers()
	_, err := call(t, h.doctors.Create, "u-1", http.MethodPost, "/v1/doctors", "",
		`{"name":"Dr. X","specialization":"GP","email":"nope"}`)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMappingHandler_Lifecycle(t *testing.T) {
	h := newRecordHandlers()
	p := mustCreatePatient(t, h, "u-1", `{"name":"Jane","age":34}`)
	d := mustCreateDoctor(t, h, "u-1")
	body := `{"patient_id":"` + p.ID + `","doctor_id":"` + d.ID + `"}`

	res, err := call(t, h.mappings.Create, "u-1", http.MethodPost, "/v1/mappings", "", body)
	if err != nil {
		t.Fatalf("create mapping: %v", err)
	}
	if res.code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.code)
	}
	var m domain.Mapping
	res.decode(t, &m)

	if _, err := call(t, h.mappings.Create, "u-1", http.MethodPost, "/v1/mappings", "", body); !errors.Is(err, domain.ErrDuplicateMapping) {
		t.Fatalf("expected ErrDuplicateMapping, got %v", err)
	}

	// Another user cannot map a patient they do not own.
	if _, err := call(t, h.mappings.Create, "u-2", http.MethodPost, "/v1/mappings", "", body); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for foreign patient, got %v", err)
	}

	res, err = call(t, h.mappings.List, "u-1", http.MethodGet, "/v1/mappings?patient_id="+p.ID, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var own mappingListResponse
	res.decode(t, &own)
	if len(own.Data) != 1 || own.Data[0].ID != m.ID {
		t.Fatalf("expected the mapping, got %+v", own.Data)
	}

	res, err = call(t, h.mappings.List, "u-2", http.MethodGet, "/v1/mappings?patient_id="+p.ID, "", "")
	if err != nil {
		t.Fatalf("list as other user: %v", err)
	}
	var foreign mappingListResponse
	res.decode(t, &foreign)
	if len(foreign.Data) != 0 || foreign.Pagination.Total != 0 {
		t.Fatalf("expected empty list, got %+v", foreign)
	}

	if _, err := call(t, h.mappings.Get, "u-2", http.MethodGet, "/v1/mappings/"+m.ID, m.ID, ""); !errors.Is(err, domain.ErrMappingNotFound) {
		t.Fatalf("expected ErrMappingNotFound, got %v", err)
	}

	res, err = call(t, h.mappings.Delete, "u-1", http.MethodDelete, "/v1/mappings/"+m.ID, m.ID, "")
	if err != nil || res.code != http.StatusNoContent {
		t.Fatalf("delete: code=%d err=%v", res.code, err)
	}
}

func TestMappingHandler_Create_RequiresBothIDs(t *testing.T) {
	h := newRecordHandlers()
	_, err := call(t, h.mappings.Create, "u-1", http.MethodPost, "/v1/mappings", "", `{"patient_id":"p"}`)
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "doctor_id is required") {
		t.Fatalf("expected doctor_id validation error, got %v", err)
	}
}
