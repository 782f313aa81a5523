package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-api/internal/api/metrics"
	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// PatientHandler serves the caller's own patient records.
type PatientHandler struct {
	service ports.PatientService
}

func NewPatientHandler(service ports.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// --- Request / Response types ---

// patientRequest is the body of POST and PUT. owner_id is not accepted.
type patientRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Age            *int   `json:"age" validate:"required,min=0,max=150"`
	Gender         string `json:"gender" validate:"max=20"`
	Contact        string `json:"contact" validate:"max=50"`
	Address        string `json:"address" validate:"max=500"`
	MedicalHistory string `json:"medical_history" validate:"max=5000"`
}

func (r patientRequest) input() ports.PatientInput {
	in := ports.PatientInput{
		Name:           r.Name,
		Gender:         r.Gender,
		Contact:        r.Contact,
		Address:        r.Address,
		MedicalHistory: r.MedicalHistory,
	}
	if r.Age != nil {
		in.Age = *r.Age
	}
	return in
}

// patientPatchRequest is the body of PATCH; absent fields are left unchanged.
type patientPatchRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=255"`
	Age            *int    `json:"age" validate:"omitempty,min=0,max=150"`
	Gender         *string `json:"gender" validate:"omitempty,max=20"`
	Contact        *string `json:"contact" validate:"omitempty,max=50"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	MedicalHistory *string `json:"medical_history" validate:"omitempty,max=5000"`
}

type patientListResponse = listResponse[*domain.Patient]

// Create handles POST /v1/patients.
//
// @Summary      Create a patient
// @Description  The caller becomes the patient's owner.
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      patientRequest  true  "Patient details"
// @Success      201   {object}  domain.Patient
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/patients [post]
func (h *PatientHandler) Create(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req patientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Create(c.Request().Context(), caller, req.input())
	if err != nil {
		return err
	}
	metrics.RecordsCreatedTotal.WithLabelValues(metrics.ResourcePatient).Inc()

	return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/patients.
//
// @Summary      List the caller's patients
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  patientListResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /v1/patients [get]
func (h *PatientHandler) List(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.List(c.Request().Context(), caller, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newListResponse(res))
}

// Get handles GET /v1/patients/:id.
//
// @Summary      Get a patient
// @Description  Patients owned by another user are reported as not found.
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  domain.Patient
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/patients/{id} [get]
func (h *PatientHandler) Get(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	p, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, p)
}

// Update handles PUT /v1/patients/:id.
//
// @Summary      Replace a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Patient ID"
// @Param        body  body      patientRequest  true  "Patient details"
// @Success      200   {object}  domain.Patient
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/patients/{id} [put]
func (h *PatientHandler) Update(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req patientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	metrics.RecordsUpdatedTotal.WithLabelValues(metrics.ResourcePatient).Inc()

	return c.JSON(http.StatusOK, p)
}

// Patch handles PATCH /v1/patients/:id.
//
// @Summary      Partially update a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Patient ID"
// @Param        body  body      patientPatchRequest  true  "Fields to change"
// @Success      200   {object}  domain.Patient
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/patients/{id} [patch]
func (h *PatientHandler) Patch(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req patientPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Patch(c.Request().Context(), caller, c.Param("id"), ports.PatientPatch{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Contact:        req.Contact,
		Address:        req.Address,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		return err
	}
	metrics.RecordsUpdatedTotal.WithLabelValues(metrics.ResourcePatient).Inc()

	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/patients/:id. The patient's mappings are removed
// with it.
//
// @Summary      Delete a patient
// @Tags         patients
// @Security     BearerAuth
// @Param        id   path  string  true  "Patient ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/patients/{id} [delete]
func (h *PatientHandler) Delete(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	metrics.RecordsDeletedTotal.WithLabelValues(metrics.ResourcePatient).Inc()

	return c.NoContent(http.StatusNoContent)
}
