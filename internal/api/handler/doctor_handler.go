package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-api/internal/api/metrics"
	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// DoctorHandler serves the global doctor directory.
type DoctorHandler struct {
	service ports.DoctorService
}

func NewDoctorHandler(service ports.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

type doctorRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Specialization string `json:"specialization" validate:"required,max=255"`
	Contact        string `json:"contact" validate:"max=50"`
	Email          string `json:"email" validate:"required,email"`
}

type doctorPatchRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=255"`
	Specialization *string `json:"specialization" validate:"omitempty,max=255"`
	Contact        *string `json:"contact" validate:"omitempty,max=50"`
	Email          *string `json:"email" validate:"omitempty,email"`
}

type doctorListResponse = listResponse[*domain.Doctor]

func (r doctorRequest) input() ports.DoctorInput {
	return ports.DoctorInput{
		Name:           r.Name,
		Specialization: r.Specialization,
		Contact:        r.Contact,
		Email:          r.Email,
	}
}

// Create handles POST /v1/doctors.
//
// @Summary      Create a doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      doctorRequest  true  "Doctor details"
// @Success      201   {object}  domain.Doctor
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/doctors [post]
func (h *DoctorHandler) Create(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req doctorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	d, err := h.service.Create(c.Request().Context(), caller, req.input())
	if err != nil {
		return err
	}
	metrics.RecordsCreatedTotal.WithLabelValues(metrics.ResourceDoctor).Inc()

	return c.JSON(http.StatusCreated, d)
}

// List handles GET /v1/doctors.
//
// @Summary      List doctors
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  doctorListResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /v1/doctors [get]
func (h *DoctorHandler) List(c echo.Context) error {
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

// Get handles GET /v1/doctors/:id.
//
// @Summary      Get a doctor
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Doctor ID"
// @Success      200  {object}  domain.Doctor
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/doctors/{id} [get]
func (h *DoctorHandler) Get(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	d, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, d)
}

// Update handles PUT /v1/doctors/:id.
//
// @Summary      Replace a doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Doctor ID"
// @Param        body  body      doctorRequest  true  "Doctor details"
// @Success      200   {object}  domain.Doctor
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/doctors/{id} [put]
func (h *DoctorHandler) Update(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req doctorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	d, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	metrics.RecordsUpdatedTotal.WithLabelValues(metrics.ResourceDoctor).Inc()

	return c.JSON(http.StatusOK, d)
}

// Patch handles PATCH /v1/doctors/:id.
//
// @Summary      Partially update a doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Doctor ID"
// @Param        body  body      doctorPatchRequest  true  "Fields to change"
// @Success      200   {object}  domain.Doctor
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/doctors/{id} [patch]
func (h *DoctorHandler) Patch(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req doctorPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	d, err := h.service.Patch(c.Request().Context(), caller, c.Param("id"), ports.DoctorPatch{
		Name:           req.Name,
		Specialization: req.Specialization,
		Contact:        req.Contact,
		Email:          req.Email,
	})
	if err != nil {
		return err
	}
	metrics.RecordsUpdatedTotal.WithLabelValues(metrics.ResourceDoctor).Inc()

	return c.JSON(http.StatusOK, d)
}

// Delete handles DELETE /v1/doctors/:id. Every mapping to the doctor is
// removed with it.
//
// @Summary      Delete a doctor
// @Tags         doctors
// @Security     BearerAuth
// @Param        id   path  string  true  "Doctor ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/doctors/{id} [delete]
func (h *DoctorHandler) Delete(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	metrics.RecordsDeletedTotal.WithLabelValues(metrics.ResourceDoctor).Inc()

	return c.NoContent(http.StatusNoContent)
}
