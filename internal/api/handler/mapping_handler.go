package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-api/internal/api/metrics"
	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// MappingHandler serves patient-doctor assignments scoped to the caller's patients.
type MappingHandler struct {
	service ports.MappingService
}

func NewMappingHandler(service ports.MappingService) *MappingHandler {
	return &MappingHandler{service: service}
}

type mappingRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
	DoctorID  string `json:"doctor_id" validate:"required"`
}

type mappingListResponse = listResponse[*domain.Mapping]

// Create handles POST /v1/mappings.
//
// @Summary      Assign a doctor to a patient
// @Description  The patient must belong to the caller and the doctor must exist.
// @Tags         mappings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      mappingRequest  true  "Patient and doctor IDs"
// @Success      201   {object}  domain.Mapping
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/mappings [post]
func (h *MappingHandler) Create(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req mappingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	m, err := h.service.Create(c.Request().Context(), caller, ports.MappingInput{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
	})
	if err != nil {
		return err
	}
	metrics.RecordsCreatedTotal.WithLabelValues(metrics.ResourceMapping).Inc()

	return c.JSON(http.StatusCreated, m)
}

// List handles GET /v1/mappings.
//
// @Summary      List the caller's mappings
// @Description  A patient_id the caller does not own returns an empty list.
// @Tags         mappings
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id  query     string  false  "Only mappings of this patient"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Page size (default 20, max 100)"
// @Success      200         {object}  mappingListResponse
// @Failure      400         {object}  map[string]string
// @Failure      401         {object}  map[string]string
// @Router       /v1/mappings [get]
func (h *MappingHandler) List(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	res, err := h.service.List(c.Request().Context(), caller, c.QueryParam("patient_id"), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newListResponse(res))
}

// Get handles GET /v1/mappings/:id.
//
// @Summary      Get a mapping
// @Tags         mappings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Mapping ID"
// @Success      200  {object}  domain.Mapping
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/mappings/{id} [get]
func (h *MappingHandler) Get(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	m, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /v1/mappings/:id.
//
// @Summary      Remove a mapping
// @Tags         mappings
// @Security     BearerAuth
// @Param        id   path  string  true  "Mapping ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/mappings/{id} [delete]
func (h *MappingHandler) Delete(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	metrics.RecordsDeletedTotal.WithLabelValues(metrics.ResourceMapping).Inc()

	return c.NoContent(http.StatusNoContent)
}
