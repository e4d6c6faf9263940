package http

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/acoustics"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/forminput"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/repository"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/service"
)

const defaultListLimit = 50

func Register(app *fiber.App, svcs *service.Services) {
	h := &handlers{svcs: svcs}

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	app.Get("/protectors", h.listProtectors)
	app.Get("/protectors/:id", h.getProtector)
	app.Get("/limits", func(c *fiber.Ctx) error { return c.JSON(acoustics.RegulatoryLimits()) })

	app.Post("/exposure/compute", h.computeExposure)
	app.Post("/attenuation/compute", h.computeAttenuation)
	app.Post("/measurements/import", h.importMeasurements)

	g := app.Group("/assessments")
	g.Post("/exposure", h.createExposure)
	g.Get("/exposure", h.listExposure)
	g.Get("/exposure/:id", h.getExposure)
	g.Get("/exposure/:id/snapshot", h.exposureSnapshot)
	g.Delete("/exposure/:id", h.deleteExposure)
	g.Post("/protector", h.createProtector)
	g.Get("/protector", h.listProtector)
	g.Get("/protector/:id", h.getProtectorAssessment)
	g.Get("/protector/:id/snapshot", h.protectorSnapshot)
	g.Delete("/protector/:id", h.deleteProtector)
	app.Get("/archive", h.listArchive)

	app.Post("/companies", h.createCompany)
	app.Get("/companies", h.listCompanies)
	app.Get("/companies/:id", h.getCompany)
	app.Get("/companies/:id/assessments/exposure", h.companyExposure)
	app.Get("/companies/:id/assessments/protector", h.companyProtector)

	app.Get("/meters/:id/exposure", h.meterExposure)
}

type handlers struct {
	svcs *service.Services
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// respondErr maps service and repository errors onto status codes.
func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, cloud.ErrSnapshotNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotConfigured):
		return fail(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
}

func idParam(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// Engine

func (h *handlers) listProtectors(c *fiber.Ctx) error {
	if kind := c.Query("kind"); kind != "" {
		return c.JSON(h.svcs.Catalog.ByKind(acoustics.ProtectorKind(kind)))
	}
	return c.JSON(h.svcs.Catalog.Profiles())
}

func (h *handlers) getProtector(c *fiber.Ctx) error {
	p, ok := h.svcs.Catalog.Get(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "protector not found")
	}
	return c.JSON(p)
}

func (h *handlers) computeExposure(c *fiber.Ctx) error {
	var body struct {
		Measurements []forminput.Row `json:"measurements"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(h.svcs.Assessments.EvaluateExposure(body.Measurements))
}

type attenuationResponse struct {
	Computed bool `json:"computed"`
	*service.ProtectorEvaluation
}

func (h *handlers) computeAttenuation(c *fiber.Ctx) error {
	var in service.ProtectorInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if in.ProtectorID == "" {
		in.ProtectorID = acoustics.CustomProtectorID
	}
	ev := h.svcs.Assessments.EvaluateProtector(in)
	if ev.Result == nil {
		return c.JSON(attenuationResponse{Computed: false})
	}
	return c.JSON(attenuationResponse{Computed: true, ProtectorEvaluation: &ev})
}

func (h *handlers) importMeasurements(c *fiber.Ctx) error {
	rows, err := forminput.ImportCSV(bytes.NewReader(c.Body()))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if len(rows) == 0 {
		return fail(c, fiber.StatusBadRequest, "no valid measurements found")
	}
	return c.JSON(fiber.Map{
		"measurements": rows,
		"evaluation":   h.svcs.Assessments.EvaluateExposure(rows),
	})
}

// Exposure assessments

func (h *handlers) createExposure(c *fiber.Ctx) error {
	var req service.ExposureRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	a, err := h.svcs.Assessments.SaveExposure(c.UserContext(), req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *handlers) listExposure(c *fiber.Ctx) error {
	items, err := h.svcs.Assessments.ListExposure(c.UserContext(), c.QueryInt("limit", defaultListLimit))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) getExposure(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	a, err := h.svcs.Assessments.GetExposure(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(a)
}

func (h *handlers) deleteExposure(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	if err := h.svcs.Assessments.DeleteExposure(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Protector assessments

func (h *handlers) createProtector(c *fiber.Ctx) error {
	var req service.ProtectorRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	a, err := h.svcs.Assessments.SaveProtector(c.UserContext(), req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *handlers) listProtector(c *fiber.Ctx) error {
	items, err := h.svcs.Assessments.ListProtector(c.UserContext(), c.QueryInt("limit", defaultListLimit))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) getProtectorAssessment(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	a, err := h.svcs.Assessments.GetProtector(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(a)
}

func (h *handlers) deleteProtector(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	if err := h.svcs.Assessments.DeleteProtector(c.UserContext(), id); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Archive

func (h *handlers) exposureSnapshot(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	data, err := h.svcs.Assessments.ExposureSnapshot(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func (h *handlers) protectorSnapshot(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	data, err := h.svcs.Assessments.ProtectorSnapshot(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func (h *handlers) listArchive(c *fiber.Ctx) error {
	keys, err := h.svcs.Assessments.ArchivedKeys(c.UserContext(), c.Query("kind"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"keys": keys})
}

// Companies

func (h *handlers) createCompany(c *fiber.Ctx) error {
	var company domain.Company
	if err := c.BodyParser(&company); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.svcs.Companies.Create(c.UserContext(), &company); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

func (h *handlers) listCompanies(c *fiber.Ctx) error {
	items, err := h.svcs.Companies.List(c.UserContext(), c.QueryInt("limit", defaultListLimit))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) getCompany(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	company, err := h.svcs.Companies.Get(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(company)
}

func (h *handlers) companyExposure(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	items, err := h.svcs.Assessments.ListExposureByCompany(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) companyProtector(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid id")
	}
	items, err := h.svcs.Assessments.ListProtectorByCompany(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(items)
}

// Meters

func (h *handlers) meterExposure(c *fiber.Ctx) error {
	day := time.Now().UTC()
	if s := c.Query("day"); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "day must be YYYY-MM-DD")
		}
		day = d
	}
	report, err := h.svcs.Samples.DailyExposure(c.UserContext(), c.Params("id"), day)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(report)
}
