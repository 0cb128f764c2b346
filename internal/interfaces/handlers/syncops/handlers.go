package syncops

import (
	"errors"

	"staysync-backend/internal/pkg/response"
	"staysync-backend/internal/syncengine"

	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the only externally triggerable entry points into the
// sync engine: full ETL runs, single-entity syncs, and scheduler status.
type Handlers struct {
	Scheduler *syncengine.Scheduler
	Tasks     *syncengine.Tasks
}

func modeFrom(c *fiber.Ctx) syncengine.SyncMode {
	if c.Query("force") == "true" {
		return syncengine.ModeForce
	}
	return syncengine.ModeNormal
}

// RunETL triggers a full orchestrator run for all configured properties.
// Runs under the scheduler's single-run guarantee; a concurrent run yields
// 409 rather than a queued duplicate.
func (h *Handlers) RunETL(c *fiber.Ctx) error {
	summary, err := h.Scheduler.Trigger(c.Context(), modeFrom(c))
	if err != nil {
		if errors.Is(err, syncengine.ErrRunInFlight) {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	msg := "ETL run completed"
	if !summary.Success {
		msg = "ETL run completed with failures"
	}
	return response.Success(c, msg, summary, nil)
}

// SyncListing syncs one listing. The response carries the same structured
// per-entity result as scheduled runs, including the skipped short-circuit.
func (h *Handlers) SyncListing(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.Error(c, "Missing listing id", fiber.StatusBadRequest, nil)
	}
	result := h.Tasks.SyncListing(c.Context(), id, modeFrom(c))
	return response.Success(c, "Listing sync finished", result, nil)
}

// SyncAvailability syncs one listing's calendar window.
func (h *Handlers) SyncAvailability(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.Error(c, "Missing listing id", fiber.StatusBadRequest, nil)
	}
	result, window := h.Tasks.SyncAvailability(c.Context(), id, modeFrom(c))
	return response.Success(c, "Availability sync finished", result, fiber.Map{"window": window})
}

// Status returns the scheduler's run-tracking snapshot.
func (h *Handlers) Status(c *fiber.Ctx) error {
	return response.Success(c, "Scheduler status", h.Scheduler.Status(), nil)
}
