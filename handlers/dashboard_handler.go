package handlers

import (
	"time"

	"github.com/gmpdesk/gmp-dashboard/services"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	snapshots *services.SnapshotService
	view      *services.ViewService
	stats     *services.StatsService
}

func NewDashboardHandler(snapshots *services.SnapshotService, view *services.ViewService, stats *services.StatsService) *DashboardHandler {
	return &DashboardHandler{
		snapshots: snapshots,
		view:      view,
		stats:     stats,
	}
}

// GetDashboard returns the cached GMP table, filtered by ?q= and
// ordered by ?sort= and ?dir=. It serves whatever entry the controller
// holds, stale included; clients wanting a fetch use the refresh route.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	entry := h.snapshots.Current()
	if entry == nil {
		state, errMsg := h.snapshots.State()
		return c.JSON(fiber.Map{
			"success": false,
			"state":   state,
			"error":   errMsg,
			"data":    []interface{}{},
		})
	}

	records := h.view.Filter(entry.Records, c.Query("q"))
	if field, ok := services.ParseSortField(c.Query("sort")); ok {
		records = h.view.Sort(records, field, services.ParseSortDirection(c.Query("dir")))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       h.view.BuildRows(records),
		"count":      len(records),
		"stats":      h.stats.Compute(records, time.Now()),
		"updated_at": entry.FetchedAt,
		"entry_id":   entry.ID,
		"source":     entry.Source,
	})
}

// GetStats returns the aggregate counters over the full cached table.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	entry := h.snapshots.Current()
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "No GMP snapshot available yet",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"stats":      h.stats.Compute(entry.Records, time.Now()),
		"updated_at": entry.FetchedAt,
	})
}

// GetStatus reports the controller state machine, validity window and
// fetch counters, plus the cached entry's vitals when one exists.
func (h *DashboardHandler) GetStatus(c *fiber.Ctx) error {
	state, errMsg := h.snapshots.State()

	response := fiber.Map{
		"success": true,
		"state":   state,
		"window":  h.snapshots.Window().String(),
		"metrics": h.snapshots.Metrics(),
	}
	if errMsg != "" {
		response["error"] = errMsg
	}
	if entry := h.snapshots.Current(); entry != nil {
		response["entry_id"] = entry.ID
		response["records"] = len(entry.Records)
		response["source"] = entry.Source
		response["updated_at"] = entry.FetchedAt
		response["age"] = entry.Age(time.Now()).String()
	}
	return c.JSON(response)
}

// ForceRefresh bypasses the validity window and fetches upstream now.
func (h *DashboardHandler) ForceRefresh(c *fiber.Ctx) error {
	started := time.Now()

	entry, err := h.snapshots.Refresh(c.Context(), true)
	if err != nil {
		state, errMsg := h.snapshots.State()
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"state":   state,
			"error":   errMsg,
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "GMP snapshot refreshed",
		"duration": time.Since(started).String(),
		"entry_id": entry.ID,
		"records":  len(entry.Records),
	})
}
