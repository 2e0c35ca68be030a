package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"zone_scheduler/internal/models"
	"zone_scheduler/internal/service"
)

// ScheduleRequest is the payload of a new schedule entry.
type ScheduleRequest struct {
	// Weekday names, case-insensitive
	Weekdays []string `json:"weekdays" binding:"required" example:"monday,friday"`
	// Local time of day, HH:MM
	Time string `json:"time" binding:"required" example:"07:00"`
	// Target temperature
	Temperature *float64 `json:"temperature" binding:"required" example:"68"`
	// Optional display name; defaults to "Schedule N"
	Name string `json:"name,omitempty" example:"Morning"`
}

// SchedulePatchRequest changes only the fields present in the body.
type SchedulePatchRequest struct {
	Weekdays    []string `json:"weekdays,omitempty" example:"saturday"`
	Time        *string  `json:"time,omitempty" example:"08:30"`
	Temperature *float64 `json:"temperature,omitempty" example:"70"`
	Name        *string  `json:"name,omitempty" example:"Weekend"`
}

// ToggleRequest enables or disables an entry.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"false"`
}

// HoldRequest overrides the schedules of a zone.
type HoldRequest struct {
	// temporary (default) or permanent
	Mode string `json:"mode,omitempty" example:"temporary"`
	// Hold temperature
	Temperature *float64 `json:"temperature" binding:"required" example:"62"`
	// Optional end of the hold (RFC3339 or YYYY-MM-DDTHH:MM:SS local time)
	Until string `json:"until,omitempty" example:"2025-01-06T18:00:00Z"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List zones
// @Tags         zones
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, zones"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/zones [get]
// @Security     BearerAuth
func (h *Handler) listZones(c *gin.Context) {
	ids := h.services.Setpoints.Zones()
	zones := make([]models.ZoneSnapshot, 0, len(ids))
	for _, id := range ids {
		zones = append(zones, h.services.Setpoints.Snapshot(id))
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(zones),
		"zones": zones,
	})
}

// @Summary      Get zone
// @Description  Schedules, active hold, effective and next setpoint of a zone
// @Tags         zones
// @Produce      json
// @Param        zone  path      string  true  "Zone id"
// @Success      200   {object}  models.ZoneSnapshot
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/zones/{zone} [get]
// @Security     BearerAuth
func (h *Handler) getZone(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Setpoints.Snapshot(c.Param("zone")))
}

// @Summary      Effective setpoint
// @Description  "setpoint" is the unclamped engine value, "applied" the last value published after the safety clamp
// @Tags         zones
// @Produce      json
// @Param        zone  path      string  true  "Zone id"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/zones/{zone}/setpoint [get]
// @Security     BearerAuth
func (h *Handler) getSetpoint(c *gin.Context) {
	zone := c.Param("zone")
	sp, ok := h.services.Setpoints.EffectiveSetpoint(zone)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no setpoint applies to zone"})
		return
	}
	resp := gin.H{"zone_id": zone, "setpoint": sp}
	if h.services.Evaluator != nil {
		if applied, ok := h.services.Evaluator.Current(zone); ok {
			resp["applied"] = applied
		}
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Next setpoint
// @Tags         zones
// @Produce      json
// @Param        zone  path      string  true  "Zone id"
// @Success      200   {object}  models.NextSetpoint
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/zones/{zone}/next [get]
// @Security     BearerAuth
func (h *Handler) getNextSetpoint(c *gin.Context) {
	next, ok := h.services.Setpoints.NextSetpoint(c.Param("zone"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no upcoming schedule"})
		return
	}
	c.JSON(http.StatusOK, next)
}

// @Summary      List schedules
// @Description  All entries of a zone, disabled ones included
// @Tags         schedules
// @Produce      json
// @Param        zone  path      string  true  "Zone id"
// @Success      200   {object}  map[string]interface{}  "count, schedules"
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/zones/{zone}/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	items := h.services.Schedules.List(c.Param("zone"))
	c.JSON(http.StatusOK, gin.H{
		"count":     len(items),
		"schedules": items,
	})
}

// @Summary      Add schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        zone  path      string           true  "Zone id"
// @Param        body  body      ScheduleRequest  true  "Schedule payload"
// @Success      201   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/zones/{zone}/schedules [post]
// @Security     BearerAuth
func (h *Handler) addSchedule(c *gin.Context) {
	var req ScheduleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	zone := c.Param("zone")
	s, err := h.services.Schedules.Add(c.Request.Context(), zone, service.AddParams{
		Weekdays:    req.Weekdays,
		Time:        req.Time,
		Temperature: *req.Temperature,
		Name:        req.Name,
	})
	if err != nil {
		h.respondServiceError(c, err, s, "schedule_add_failed", "zone", zone)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// @Summary      Update schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        zone  path      string                true  "Zone id"
// @Param        id    path      string                true  "Schedule id"
// @Param        body  body      SchedulePatchRequest  true  "Fields to change"
// @Success      200   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/zones/{zone}/schedules/{id} [patch]
// @Security     BearerAuth
func (h *Handler) updateSchedule(c *gin.Context) {
	var req SchedulePatchRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	zone, id := c.Param("zone"), c.Param("id")
	s, err := h.services.Schedules.Update(c.Request.Context(), zone, id, service.SchedulePatch{
		Weekdays:    req.Weekdays,
		Time:        req.Time,
		Temperature: req.Temperature,
		Name:        req.Name,
	})
	if err != nil {
		h.respondServiceError(c, err, s, "schedule_update_failed", "zone", zone, "id", id)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Delete schedule
// @Description  Deleting an unknown id succeeds with deleted=false
// @Tags         schedules
// @Produce      json
// @Param        zone  path      string  true  "Zone id"
// @Param        id    path      string  true  "Schedule id"
// @Success      200   {object}  map[string]bool
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/zones/{zone}/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	zone, id := c.Param("zone"), c.Param("id")
	removed, err := h.services.Schedules.Delete(c.Request.Context(), zone, id)
	if err != nil {
		h.respondServiceError(c, err, gin.H{"deleted": removed}, "schedule_delete_failed", "zone", zone, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// @Summary      Enable or disable schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        zone  path      string         true  "Zone id"
// @Param        id    path      string         true  "Schedule id"
// @Param        body  body      ToggleRequest  true  "Enabled flag"
// @Success      200   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/zones/{zone}/schedules/{id}/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleSchedule(c *gin.Context) {
	var req ToggleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	zone, id := c.Param("zone"), c.Param("id")
	s, err := h.services.Schedules.Toggle(c.Request.Context(), zone, id, *req.Enabled)
	if err != nil {
		h.respondServiceError(c, err, s, "schedule_toggle_failed", "zone", zone, "id", id)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Set hold
// @Description  Replaces any hold of the zone. Without "until" the hold lasts until cleared.
// @Tags         holds
// @Accept       json
// @Produce      json
// @Param        zone  path      string       true  "Zone id"
// @Param        body  body      HoldRequest  true  "Hold payload"
// @Success      200   {object}  models.Hold
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/zones/{zone}/hold [put]
// @Security     BearerAuth
func (h *Handler) setHold(c *gin.Context) {
	var req HoldRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	params := service.HoldParams{
		Mode:        models.HoldMode(req.Mode),
		Temperature: *req.Temperature,
	}
	if s := strings.TrimSpace(req.Until); s != "" {
		until, err := models.ParseTimestamp(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'until'; use RFC3339"})
			return
		}
		params.Until = &until
	}
	zone := c.Param("zone")
	hold, err := h.services.Holds.SetHold(c.Request.Context(), zone, params)
	if err != nil {
		h.respondServiceError(c, err, hold, "hold_set_failed", "zone", zone)
		return
	}
	c.JSON(http.StatusOK, hold)
}

// @Summary      Clear hold
// @Tags         holds
// @Produce      json
// @Param        zone  path      string  true  "Zone id"
// @Success      200   {object}  map[string]bool
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]interface{}
// @Router       /api/v1/zones/{zone}/hold [delete]
// @Security     BearerAuth
func (h *Handler) clearHold(c *gin.Context) {
	zone := c.Param("zone")
	removed, err := h.services.Holds.ClearHold(c.Request.Context(), zone)
	if err != nil {
		h.respondServiceError(c, err, gin.H{"cleared": removed}, "hold_clear_failed", "zone", zone)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": removed})
}
