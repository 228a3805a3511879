package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/londondev77/thermostat-boost/internal/service"
)

// @Summary      Start boost
// @Description  Starts or extends a boost session. Duration is "HH:MM:SS" or {days,hours,minutes,seconds,milliseconds}; missing values fall back to the instance controls.
// @Tags         boost
// @Accept       json
// @Produce      json
// @Param        id     path  string               true   "Instance id"
// @Param        input  body  service.StartParams  false  "Overrides"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/instances/{id}/boost/start [post]
// @Security     BearerAuth
func (h *Handler) startBoost(c *gin.Context) {
	var input service.StartParams
	if c.Request.ContentLength > 0 {
		if ok := h.bindJSONOrBadRequest(c, &input); !ok {
			return
		}
	}

	id := c.Param("id")
	err := h.services.Boost.Start(c.Request.Context(), id, input)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "boosting"})
	case errors.Is(err, service.ErrInstanceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrNoBoostTemperature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrThermostatUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Errorw("boost_start_failed", "instance_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start boost"})
	}
}

// @Summary      Finish boost
// @Description  Ends the boost session and reinstates the pre-boost state. Safe to call when no boost is running.
// @Tags         boost
// @Produce      json
// @Param        id  path  string  true  "Instance id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id}/boost/finish [post]
// @Security     BearerAuth
func (h *Handler) finishBoost(c *gin.Context) {
	id := c.Param("id")
	err := h.services.Boost.Finish(c.Request.Context(), id, false)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "finished"})
	case errors.Is(err, service.ErrInstanceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Errorw("boost_finish_failed", "instance_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to finish boost"})
	}
}

// @Summary      Timer state
// @Description  Returns the live countdown. First access after a restart recovers persisted timers.
// @Tags         boost
// @Produce      json
// @Param        id  path  string  true  "Instance id"
// @Success      200  {object}  models.TimerSnapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id}/timer [get]
// @Security     BearerAuth
func (h *Handler) getTimer(c *gin.Context) {
	id := c.Param("id")
	snap, err := h.services.Monitoring.TimerState(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorw("timer_state_failed", "instance_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load timer"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
