package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/londondev77/thermostat-boost/internal/models"
	"github.com/londondev77/thermostat-boost/internal/service"
)

type createInstanceInput struct {
	ThermostatRef  string `json:"thermostat_ref" binding:"required"`
	ThermostatName string `json:"thermostat_name"`
}

// instanceStatus maps service errors on an instance id to an HTTP status.
func instanceStatus(err error) int {
	if errors.Is(err, service.ErrInstanceNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// @Summary      Create instance
// @Description  Registers a thermostat. The name defaults to the entity id's object part and is used to tag-match scheduler switches.
// @Tags         instances
// @Accept       json
// @Produce      json
// @Param        input  body  createInstanceInput  true  "Thermostat reference"
// @Success      201  {object}  models.BoostInstance
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/instances [post]
// @Security     BearerAuth
func (h *Handler) createInstance(c *gin.Context) {
	var input createInstanceInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	inst, err := h.services.Instances.Create(c.Request.Context(), input.ThermostatRef, input.ThermostatName)
	if err != nil {
		h.log.Errorw("instance_create_failed", "thermostat", input.ThermostatRef, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// @Summary      List instances
// @Tags         instances
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, instances"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/instances [get]
// @Security     BearerAuth
func (h *Handler) listInstances(c *gin.Context) {
	list, err := h.services.Instances.List(c.Request.Context())
	if err != nil {
		h.log.Errorw("instance_list_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load instances"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "instances": list})
}

// @Summary      Describe instance
// @Description  Returns the instance with its controls, flags and live timer state.
// @Tags         instances
// @Produce      json
// @Param        id  path  string  true  "Instance id"
// @Success      200  {object}  service.InstanceDetail
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id} [get]
// @Security     BearerAuth
func (h *Handler) describeInstance(c *gin.Context) {
	detail, err := h.services.Instances.Describe(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(instanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// @Summary      Remove instance
// @Description  Destroys the instance, its timer, snapshots and pending operations. Event history is kept.
// @Tags         instances
// @Produce      json
// @Param        id  path  string  true  "Instance id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id} [delete]
// @Security     BearerAuth
func (h *Handler) removeInstance(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Instances.Remove(c.Request.Context(), id); err != nil {
		c.JSON(instanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// @Summary      Get controls
// @Tags         instances
// @Produce      json
// @Param        id  path  string  true  "Instance id"
// @Success      200  {object}  models.InstanceControls
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id}/controls [get]
// @Security     BearerAuth
func (h *Handler) getControls(c *gin.Context) {
	controls, err := h.services.Instances.GetControls(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(instanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, controls)
}

// @Summary      Set controls
// @Description  Replaces the persisted boost temperature and duration defaults.
// @Tags         instances
// @Accept       json
// @Produce      json
// @Param        id     path  string                  true  "Instance id"
// @Param        input  body  models.InstanceControls  true  "Controls"
// @Success      200  {object}  models.InstanceControls
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id}/controls [put]
// @Security     BearerAuth
func (h *Handler) setControls(c *gin.Context) {
	var input models.InstanceControls
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id := c.Param("id")
	if err := h.services.Instances.SetControls(c.Request.Context(), id, input); err != nil {
		if errors.Is(err, service.ErrInvalidDuration) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(instanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, input)
}

// @Summary      Get flags
// @Tags         instances
// @Produce      json
// @Param        id  path  string  true  "Instance id"
// @Success      200  {object}  models.InstanceFlags
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id}/flags [get]
// @Security     BearerAuth
func (h *Handler) getFlags(c *gin.Context) {
	flags, err := h.services.Instances.GetFlags(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(instanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flags)
}

// @Summary      Set flags
// @Description  Replaces the boost-active and schedule-override toggles. Toggling the override drops pending deferred restores.
// @Tags         instances
// @Accept       json
// @Produce      json
// @Param        id     path  string               true  "Instance id"
// @Param        input  body  models.InstanceFlags  true  "Flags"
// @Success      200  {object}  models.InstanceFlags
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/instances/{id}/flags [put]
// @Security     BearerAuth
func (h *Handler) setFlags(c *gin.Context) {
	var input models.InstanceFlags
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id := c.Param("id")
	if err := h.services.Instances.SetFlags(c.Request.Context(), id, input); err != nil {
		c.JSON(instanceStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, input)
}
