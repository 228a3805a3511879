package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List entities
// @Description  Lists every entity id known to the host state store.
// @Tags         entities
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, entities"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/entities [get]
// @Security     BearerAuth
func (h *Handler) listEntities(c *gin.Context) {
	ids := h.services.Monitoring.Entities()
	c.JSON(http.StatusOK, gin.H{"count": len(ids), "entities": ids})
}

type updateEntityInput struct {
	State      string         `json:"state" binding:"required"`
	Attributes map[string]any `json:"attributes"`
}

// @Summary      Update entity state
// @Description  Feeds a live state update into the host state store, creating the entity if needed. Omitted attributes keep their previous values.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        id     path  string             true  "Entity id"
// @Param        input  body  updateEntityInput  true  "State"
// @Success      200  {object}  host.EntityState
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/entities/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateEntity(c *gin.Context) {
	var input updateEntityInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id := c.Param("id")
	h.services.Monitoring.SetEntity(id, input.State, input.Attributes)
	st, _ := h.services.Monitoring.Entity(id)
	c.JSON(http.StatusOK, gin.H{"entity_id": id, "state": st.State, "attributes": st.Attributes})
}

// @Summary      Get entity state
// @Tags         entities
// @Produce      json
// @Param        id  path  string  true  "Entity id"  example(climate.living_room)
// @Success      200  {object}  host.EntityState
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/entities/{id} [get]
// @Security     BearerAuth
func (h *Handler) getEntity(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.services.Monitoring.Entity(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity_id": id, "state": st.State, "attributes": st.Attributes})
}
