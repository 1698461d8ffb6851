package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
)

// @Summary      List Ports
// @Description  List ports, optionally filtered by status
// @Tags         ports
// @Produce      json
// @Param        status  query  string  false  "Port status"
// @Success      200  {object}  []portdomain.Port
// @Router       /admin/ports [get]
func (s *Server) ListPorts(c *gin.Context) {
	status := portdomain.Status(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		AbortWithError(c, newValidationError("status", "invalid_status", "unknown port status"))
		return
	}

	ports, err := s.portSvc.ListByStatus(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ports})
}

// @Summary      Create Port
// @Description  Register a new port in the pool
// @Tags         ports
// @Accept       json
// @Produce      json
// @Param        request body portdomain.CreatePortRequest true "Create Port Request"
// @Success      200  {object}  portdomain.Port
// @Router       /admin/ports [post]
func (s *Server) CreatePort(c *gin.Context) {
	var req portdomain.CreatePortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	port, err := s.portSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": port})
}

func (s *Server) GetPort(c *gin.Context) {
	id, err := portdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	port, err := s.portSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": port})
}

// @Summary      Port History
// @Description  Chronological allocation log for one port
// @Tags         ports
// @Produce      json
// @Param        id  path  string  true  "Port ID"
// @Success      200  {object}  []portdomain.AllocationLog
// @Router       /admin/ports/{id}/history [get]
func (s *Server) PortHistory(c *gin.Context) {
	id, err := portdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	logs, err := s.portSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}

type setPortStatusRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// @Summary      Set Port Status
// @Description  Move a port between AVAILABLE, DISABLED and RESERVED
// @Tags         ports
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "Port ID"
// @Param        request  body  setPortStatusRequest  true  "Status transition"
// @Success      200  {object}  portdomain.Port
// @Router       /admin/ports/{id}/status [patch]
func (s *Server) SetPortStatus(c *gin.Context) {
	id, err := portdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	var req setPortStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from := portdomain.Status(strings.ToUpper(strings.TrimSpace(req.From)))
	to := portdomain.Status(strings.ToUpper(strings.TrimSpace(req.To)))
	if !from.Valid() {
		AbortWithError(c, newValidationError("from", "invalid_status", "unknown port status"))
		return
	}
	if !to.Valid() {
		AbortWithError(c, newValidationError("to", "invalid_status", "unknown port status"))
		return
	}

	if err := s.portSvc.SetStatus(c.Request.Context(), id, from, to); err != nil {
		AbortWithError(c, err)
		return
	}

	port, err := s.portSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": port})
}

type reassignPortRequest struct {
	SubscriptionID string `json:"subscription_id"`
	ActorID        string `json:"actor_id"`
}

// @Summary      Reassign Port
// @Description  Transfer an assigned port to another subscription
// @Tags         ports
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Port ID"
// @Param        request  body  reassignPortRequest  true  "Reassign Request"
// @Success      200  {object}  portdomain.Port
// @Router       /admin/ports/{id}/reassign [post]
func (s *Server) ReassignPort(c *gin.Context) {
	id, err := portdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	var req reassignPortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	subID, err := portdomain.ParseID(req.SubscriptionID)
	if err != nil {
		AbortWithError(c, newValidationError("subscription_id", "invalid_id", "subscription_id must be a snowflake"))
		return
	}
	actorID, err := portdomain.ParseID(req.ActorID)
	if err != nil {
		AbortWithError(c, newValidationError("actor_id", "invalid_id", "actor_id must be a snowflake"))
		return
	}

	if err := s.portSvc.Reassign(c.Request.Context(), id, subID, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	port, err := s.portSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": port})
}

type releasePortRequest struct {
	ActorID string `json:"actor_id"`
}

// @Summary      Release Port
// @Description  Return an assigned port to the available pool
// @Tags         ports
// @Accept       json
// @Produce      json
// @Param        id       path  string              true  "Port ID"
// @Param        request  body  releasePortRequest  true  "Release Request"
// @Success      200  {object}  portdomain.Port
// @Router       /admin/ports/{id}/release [post]
func (s *Server) ReleasePort(c *gin.Context) {
	id, err := portdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	var req releasePortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actorID, err := portdomain.ParseID(req.ActorID)
	if err != nil {
		AbortWithError(c, newValidationError("actor_id", "invalid_id", "actor_id must be a snowflake"))
		return
	}

	if err := s.portSvc.Release(c.Request.Context(), id, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	port, err := s.portSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": port})
}
