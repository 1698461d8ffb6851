package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ticketdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket/domain"
)

// @Summary      Open Ticket
// @Description  Open a support ticket for a customer
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        request body ticketdomain.OpenTicketRequest true "Open Ticket Request"
// @Success      200  {object}  ticketdomain.Ticket
// @Router       /tickets [post]
func (s *Server) OpenTicket(c *gin.Context) {
	var req ticketdomain.OpenTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ticketSvc.Open(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTicket(c *gin.Context) {
	id, err := ticketdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	resp, err := s.ticketSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateTicketStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateTicketStatus(c *gin.Context) {
	id, err := ticketdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "id must be a snowflake"))
		return
	}

	var req updateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := ticketdomain.TicketStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	resp, err := s.ticketSvc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
