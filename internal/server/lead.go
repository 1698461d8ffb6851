package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	leaddomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead/domain"
)

// @Summary      Capture Lead
// @Description  Record an inbound sales inquiry
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body leaddomain.CaptureLeadRequest true "Capture Lead Request"
// @Success      200  {object}  leaddomain.Lead
// @Router       /leads [post]
func (s *Server) CaptureLead(c *gin.Context) {
	var req leaddomain.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.Capture(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListLeads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	leads, err := s.leadSvc.List(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leads})
}
