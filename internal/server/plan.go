package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	plandomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/domain"
)

// @Summary      Create Plan
// @Description  Create a purchasable plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body plandomain.CreatePlanRequest true "Create Plan Request"
// @Success      200  {object}  plandomain.Plan
// @Router       /plans [post]
func (s *Server) CreatePlan(c *gin.Context) {
	var req plandomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Plan
// @Description  Update a plan's name, price or active flag
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Plan ID"
// @Param        request  body  plandomain.UpdatePlanRequest true  "Update Plan Request"
// @Success      200  {object}  plandomain.Plan
// @Router       /plans/{id} [patch]
func (s *Server) UpdatePlan(c *gin.Context) {
	var req plandomain.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.planSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlans(c *gin.Context) {
	activeOnly := strings.EqualFold(c.Query("active"), "true")

	plans, err := s.planSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (s *Server) GetPlan(c *gin.Context) {
	resp, err := s.planSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanByCode(c *gin.Context) {
	resp, err := s.planSvc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
