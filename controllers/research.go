package controllers

import (
	"net/http"

	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-gonic/gin"
)

type ResearchController struct {
	research *services.ResearchService
}

func NewResearchController(research *services.ResearchService) *ResearchController {
	return &ResearchController{research: research}
}

func (ct *ResearchController) Routes(router *gin.Engine) {
	router.POST("/research/query", ct.RunQuery)
}

func (ct *ResearchController) RunQuery(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	rows, err := ct.research.RunReadOnly(c.Request.Context(), req.Query)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(rows))
}
