package controllers

import (
	"net/http"
	"strconv"

	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-gonic/gin"
)

type BridgeController struct {
	bridge *services.BridgeService
}

func NewBridgeController(bridge *services.BridgeService) *BridgeController {
	return &BridgeController{bridge: bridge}
}

func (ct *BridgeController) Routes(router *gin.Engine) {
	bridge := router.Group("/bridge")
	{
		bridge.POST("/provision", ct.Provision)
		bridge.GET("/resolve/:userType/:externalId", ct.Resolve)
		bridge.GET("/resolveInverse/:userId", ct.ResolveInverse)
	}
}

func (ct *BridgeController) Provision(c *gin.Context) {
	var req struct {
		UserType   string `json:"userType" binding:"required"`
		ExternalID int64  `json:"externalId" binding:"required"`
		Username   string `json:"username" binding:"required"`
		Password   string `json:"password"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	user, err := ct.bridge.Provision(c.Request.Context(),
		req.UserType, req.ExternalID, req.Username, req.Password, req.FirstName, req.LastName)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(user))
}

func (ct *BridgeController) Resolve(c *gin.Context) {
	externalID, err := strconv.ParseInt(c.Param("externalId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	user, err := ct.bridge.Resolve(c.Request.Context(), c.Param("userType"), externalID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(user))
}

func (ct *BridgeController) ResolveInverse(c *gin.Context) {
	userType, externalID, err := ct.bridge.ResolveInverse(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"userType": userType, "externalId": externalID}))
}
