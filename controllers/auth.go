package controllers

import (
	"net/http"

	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-gonic/gin"
)

const sessionHeader = "X-Session-Id"

type AuthController struct {
	messaging *services.MessagingService
}

func NewAuthController(messaging *services.MessagingService) *AuthController {
	return &AuthController{messaging: messaging}
}

func (ct *AuthController) Routes(router *gin.Engine) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", ct.Register)
		auth.POST("/login", ct.Login)
		auth.POST("/logout", ct.Logout)
	}
}

func (ct *AuthController) Register(c *gin.Context) {
	var req struct {
		Username   string `json:"username" binding:"required"`
		Password   string `json:"password" binding:"required"`
		UserType   string `json:"userType" binding:"required"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		ExternalID int64  `json:"externalId"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	user, err := ct.messaging.Register(c.Request.Context(),
		req.Username, req.Password, req.UserType, req.FirstName, req.LastName, req.ExternalID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(user))
}

func (ct *AuthController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	sessionID, user, err := ct.messaging.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"sessionId": sessionID, "user": user}))
}

func (ct *AuthController) Logout(c *gin.Context) {
	sessionID := c.GetHeader(sessionHeader)
	if err := ct.messaging.Logout(c.Request.Context(), sessionID); err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse("logged out"))
}

// SessionAuth validates the X-Session-Id header and stores the
// resolved user id on the request context for the chat handlers.
func (ct *AuthController) SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ct.messaging.ValidateSession(c.Request.Context(), c.GetHeader(sessionHeader))
		if err != nil {
			c.AbortWithStatusJSON(util.StatusFor(err), util.FailedResponse(err))
			return
		}
		c.Set("userId", userID)
		c.Next()
	}
}
