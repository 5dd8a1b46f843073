package controllers

import (
	"io"
	"net/http"

	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	conversations *services.ConversationService
	messaging     *services.MessagingService
	auth          *AuthController
}

func NewChatController(conversations *services.ConversationService, messaging *services.MessagingService, auth *AuthController) *ChatController {
	return &ChatController{conversations: conversations, messaging: messaging, auth: auth}
}

func (ct *ChatController) Routes(router *gin.Engine) {
	chat := router.Group("/chat", ct.auth.SessionAuth())
	{
		chat.POST("/conversation/open", ct.OpenConversation)
		chat.GET("/conversations", ct.Conversations)
		chat.POST("/message/send", ct.SendMessage)
		chat.POST("/message/sendImage", ct.SendImage)
		chat.GET("/messages/:conversationId", ct.Messages)
		chat.POST("/markRead/:conversationId", ct.MarkRead)
		chat.GET("/unread", ct.Unread)
		chat.GET("/users/search", ct.SearchUsers)
		chat.POST("/profile/image", ct.UploadProfileImage)
		chat.GET("/profile/image/:userId", ct.ProfileImage)
	}
}

func (ct *ChatController) OpenConversation(c *gin.Context) {
	var req struct {
		OtherUserID string `json:"otherUserId" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	conv, err := ct.conversations.OpenOrCreateConversation(c.Request.Context(), c.GetString("userId"), req.OtherUserID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(conv))
}

func (ct *ChatController) Conversations(c *gin.Context) {
	summaries, err := ct.conversations.ConversationsForUser(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(summaries))
}

func (ct *ChatController) SendMessage(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversationId" binding:"required"`
		Text           string `json:"text" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	messageID, err := ct.conversations.SendText(c.Request.Context(), req.ConversationID, c.GetString("userId"), req.Text)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"messageId": messageID}))
}

// SendImage takes a multipart form: conversationId, image.
func (ct *ChatController) SendImage(c *gin.Context) {
	conversationID := c.PostForm("conversationId")
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	messageID, err := ct.conversations.SendImage(c.Request.Context(), conversationID, c.GetString("userId"), header.Filename, data)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"messageId": messageID}))
}

func (ct *ChatController) Messages(c *gin.Context) {
	messages, err := ct.conversations.ListMessages(c.Request.Context(), c.Param("conversationId"), c.GetString("userId"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(messages))
}

func (ct *ChatController) MarkRead(c *gin.Context) {
	marked, err := ct.conversations.MarkRead(c.Request.Context(), c.Param("conversationId"), c.GetString("userId"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"markedRead": marked}))
}

func (ct *ChatController) Unread(c *gin.Context) {
	total, err := ct.conversations.UnreadTotal(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"unread": total}))
}

// UploadProfileImage takes a multipart form: image. The avatar always
// belongs to the authenticated user.
func (ct *ChatController) UploadProfileImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	if err := ct.messaging.UploadProfileImage(c.Request.Context(), c.GetString("userId"), header.Filename, data); err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse("profile image updated"))
}

func (ct *ChatController) ProfileImage(c *gin.Context) {
	data, mimeType, err := ct.messaging.ProfileImage(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.Data(http.StatusOK, mimeType, data)
}

func (ct *ChatController) SearchUsers(c *gin.Context) {
	users, err := ct.messaging.SearchUsers(c.Request.Context(), c.Query("q"), c.Query("userType"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(users))
}
