package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"carrental/internal/models"
	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the chat REST endpoints and processes frames arriving
// on websocket sessions.
type ChatHandler struct {
	chatService services.ChatService
	logger      *logger.Logger
}

func NewChatHandler(chatService services.ChatService, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// chatFrame is an inbound websocket message. ReceiverEmail is the older name
// of ReceiverIdentity and is still accepted.
type chatFrame struct {
	ReceiverIdentity string `json:"receiver_identity"`
	ReceiverEmail    string `json:"receiver_email"`
	Text             string `json:"text"`
}

type frameError struct {
	Error string `json:"error"`
}

type frameDelivered struct {
	Status  string          `json:"status"`
	Message *models.Message `json:"message"`
}

type searchUsersQuery struct {
	Query string `form:"query" binding:"required,max=100"`
}

// ProcessFrame relays one frame from identity and returns the reply for the
// sending session.
func (h *ChatHandler) ProcessFrame(ctx context.Context, identity string, frame []byte) []byte {
	var in chatFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		return h.encodeReply(frameError{Error: "Invalid message format"})
	}
	receiver := strings.TrimSpace(in.ReceiverIdentity)
	if receiver == "" {
		receiver = strings.TrimSpace(in.ReceiverEmail)
	}
	if receiver == "" || strings.TrimSpace(in.Text) == "" {
		return h.encodeReply(frameError{Error: "Invalid message format"})
	}

	message, err := h.chatService.SendMessage(ctx, identity, receiver, in.Text)
	if err != nil {
		var serviceErr *services.ServiceError
		if errors.As(err, &serviceErr) {
			return h.encodeReply(frameError{Error: serviceErr.Message})
		}
		h.logger.WithContext(ctx).WithError(err).Error("Failed to relay chat message")
		return h.encodeReply(frameError{Error: utils.ErrInternalServer})
	}

	return h.encodeReply(frameDelivered{Status: "delivered", Message: message})
}

func (h *ChatHandler) encodeReply(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode websocket reply")
		return nil
	}
	return payload
}

// SendMessage relays a message addressed by username
func (h *ChatHandler) SendMessage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.SendMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	message, err := h.chatService.SendToUsername(c.Request.Context(), identity, &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Message sent successfully", message)
}

// GetMessages returns the conversation with :receiver_username, oldest first
func (h *ChatHandler) GetMessages(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), identity, c.Param("receiver_username"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Messages retrieved successfully", messages, &utils.Meta{Count: len(messages)})
}

func (h *ChatHandler) SearchUsers(c *gin.Context) {
	var query searchUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		handleBindError(c, err)
		return
	}

	users, err := h.chatService.SearchUsers(c.Request.Context(), query.Query)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Users retrieved successfully", users, &utils.Meta{Count: len(users)})
}

func (h *ChatHandler) OnlineUsers(c *gin.Context) {
	online := h.chatService.OnlineUsers(c.Request.Context())
	utils.SuccessResponseWithMeta(c, "Online users retrieved successfully", gin.H{"online_users": online}, &utils.Meta{Count: len(online)})
}
