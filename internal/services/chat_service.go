package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"
	"carrental/pkg/logger"
)

// Relay pushes payloads to the live sessions of an identity. It is
// satisfied by *websocket.Registry.
type Relay interface {
	Deliver(identity string, payload []byte) int
	ConnectedIdentities() []string
}

type ChatService interface {
	// SendMessage stores the message and pushes it to every live session of
	// the receiver. Delivery is best effort; storage is not rolled back.
	SendMessage(ctx context.Context, sender, receiver, text string) (*models.Message, error)
	SendToUsername(ctx context.Context, sender string, request *SendMessageRequest) (*models.Message, error)

	History(ctx context.Context, caller, otherUsername string) ([]*models.Message, error)
	SearchUsers(ctx context.Context, query string) ([]*models.UserSummary, error)
	OnlineUsers(ctx context.Context) []string

	// IdentityExists lets the websocket handler reject unknown identities.
	IdentityExists(ctx context.Context, identity string) (bool, error)
}

type SendMessageRequest struct {
	ReceiverUsername string `json:"receiver_username" validate:"required"`
	Text             string `json:"text" validate:"required"`
}

type chatService struct {
	messageRepo interfaces.MessageRepository
	userRepo    interfaces.UserRepository
	relay       Relay
	logger      *logger.Logger
}

func NewChatService(messageRepo interfaces.MessageRepository, userRepo interfaces.UserRepository, relay Relay, logger *logger.Logger) ChatService {
	return &chatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		relay:       relay,
		logger:      logger,
	}
}

func (s *chatService) SendMessage(ctx context.Context, sender, receiver, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("Message text cannot be empty")
	}
	if utf8.RuneCountInString(text) > utils.MaxMessageLength {
		return nil, invalidInput("Message text cannot exceed %d characters", utils.MaxMessageLength)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to look up receiver: %w", err)
	}
	if !exists {
		return nil, notFound("User with email %s not found", receiver)
	}

	message := &models.Message{
		SenderEmail:   sender,
		ReceiverEmail: receiver,
		Text:          text,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.push(message)
	return message, nil
}

func (s *chatService) push(message *models.Message) {
	if s.relay == nil {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode message for delivery")
		return
	}

	delivered := s.relay.Deliver(message.ReceiverEmail, payload)
	s.logger.WithFields(map[string]interface{}{
		"message_id": message.ID.Hex(),
		"receiver":   message.ReceiverEmail,
		"sessions":   delivered,
	}).Debug("Message relayed")
}

func (s *chatService) SendToUsername(ctx context.Context, sender string, request *SendMessageRequest) (*models.Message, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	receiver, err := s.userRepo.GetByUsername(ctx, request.ReceiverUsername)
	if err != nil {
		return nil, translateRepoError(err, "Receiver not found")
	}
	return s.SendMessage(ctx, sender, receiver.Email, request.Text)
}

func (s *chatService) History(ctx context.Context, caller, otherUsername string) ([]*models.Message, error) {
	other, err := s.userRepo.GetByUsername(ctx, otherUsername)
	if err != nil {
		return nil, translateRepoError(err, "Receiver not found")
	}
	return s.messageRepo.ListConversation(ctx, caller, other.Email)
}

func (s *chatService) SearchUsers(ctx context.Context, query string) ([]*models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidInput("query is required")
	}

	users, err := s.userRepo.Search(ctx, query, utils.UserSearchLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, &models.UserSummary{Username: user.Username, Email: user.Email})
	}
	return summaries, nil
}

func (s *chatService) OnlineUsers(ctx context.Context) []string {
	if s.relay == nil {
		return []string{}
	}
	return s.relay.ConnectedIdentities()
}

func (s *chatService) IdentityExists(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		return false, nil
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, identity)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return false, err
	}
	return exists, nil
}
