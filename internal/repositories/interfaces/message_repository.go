package interfaces

import (
	"context"

	"carrental/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error

	// ListConversation returns the messages exchanged between a and b in
	// either direction, oldest first.
	ListConversation(ctx context.Context, a, b string) ([]*models.Message, error)
}
