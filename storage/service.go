package storage

import (
	"context"
	"fmt"

	"ycli/config"
	"ycli/model"
)

// ChatService wraps a repository with the create/update rules used by the
// chat loop.
type ChatService struct {
	repo model.Repository
}

func NewChatService(repo model.Repository) *ChatService {
	return &ChatService{repo: repo}
}

func (s *ChatService) ListChats(ctx context.Context, opts model.ListOptions) ([]*model.Chat, error) {
	return s.repo.ListChats(ctx, opts)
}

func (s *ChatService) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	return s.repo.GetChat(ctx, id)
}

// CreateChat stores a new chat. An empty chatID gets a generated one.
func (s *ChatService) CreateChat(ctx context.Context, messages []model.Message, externalID, chatID string) (*model.Chat, error) {
	chat := model.NewChat(chatID, messages, externalID)
	if err := s.repo.AddChat(ctx, chat); err != nil {
		return nil, err
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[ChatService] Created chat %s with %d messages", chat.ID, len(chat.Messages))
	}
	return chat, nil
}

// UpdateChat replaces the messages and external id of an existing chat.
func (s *ChatService) UpdateChat(ctx context.Context, chatID string, messages []model.Message, externalID string) (*model.Chat, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	chat.SetMessages(messages)
	chat.ExternalID = externalID
	if err := s.repo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[ChatService] Updated chat %s (%d messages)", chat.ID, len(chat.Messages))
	}
	return chat, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteChat(ctx, id)
}
