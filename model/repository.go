package model

import "context"

// ListOptions filters ListChats. Empty strings match everything. Limit <= 0
// means the default of 10.
type ListOptions struct {
	Keyword  string
	Model    string
	Provider string
	Limit    int
}

// DefaultListLimit applies when ListOptions.Limit is not positive.
const DefaultListLimit = 10

// Repository persists chats keyed by id.
type Repository interface {
	// ListChats returns chats sorted by CreateTime, newest first.
	ListChats(ctx context.Context, opts ListOptions) ([]*Chat, error)
	// GetChat returns nil, nil when the chat does not exist.
	GetChat(ctx context.Context, id string) (*Chat, error)
	AddChat(ctx context.Context, chat *Chat) error
	UpdateChat(ctx context.Context, chat *Chat) error
	DeleteChat(ctx context.Context, id string) (bool, error)
}
