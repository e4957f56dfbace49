package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ycli/config"
	"ycli/model"
)

// FileRepository keeps every chat as one JSON line. Writes rewrite the
// whole file.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) readChats() ([]*model.Chat, error) {
	chats, err := config.ReadJSONL[*model.Chat](r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}
	return chats, nil
}

func (r *FileRepository) writeChats(chats []*model.Chat) error {
	if err := config.WriteJSONL(r.path, chats); err != nil {
		return fmt.Errorf("failed to write chats: %w", err)
	}
	return nil
}

func (r *FileRepository) ListChats(ctx context.Context, opts model.ListOptions) ([]*model.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readChats()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(chats)
	return filterChats(chats, opts), nil
}

func (r *FileRepository) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readChats()
	if err != nil {
		return nil, err
	}
	for _, c := range chats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *FileRepository) AddChat(ctx context.Context, chat *model.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readChats()
	if err != nil {
		return err
	}
	if slices.ContainsFunc(chats, func(c *model.Chat) bool { return c.ID == chat.ID }) {
		return fmt.Errorf("%w: %s", ErrChatExists, chat.ID)
	}
	return r.writeChats(append(chats, chat))
}

func (r *FileRepository) UpdateChat(ctx context.Context, chat *model.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readChats()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(chats, func(c *model.Chat) bool { return c.ID == chat.ID })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chat.ID)
	}
	chats[i] = chat
	return r.writeChats(chats)
}

func (r *FileRepository) DeleteChat(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats, err := r.readChats()
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(chats), func(c *model.Chat) bool { return c.ID == id })
	if len(kept) == len(chats) {
		return false, nil
	}
	return true, r.writeChats(kept)
}

func (r *FileRepository) Close() error {
	return nil
}
