package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ycli/config"
	"ycli/model"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrChatExists   = errors.New("chat already exists")
)

// Store is a chat repository that holds resources until closed.
type Store interface {
	model.Repository
	Close() error
}

// Open returns the repository selected by cfg.StorageType.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageType {
	case "", config.StorageFile:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Storage] Using JSONL file %s", cfg.ChatFile)
		}
		return NewFileRepository(cfg.ChatFile), nil
	case config.StorageSQLite:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Storage] Using SQLite database %s", cfg.SQLiteFile)
		}
		return NewSQLiteRepository(cfg.SQLiteFile)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

// sortNewestFirst orders chats by CreateTime descending. Timestamps share one
// layout so string order is time order.
func sortNewestFirst(chats []*model.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].CreateTime > chats[j].CreateTime
	})
}

// filterChats keeps chats with at least one message matching every set
// filter, then applies the limit. Input must already be sorted.
func filterChats(chats []*model.Chat, opts model.ListOptions) []*model.Chat {
	limit := opts.Limit
	if limit <= 0 {
		limit = model.DefaultListLimit
	}

	if opts.Keyword == "" && opts.Model == "" && opts.Provider == "" {
		if len(chats) > limit {
			return chats[:limit]
		}
		return chats
	}

	keyword := strings.ToLower(opts.Keyword)
	modelName := strings.ToLower(opts.Model)
	provider := strings.ToLower(opts.Provider)

	var out []*model.Chat
	for _, c := range chats {
		for _, m := range c.Messages {
			if keyword != "" && !contentContains(m.Content, keyword) {
				continue
			}
			if modelName != "" && (m.Model == "" || !strings.Contains(strings.ToLower(m.Model), modelName)) {
				continue
			}
			if provider != "" && (m.Provider == "" || !strings.Contains(strings.ToLower(m.Provider), provider)) {
				continue
			}
			out = append(out, c)
			break
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}

func contentContains(c model.Content, lowerNeedle string) bool {
	if !c.IsParts() {
		return strings.Contains(strings.ToLower(c.Text()), lowerNeedle)
	}
	for _, p := range c.Parts() {
		if strings.Contains(strings.ToLower(p.Text), lowerNeedle) {
			return true
		}
	}
	return false
}
