package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"ycli/model"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores one row per chat holding the chat JSON.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		create_time TEXT NOT NULL,
		update_time TEXT NOT NULL,
		data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chats_create_time ON chats(create_time);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) ListChats(ctx context.Context, opts model.ListOptions) ([]*model.Chat, error) {
	query := `
	SELECT data
	FROM chats
	ORDER BY create_time DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		var chat model.Chat
		if err := json.Unmarshal([]byte(data), &chat); err != nil {
			return nil, fmt.Errorf("failed to decode chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows are ordered already; this keeps ties in the same order as the
	// file repository.
	sortNewestFirst(chats)
	return filterChats(chats, opts), nil
}

func (r *SQLiteRepository) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM chats WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	var chat model.Chat
	if err := json.Unmarshal([]byte(data), &chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat: %w", err)
	}
	return &chat, nil
}

func (r *SQLiteRepository) AddChat(ctx context.Context, chat *model.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	query := `
	INSERT INTO chats (id, create_time, update_time, data)
	VALUES (?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, chat.ID, chat.CreateTime, chat.UpdateTime, string(data))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrChatExists, chat.ID)
		}
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateChat(ctx context.Context, chat *model.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	updateSQL := `
		UPDATE chats
		SET create_time = ?,
			update_time = ?,
			data = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, updateSQL, chat.CreateTime, chat.UpdateTime, string(data), chat.ID)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, chat.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteChat(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete chat: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rows > 0, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
