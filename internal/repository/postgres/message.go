package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
)

// PostgresMessageRepository implements the MessageRepository interface
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new message
func (r *PostgresMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, role, type, content, status, error, image_urls,
			code_language, code_label, memory_action, model, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Type,
		msg.Content,
		msg.Status,
		msg.Error,
		msg.ImageURLs,
		msg.CodeLanguage,
		msg.CodeLabel,
		msg.MemoryAction,
		msg.Model,
		msg.CreatedAt,
		msg.CompletedAt,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", msg.SessionID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return fmt.Errorf("message %s already exists: %w", msg.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID
func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, type, content, status, error, image_urls,
			code_language, code_label, memory_action, model, created_at, completed_at
		FROM %s
		WHERE id = $1
	`, r.tables.Messages)

	var msg models.Message
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.SessionID,
		&msg.Role,
		&msg.Type,
		&msg.Content,
		&msg.Status,
		&msg.Error,
		&msg.ImageURLs,
		&msg.CodeLanguage,
		&msg.CodeLabel,
		&msg.MemoryAction,
		&msg.Model,
		&msg.CreatedAt,
		&msg.CompletedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	return &msg, nil
}

// ListBySession lists a session's messages in creation order
func (r *PostgresMessageRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, type, content, status, error, image_urls,
			code_language, code_label, memory_action, model, created_at, completed_at
		FROM %s
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Type,
			&msg.Content,
			&msg.Status,
			&msg.Error,
			&msg.ImageURLs,
			&msg.CodeLanguage,
			&msg.CodeLabel,
			&msg.MemoryAction,
			&msg.Model,
			&msg.CreatedAt,
			&msg.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// ListBySessionPage lists one page of a session's messages in creation
// order: up to limit rows created strictly before the cursor
func (r *PostgresMessageRepository) ListBySessionPage(ctx context.Context, sessionID string, limit int, before time.Time) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, type, content, status, error, image_urls,
			code_language, code_label, memory_action, model, created_at, completed_at
		FROM %s
		WHERE session_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, r.tables.Messages)

	var cursor interface{}
	if !before.IsZero() {
		cursor = before
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list message page: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Type,
			&msg.Content,
			&msg.Status,
			&msg.Error,
			&msg.ImageURLs,
			&msg.CodeLanguage,
			&msg.CodeLabel,
			&msg.MemoryAction,
			&msg.Model,
			&msg.CreatedAt,
			&msg.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// The query selects the newest page; flip it back into creation order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// UpdateStatus transitions a message's status
func (r *PostgresMessageRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE id = $2
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateContent rewrites a user message's content during an edit
func (r *PostgresMessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content = $1
		WHERE id = $2 AND role = 'user'
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, content, id)
	if err != nil {
		return fmt.Errorf("update message content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Complete writes the final assistant payload and terminal status
func (r *PostgresMessageRepository) Complete(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET type = $1, content = $2, status = $3, error = $4, image_urls = $5,
			code_language = $6, code_label = $7, memory_action = $8, model = $9, completed_at = $10
		WHERE id = $11
	`, r.tables.Messages)

	now := time.Now()
	if msg.CompletedAt == nil {
		msg.CompletedAt = &now
	}

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		msg.Type,
		msg.Content,
		msg.Status,
		msg.Error,
		msg.ImageURLs,
		msg.CodeLanguage,
		msg.CodeLabel,
		msg.MemoryAction,
		msg.Model,
		msg.CompletedAt,
		msg.ID,
	)
	if err != nil {
		return fmt.Errorf("complete message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", msg.ID, domain.ErrNotFound)
	}

	return nil
}

// Fail marks a message errored or cancelled, writing the reason and the
// content to keep
func (r *PostgresMessageRepository) Fail(ctx context.Context, id, status, reason, content string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, error = $2, content = $3, completed_at = NOW()
		WHERE id = $4
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, reason, content, id)
	if err != nil {
		return fmt.Errorf("fail message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteAfter removes all messages in a session created after the cutoff
func (r *PostgresMessageRepository) DeleteAfter(ctx context.Context, sessionID string, after time.Time) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE session_id = $1 AND created_at > $2
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, sessionID, after)
	if err != nil {
		return fmt.Errorf("delete messages after cutoff: %w", err)
	}

	return nil
}

// DeleteBySession removes every message in a session
func (r *PostgresMessageRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE session_id = $1
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}

	return nil
}
