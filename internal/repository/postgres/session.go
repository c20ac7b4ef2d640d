package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new session
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, canvas_content, canvas_mode, canvas_language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.CanvasContent,
		session.CanvasMode,
		session.CanvasLanguage,
		session.CreatedAt,
		session.UpdatedAt,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("session %s already exists: %w", session.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session owned by the user
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id, userID string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, canvas_content, canvas_mode, canvas_language, created_at, updated_at, deleted_at
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, r.tables.Sessions)

	var session models.Session
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.CanvasContent,
		&session.CanvasMode,
		&session.CanvasLanguage,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.DeletedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// List lists the user's sessions, most recently updated first
func (r *PostgresSessionRepository) List(ctx context.Context, userID string) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, canvas_content, canvas_mode, canvas_language, created_at, updated_at, deleted_at
		FROM %s
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Title,
			&session.CanvasContent,
			&session.CanvasMode,
			&session.CanvasLanguage,
			&session.CreatedAt,
			&session.UpdatedAt,
			&session.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// UpdateTitle renames a session
func (r *PostgresSessionRepository) UpdateTitle(ctx context.Context, id, userID, title string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, title, id, userID)
	if err != nil {
		return fmt.Errorf("update session title: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateCanvas persists the canvas snapshot columns
func (r *PostgresSessionRepository) UpdateCanvas(ctx context.Context, id, userID string, content, mode, language *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET canvas_content = $1, canvas_mode = $2, canvas_language = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5 AND deleted_at IS NULL
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, content, mode, language, id, userID)
	if err != nil {
		return fmt.Errorf("update session canvas: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Touch bumps updated_at after message activity
func (r *PostgresSessionRepository) Touch(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete marks a session deleted without removing its rows
func (r *PostgresSessionRepository) SoftDelete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
