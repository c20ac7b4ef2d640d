package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
)

// PostgresSearchSessionRepository implements the SearchSessionRepository interface.
// Results and conversation threads live in JSONB columns; pgx marshals the
// typed slices and maps through its JSON codec.
type PostgresSearchSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSearchSessionRepository creates a new search session repository
func NewSearchSessionRepository(config *RepositoryConfig) repositories.SearchSessionRepository {
	return &PostgresSearchSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Upsert creates or replaces a search session row
func (r *PostgresSearchSessionRepository) Upsert(ctx context.Context, session *models.SearchSession) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, query, formatted_content, results,
			summary_conversation, source_conversations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			formatted_content = EXCLUDED.formatted_content,
			results = EXCLUDED.results,
			summary_conversation = EXCLUDED.summary_conversation,
			source_conversations = EXCLUDED.source_conversations,
			updated_at = EXCLUDED.updated_at
		WHERE %s.user_id = EXCLUDED.user_id
	`, r.tables.SearchSessions, r.tables.SearchSessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Query,
		session.FormattedContent,
		session.Results,
		session.SummaryConversation,
		session.SourceConversations,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert search session: %w", err)
	}

	// Zero rows means the id exists but belongs to someone else
	if result.RowsAffected() == 0 {
		return fmt.Errorf("search session %s: %w", session.ID, domain.ErrForbidden)
	}

	return nil
}

// GetByID retrieves a search session owned by the user
func (r *PostgresSearchSessionRepository) GetByID(ctx context.Context, id, userID string) (*models.SearchSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, query, formatted_content, results,
			summary_conversation, source_conversations, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.SearchSessions)

	var session models.SearchSession
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Query,
		&session.FormattedContent,
		&session.Results,
		&session.SummaryConversation,
		&session.SourceConversations,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("search session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get search session: %w", err)
	}

	return &session, nil
}

// List lists the user's search sessions, newest first
func (r *PostgresSearchSessionRepository) List(ctx context.Context, userID string) ([]models.SearchSession, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, query, formatted_content, results,
			summary_conversation, source_conversations, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, r.tables.SearchSessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list search sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SearchSession
	for rows.Next() {
		var session models.SearchSession
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Query,
			&session.FormattedContent,
			&session.Results,
			&session.SummaryConversation,
			&session.SourceConversations,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a search session
func (r *PostgresSearchSessionRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.SearchSessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete search session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("search session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
