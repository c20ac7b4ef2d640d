package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
)

// PostgresLinkListRepository implements the LinkListRepository interface.
// Each row is one list; its links array lives in a JSONB column. List IDs
// are only unique per user ("default" exists for everyone), so the primary
// key is (user_id, id).
type PostgresLinkListRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewLinkListRepository creates a new link list repository
func NewLinkListRepository(config *RepositoryConfig) repositories.LinkListRepository {
	return &PostgresLinkListRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetAll retrieves every list the user owns
func (r *PostgresLinkListRepository) GetAll(ctx context.Context, userID string) ([]models.LinkList, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, links, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.LinkLists)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list link lists: %w", err)
	}
	defer rows.Close()

	var lists []models.LinkList
	for rows.Next() {
		var list models.LinkList
		err := rows.Scan(
			&list.ID,
			&list.UserID,
			&list.Name,
			&list.Links,
			&list.CreatedAt,
			&list.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan link list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link lists: %w", err)
	}

	return lists, nil
}

// Upsert creates or replaces one list
func (r *PostgresLinkListRepository) Upsert(ctx context.Context, list *models.LinkList) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, links, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			links = EXCLUDED.links,
			updated_at = EXCLUDED.updated_at
	`, r.tables.LinkLists)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		list.ID,
		list.UserID,
		list.Name,
		list.Links,
		list.CreatedAt,
		list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert link list: %w", err)
	}

	return nil
}

// ReplaceAll atomically replaces the user's lists with the given set.
// Runs in the caller's transaction when one is present in the context.
func (r *PostgresLinkListRepository) ReplaceAll(ctx context.Context, userID string, lists []models.LinkList) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.LinkLists)
	if _, err := executor.Exec(ctx, deleteQuery, userID); err != nil {
		return fmt.Errorf("clear link lists: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, links, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.LinkLists)

	for i := range lists {
		list := &lists[i]
		_, err := executor.Exec(ctx, insertQuery,
			list.ID,
			userID,
			list.Name,
			list.Links,
			list.CreatedAt,
			list.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert link list %s: %w", list.ID, err)
		}
	}

	return nil
}

// Delete removes one list
func (r *PostgresLinkListRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.LinkLists)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete link list: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("link list %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
