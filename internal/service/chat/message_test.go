package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
)

type stubSessionRepo struct {
	err error
}

func (r *stubSessionRepo) Create(ctx context.Context, session *models.Session) error { return nil }
func (r *stubSessionRepo) GetByID(ctx context.Context, id, userID string) (*models.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &models.Session{ID: id, UserID: userID}, nil
}
func (r *stubSessionRepo) List(ctx context.Context, userID string) ([]models.Session, error) {
	return nil, nil
}
func (r *stubSessionRepo) UpdateTitle(ctx context.Context, id, userID, title string) error {
	return nil
}
func (r *stubSessionRepo) UpdateCanvas(ctx context.Context, id, userID string, content, mode, language *string) error {
	return nil
}
func (r *stubSessionRepo) Touch(ctx context.Context, id, userID string) error      { return nil }
func (r *stubSessionRepo) SoftDelete(ctx context.Context, id, userID string) error { return nil }

// pagingMessageRepo records the page arguments it was asked for.
type pagingMessageRepo struct {
	limit  int
	before time.Time
}

func (r *pagingMessageRepo) Create(ctx context.Context, msg *models.Message) error { return nil }
func (r *pagingMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return nil, nil
}
func (r *pagingMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	return nil, nil
}
func (r *pagingMessageRepo) ListBySessionPage(ctx context.Context, sessionID string, limit int, before time.Time) ([]models.Message, error) {
	r.limit = limit
	r.before = before
	return nil, nil
}
func (r *pagingMessageRepo) UpdateStatus(ctx context.Context, id, status string) error { return nil }
func (r *pagingMessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	return nil
}
func (r *pagingMessageRepo) Complete(ctx context.Context, msg *models.Message) error { return nil }
func (r *pagingMessageRepo) Fail(ctx context.Context, id, status, reason, content string) error {
	return nil
}
func (r *pagingMessageRepo) DeleteAfter(ctx context.Context, sessionID string, after time.Time) error {
	return nil
}
func (r *pagingMessageRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestListMessagesPageBounds(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default applied", limit: 0, want: defaultMessagePageLimit},
		{name: "explicit kept", limit: 25, want: 25},
		{name: "capped", limit: 1000, want: maxMessagePageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &pagingMessageRepo{}
			svc := NewService(Deps{
				Sessions: &stubSessionRepo{},
				Messages: repo,
				Logger:   testLogger(),
			})

			_, err := svc.ListMessages(context.Background(), "user-1", "session-1", ListMessagesOptions{Limit: tt.limit})
			if err != nil {
				t.Fatalf("ListMessages: %v", err)
			}
			if repo.limit != tt.want {
				t.Errorf("repository limit = %d, want %d", repo.limit, tt.want)
			}
		})
	}
}

func TestListMessagesThreadsCursor(t *testing.T) {
	cursor := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	repo := &pagingMessageRepo{}
	svc := NewService(Deps{
		Sessions: &stubSessionRepo{},
		Messages: repo,
		Logger:   testLogger(),
	})

	_, err := svc.ListMessages(context.Background(), "user-1", "session-1", ListMessagesOptions{Before: cursor})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if !repo.before.Equal(cursor) {
		t.Errorf("repository cursor = %v, want %v", repo.before, cursor)
	}
}

func TestListMessagesChecksOwnership(t *testing.T) {
	repo := &pagingMessageRepo{}
	svc := NewService(Deps{
		Sessions: &stubSessionRepo{err: domain.ErrNotFound},
		Messages: repo,
		Logger:   testLogger(),
	})

	_, err := svc.ListMessages(context.Background(), "user-1", "session-1", ListMessagesOptions{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ListMessages error = %v, want ErrNotFound", err)
	}
	if repo.limit != 0 {
		t.Error("repository queried despite failed ownership check")
	}
}
