package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"arcai/internal/domain/models"
	"arcai/internal/service/stream"
)

// recordingMessageRepo records terminal writes and whether the context they
// arrived on was still live.
type recordingMessageRepo struct {
	mu           sync.Mutex
	failStatus   string
	failContent  string
	failCtxLive  bool
	failCalls    int
	completed    *models.Message
	completeLive bool
}

func (r *recordingMessageRepo) Create(ctx context.Context, msg *models.Message) error { return nil }
func (r *recordingMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return nil, nil
}
func (r *recordingMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	return nil, nil
}
func (r *recordingMessageRepo) ListBySessionPage(ctx context.Context, sessionID string, limit int, before time.Time) ([]models.Message, error) {
	return nil, nil
}
func (r *recordingMessageRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}
func (r *recordingMessageRepo) UpdateContent(ctx context.Context, id, content string) error {
	return nil
}
func (r *recordingMessageRepo) DeleteAfter(ctx context.Context, sessionID string, after time.Time) error {
	return nil
}
func (r *recordingMessageRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	return nil
}

func (r *recordingMessageRepo) Complete(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = msg
	r.completeLive = ctx.Err() == nil
	return nil
}

func (r *recordingMessageRepo) Fail(ctx context.Context, id, status, reason, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failStatus = status
	r.failContent = content
	r.failCtxLive = ctx.Err() == nil
	r.failCalls++
	return nil
}

// fakeUploader returns a fixed URL and can run a hook when called, which
// lets tests expire the generation context between upload and persist.
type fakeUploader struct {
	url      string
	onUpload func()
}

func (u *fakeUploader) UploadImage(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if u.onUpload != nil {
		u.onUpload()
	}
	return u.url, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestService(t *testing.T, upstream http.HandlerFunc, repo *recordingMessageRepo, uploader *fakeUploader) *Service {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	return NewService(Deps{
		Client: openai.NewClient(
			option.WithAPIKey("test"),
			option.WithBaseURL(srv.URL),
			option.WithMaxRetries(0),
		),
		Messages: repo,
		Uploader: uploader,
		Logger:   testLogger(),
	})
}

func TestGenerateToMessageFailurePersistsOnFreshContext(t *testing.T) {
	repo := &recordingMessageRepo{}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}, repo, &fakeUploader{url: "https://cdn.example/img.png"})

	// The generation context has already expired, as when the generation
	// deadline itself fired.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.GenerateToMessage(ctx, "user-1", "msg-1", "a red fox")

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failCalls != 1 {
		t.Fatalf("Fail called %d times, want 1", repo.failCalls)
	}
	if repo.failStatus != models.MessageStatusError {
		t.Errorf("persisted status = %q, want %q", repo.failStatus, models.MessageStatusError)
	}
	if repo.failContent != stream.FallbackErrorMessage {
		t.Errorf("persisted content = %q, want fallback message", repo.failContent)
	}
	if !repo.failCtxLive {
		t.Error("Fail received an expired context; the placeholder would stay pending")
	}
}

func TestGenerateToMessageCompletesOnFreshContext(t *testing.T) {
	payload := fmt.Sprintf(`{"created":1,"data":[{"b64_json":%q}]}`,
		base64.StdEncoding.EncodeToString([]byte("png-bytes")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &recordingMessageRepo{}
	uploader := &fakeUploader{
		url: "https://cdn.example/img.png",
		// Expire the generation context right after the upload, before the
		// terminal write.
		onUpload: cancel,
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}, repo, uploader)

	svc.GenerateToMessage(ctx, "user-1", "msg-1", "a red fox")

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.completed == nil {
		t.Fatal("Complete was never called")
	}
	if repo.completed.Status != models.MessageStatusComplete {
		t.Errorf("persisted status = %q, want %q", repo.completed.Status, models.MessageStatusComplete)
	}
	if len(repo.completed.ImageURLs) != 1 || repo.completed.ImageURLs[0] != uploader.url {
		t.Errorf("persisted image urls = %v, want [%s]", repo.completed.ImageURLs, uploader.url)
	}
	if !repo.completeLive {
		t.Error("Complete received an expired context; the placeholder would stay pending")
	}
}
