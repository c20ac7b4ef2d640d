package search

import (
	"testing"
	"time"

	"arcai/internal/domain/models"
)

func makeThread(n int, prefix string) []models.SearchMessage {
	thread := make([]models.SearchMessage, n)
	for i := range thread {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		thread[i] = models.SearchMessage{
			Role:      role,
			Content:   prefix,
			CreatedAt: time.Date(2026, 8, 1, 12, i, 0, 0, time.UTC),
		}
	}
	return thread
}

func TestMergeFormattedContent(t *testing.T) {
	tests := []struct {
		name   string
		local  string
		remote string
		want   string
	}{
		{name: "remote wins when set", local: "local answer", remote: "remote answer", want: "remote answer"},
		{name: "local fallback when remote empty", local: "local answer", remote: "", want: "local answer"},
		{name: "both empty", local: "", remote: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(
				models.SearchSession{FormattedContent: tt.local},
				models.SearchSession{FormattedContent: tt.remote},
			)
			if got.FormattedContent != tt.want {
				t.Errorf("FormattedContent = %q, want %q", got.FormattedContent, tt.want)
			}
		})
	}
}

func TestMergeSummaryConversationLongerWins(t *testing.T) {
	tests := []struct {
		name       string
		localLen   int
		remoteLen  int
		wantLen    int
		wantPrefix string
	}{
		{name: "remote longer", localLen: 2, remoteLen: 4, wantLen: 4, wantPrefix: "remote"},
		{name: "local longer", localLen: 6, remoteLen: 4, wantLen: 6, wantPrefix: "local"},
		{name: "equal keeps remote", localLen: 3, remoteLen: 3, wantLen: 3, wantPrefix: "remote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(
				models.SearchSession{SummaryConversation: makeThread(tt.localLen, "local")},
				models.SearchSession{SummaryConversation: makeThread(tt.remoteLen, "remote")},
			)
			if len(got.SummaryConversation) != tt.wantLen {
				t.Fatalf("summary length = %d, want %d", len(got.SummaryConversation), tt.wantLen)
			}
			if got.SummaryConversation[0].Content != tt.wantPrefix {
				t.Errorf("summary side = %q, want %q", got.SummaryConversation[0].Content, tt.wantPrefix)
			}
		})
	}
}

func TestMergeSourceConversationsUnion(t *testing.T) {
	local := models.SearchSession{
		SourceConversations: map[string][]models.SearchMessage{
			"https://a.example": makeThread(2, "local-a"),
			"https://b.example": makeThread(4, "local-b"),
		},
	}
	remote := models.SearchSession{
		SourceConversations: map[string][]models.SearchMessage{
			"https://b.example": makeThread(1, "remote-b"),
			"https://c.example": makeThread(3, "remote-c"),
		},
	}

	got := Merge(local, remote)

	if len(got.SourceConversations) != 3 {
		t.Fatalf("source conversation keys = %d, want 3", len(got.SourceConversations))
	}
	if got.SourceConversations["https://a.example"][0].Content != "local-a" {
		t.Errorf("local-only key lost")
	}
	if got.SourceConversations["https://c.example"][0].Content != "remote-c" {
		t.Errorf("remote-only key lost")
	}
	if got.SourceConversations["https://b.example"][0].Content != "remote-b" {
		t.Errorf("collision should keep the remote thread")
	}
}

func TestMergeIdentityAndResults(t *testing.T) {
	created := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	local := models.SearchSession{
		ID:        "s1",
		UserID:    "u1",
		Query:     "tides",
		Results:   []models.SearchResult{{Title: "Tides", URL: "https://t.example"}},
		CreatedAt: created,
		UpdatedAt: created.Add(2 * time.Hour),
	}
	remote := models.SearchSession{
		UpdatedAt: created.Add(time.Hour),
	}

	got := Merge(local, remote)

	if got.ID != "s1" || got.UserID != "u1" || got.Query != "tides" {
		t.Errorf("identity fields not carried from local: %+v", got)
	}
	if len(got.Results) != 1 {
		t.Errorf("results not carried from local")
	}
	if !got.UpdatedAt.Equal(created.Add(2 * time.Hour)) {
		t.Errorf("UpdatedAt = %v, want the later local timestamp", got.UpdatedAt)
	}
}

func TestMergeEmptySourceConversations(t *testing.T) {
	got := Merge(models.SearchSession{}, models.SearchSession{})
	if got.SourceConversations != nil {
		t.Errorf("expected nil map when both sides empty, got %v", got.SourceConversations)
	}
}
