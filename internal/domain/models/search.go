package models

import (
	"time"
)

// SearchResult is one title/URL/snippet tuple returned by the web search
// upstream and shown on the research canvas.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchMessage is one entry in a search session's follow-up thread.
type SearchMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchSession is one research query plus its results, the formatted
// answer body, and optional follow-up conversation threads.
//
// Results, SummaryConversation and SourceConversations are stored as JSONB;
// SourceConversations is keyed by source URL.
type SearchSession struct {
	ID                  string                     `json:"id" db:"id"`
	UserID              string                     `json:"user_id" db:"user_id"`
	Query               string                     `json:"query" db:"query"`
	FormattedContent    string                     `json:"formatted_content" db:"formatted_content"`
	Results             []SearchResult             `json:"results" db:"results"`
	SummaryConversation []SearchMessage            `json:"summary_conversation" db:"summary_conversation"`
	SourceConversations map[string][]SearchMessage `json:"source_conversations" db:"source_conversations"`
	CreatedAt           time.Time                  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at" db:"updated_at"`
}
