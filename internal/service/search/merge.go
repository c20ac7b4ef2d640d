package search

import "arcai/internal/domain/models"

// Merge reconciles a device copy of a search session with the stored copy.
// It is a field-level last-writer-wins heuristic, not a CRDT: the stored
// formatted answer wins unless empty, the longer summary thread wins, and
// per-source threads are unioned with the stored side winning collisions.
func Merge(local, remote models.SearchSession) models.SearchSession {
	merged := remote

	if merged.ID == "" {
		merged.ID = local.ID
	}
	if merged.UserID == "" {
		merged.UserID = local.UserID
	}
	if merged.Query == "" {
		merged.Query = local.Query
	}

	if merged.FormattedContent == "" {
		merged.FormattedContent = local.FormattedContent
	}
	if len(merged.Results) == 0 {
		merged.Results = local.Results
	}

	if len(local.SummaryConversation) > len(remote.SummaryConversation) {
		merged.SummaryConversation = local.SummaryConversation
	}

	merged.SourceConversations = mergeSourceConversations(local.SourceConversations, remote.SourceConversations)

	if merged.CreatedAt.IsZero() || (!local.CreatedAt.IsZero() && local.CreatedAt.Before(merged.CreatedAt)) {
		merged.CreatedAt = local.CreatedAt
	}
	if local.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = local.UpdatedAt
	}

	return merged
}

// mergeSourceConversations unions per-source threads by key. Remote entries
// override local ones on key collision, dropping the local thread's unique
// messages for that source.
func mergeSourceConversations(local, remote map[string][]models.SearchMessage) map[string][]models.SearchMessage {
	if len(local) == 0 && len(remote) == 0 {
		return nil
	}

	merged := make(map[string][]models.SearchMessage, len(local)+len(remote))
	for key, thread := range local {
		merged[key] = thread
	}
	for key, thread := range remote {
		merged[key] = thread
	}
	return merged
}
