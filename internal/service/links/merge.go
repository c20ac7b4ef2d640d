package links

import "arcai/internal/domain/models"

// Merge reconciles a device copy of the user's link lists with the stored
// copy. Lists are unioned by id with the stored side winning collisions by
// newer UpdatedAt; within a surviving list the links themselves are not
// merged (the whole list travels as one unit). Exactly one default list is
// guaranteed in the result, synthesized if both sides omit it.
func Merge(userID string, local, remote []models.LinkList) []models.LinkList {
	byID := make(map[string]models.LinkList, len(local)+len(remote))
	order := make([]string, 0, len(local)+len(remote))

	for _, list := range remote {
		if _, seen := byID[list.ID]; !seen {
			order = append(order, list.ID)
		}
		byID[list.ID] = list
	}
	for _, list := range local {
		existing, seen := byID[list.ID]
		if !seen {
			order = append(order, list.ID)
			byID[list.ID] = list
			continue
		}
		if list.UpdatedAt.After(existing.UpdatedAt) {
			byID[list.ID] = list
		}
	}

	if _, ok := byID[models.DefaultLinkListID]; !ok {
		byID[models.DefaultLinkListID] = models.NewDefaultLinkList(userID)
		order = append([]string{models.DefaultLinkListID}, order...)
	}

	merged := make([]models.LinkList, 0, len(order))
	for _, id := range order {
		list := byID[id]
		list.UserID = userID
		if list.Links == nil {
			list.Links = []models.SavedLink{}
		}
		merged = append(merged, list)
	}
	return merged
}
