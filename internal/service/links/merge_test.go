package links

import (
	"testing"
	"time"

	"arcai/internal/domain/models"
)

func list(id, name string, updated time.Time, links ...models.SavedLink) models.LinkList {
	return models.LinkList{
		ID:        id,
		Name:      name,
		Links:     links,
		UpdatedAt: updated,
	}
}

func findByID(t *testing.T, lists []models.LinkList, id string) models.LinkList {
	t.Helper()
	for _, l := range lists {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("list %q not found in %+v", id, lists)
	return models.LinkList{}
}

func TestMergeSynthesizesDefaultList(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		local  []models.LinkList
		remote []models.LinkList
	}{
		{name: "both empty"},
		{name: "only named lists", local: []models.LinkList{list("work", "Work", t1)}},
		{name: "remote only", remote: []models.LinkList{list("reading", "Reading", t1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge("u1", tt.local, tt.remote)

			def := findByID(t, merged, models.DefaultLinkListID)
			if def.UserID != "u1" {
				t.Errorf("default list user = %q, want u1", def.UserID)
			}
			if def.Links == nil {
				t.Errorf("default list links should be non-nil")
			}

			count := 0
			for _, l := range merged {
				if l.ID == models.DefaultLinkListID {
					count++
				}
			}
			if count != 1 {
				t.Errorf("default list count = %d, want exactly 1", count)
			}
		})
	}
}

func TestMergeKeepsExistingDefault(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	existing := list(models.DefaultLinkListID, "Saved", t1,
		models.SavedLink{ID: "l1", Title: "Go blog", URL: "https://go.dev/blog"})

	merged := Merge("u1", nil, []models.LinkList{existing})

	def := findByID(t, merged, models.DefaultLinkListID)
	if len(def.Links) != 1 || def.Links[0].ID != "l1" {
		t.Errorf("existing default list was replaced: %+v", def)
	}
}

func TestMergeUnionByID(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	local := []models.LinkList{
		list("work", "Work", t1, models.SavedLink{ID: "a"}),
		list("home", "Home", t1),
	}
	remote := []models.LinkList{
		list("work", "Work", t1, models.SavedLink{ID: "a"}, models.SavedLink{ID: "b"}),
		list("reading", "Reading", t1),
	}

	merged := Merge("u1", local, remote)

	// work, home, reading plus the synthesized default.
	if len(merged) != 4 {
		t.Fatalf("merged length = %d, want 4", len(merged))
	}
	findByID(t, merged, "home")
	findByID(t, merged, "reading")
}

func TestMergeCollisionNewerUpdatedAtWins(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name      string
		local     models.LinkList
		remote    models.LinkList
		wantLinks int
	}{
		{
			name:      "local newer wins",
			local:     list("work", "Work", newer, models.SavedLink{ID: "a"}, models.SavedLink{ID: "b"}),
			remote:    list("work", "Work", older, models.SavedLink{ID: "a"}),
			wantLinks: 2,
		},
		{
			name:      "remote newer wins",
			local:     list("work", "Work", older, models.SavedLink{ID: "a"}, models.SavedLink{ID: "b"}),
			remote:    list("work", "Work", newer, models.SavedLink{ID: "a"}),
			wantLinks: 1,
		},
		{
			name:      "tie keeps remote",
			local:     list("work", "Work", older, models.SavedLink{ID: "a"}, models.SavedLink{ID: "b"}),
			remote:    list("work", "Work", older, models.SavedLink{ID: "a"}),
			wantLinks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge("u1", []models.LinkList{tt.local}, []models.LinkList{tt.remote})
			work := findByID(t, merged, "work")
			if len(work.Links) != tt.wantLinks {
				t.Errorf("links = %d, want %d", len(work.Links), tt.wantLinks)
			}
		})
	}
}

func TestMergeStampsUserID(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	merged := Merge("u1", []models.LinkList{list("work", "Work", t1)}, nil)

	for _, l := range merged {
		if l.UserID != "u1" {
			t.Errorf("list %q user = %q, want u1", l.ID, l.UserID)
		}
	}
}
