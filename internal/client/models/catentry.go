package models

import (
	"fmt"
	"strings"
)

// CatEntry is a single observation of a cat as stored by the backend.
type CatEntry struct {
	ID         int64  `json:"id"`
	CatName    string `json:"catName"`
	Mood       string `json:"mood"`
	Location   string `json:"location"`
	Notes      string `json:"notes"`
	ImageURL   string `json:"imageUrl"`
	CreatedBy  *int64 `json:"createdBy,omitempty"`
	ModifiedBy *int64 `json:"modifiedBy,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

func (e CatEntry) String() string {
	return fmt.Sprintf("#%d %s (%s) @ %s", e.ID, e.CatName, e.Mood, e.Location)
}

// CatEntryCreate is the body of a create request; the backend assigns the id.
type CatEntryCreate struct {
	CatName   string `json:"catName"`
	Mood      string `json:"mood"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
	ImageURL  string `json:"imageUrl"`
	CreatedBy *int64 `json:"createdBy,omitempty"`
}

// CatEntryUpdate is the body of an update request.
type CatEntryUpdate struct {
	ID         int64  `json:"id"`
	CatName    string `json:"catName"`
	Mood       string `json:"mood"`
	Location   string `json:"location"`
	Notes      string `json:"notes"`
	ImageURL   string `json:"imageUrl"`
	ModifiedBy *int64 `json:"modifiedBy,omitempty"`
}

// Validate checks the fields every form must fill in.
func (c CatEntryCreate) Validate() error {
	return requireFields(map[string]string{"catName": c.CatName, "mood": c.Mood})
}

func (u CatEntryUpdate) Validate() error {
	if u.ID <= 0 {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	return requireFields(map[string]string{"catName": u.CatName, "mood": u.Mood})
}

// UpdateFrom seeds an update model from an existing entry.
func UpdateFrom(e CatEntry) CatEntryUpdate {
	return CatEntryUpdate{
		ID:       e.ID,
		CatName:  e.CatName,
		Mood:     e.Mood,
		Location: e.Location,
		Notes:    e.Notes,
		ImageURL: e.ImageURL,
	}
}

// UploadMetadata accompanies an image upload. Zero values are omitted.
type UploadMetadata struct {
	CatEntryID int64
	UploadedBy int64
}

// UploadResult is returned by the image upload endpoint.
type UploadResult struct {
	ImageURL string `json:"imageUrl"`
	FileID   string `json:"fileId"`
}

func requireFields(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"catName", "mood"} {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
