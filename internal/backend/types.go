package backend

import (
	"io"
	"math"
	"time"

	"github.com/shinee-collection/tracker-web/internal/catalog"
)

// Stats maps stats keys (total, member names, lowercase country codes) to
// rounded collection percentages.
type Stats map[string]int

// MasterWork is a selectable work on the registration page.
type MasterWork struct {
	ID     string
	Title  string
	Artist string
}

// MasterEdition is a selectable edition of a master work.
type MasterEdition struct {
	ID     string
	WorkID string
	Label  string
}

// RandomItem is one registered randomized goods item.
type RandomItem struct {
	ID         string
	EditionID  string
	ItemType   string
	MemberName string
	ImageURL   string
	CreatedAt  time.Time
}

// UploadItem is one registration row with its image.
type UploadItem struct {
	Name        string
	MemberName  string
	Filename    string
	ContentType string
	Size        int64
	Image       io.Reader
}

// Upload is a batch registration for one edition.
type Upload struct {
	WorkID         string
	EditionID      string
	Items          []UploadItem
	IdempotencyKey string
}

// UploadResult summarises an accepted batch.
type UploadResult struct {
	Count   int
	Bytes   int64
	Message string
}

type statsPayload map[string]float64

func (p statsPayload) toStats() Stats {
	out := make(Stats, len(p))
	for k, v := range p {
		out[k] = int(math.Round(v))
	}
	return out
}

type randomItemPayload struct {
	ItemID     any    `json:"itemId"`
	EditionID  string `json:"editionId"`
	ItemType   string `json:"itemType"`
	MemberName string `json:"memberName"`
	ImageURL   string `json:"imageUrl"`
	CreatedAt  string `json:"createdAt"`
}

func (p randomItemPayload) toRandomItem() RandomItem {
	return RandomItem{
		ID:         idString(p.ItemID),
		EditionID:  defaultString(p.EditionID, ""),
		ItemType:   defaultString(p.ItemType, ""),
		MemberName: defaultString(p.MemberName, ""),
		ImageURL:   defaultString(p.ImageURL, ""),
		CreatedAt:  parseTime(p.CreatedAt),
	}
}

func toMasterWorks(records []catalog.Record) []MasterWork {
	out := make([]MasterWork, 0, len(records))
	for _, r := range records {
		if r.WorkID == "" {
			continue
		}
		out = append(out, MasterWork{ID: r.WorkID, Title: r.Title, Artist: r.Artist})
	}
	return out
}

func toMasterEditions(records []catalog.Record, fallbackLabel string) []MasterEdition {
	out := make([]MasterEdition, 0, len(records))
	for _, r := range records {
		if r.EditionID == "" {
			continue
		}
		out = append(out, MasterEdition{ID: r.EditionID, WorkID: r.WorkID, Label: r.EditionLabel(fallbackLabel)})
	}
	return out
}
