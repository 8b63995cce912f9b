package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one edition row of the catalog, flattened together with its work.
type Record struct {
	WorkID       string
	EditionID    string
	Title        string
	Subtitle     string
	Artist       string
	Country      string
	Category     string
	Categories   []string
	CategoryList bool
	DisplayName  string
	EditionName  string
	ReleaseRaw   string
	ReleaseDate  time.Time
	Price        *float64
	Currency     string
	Tracklist    string
	Benefit      string
	VideoContent string
	Remarks      string
	Purchased    bool
	HasPurchased bool
	Wishlist     bool
}

// WorkKey identifies the work a record belongs to. Records without a work id
// are grouped by title.
func (r Record) WorkKey() string {
	if r.WorkID != "" {
		return r.WorkID
	}
	return r.Title
}

// EditionLabel returns the name shown for the edition, or fallback when the
// record carries neither a display name nor an edition name.
func (r Record) EditionLabel(fallback string) string {
	switch {
	case r.DisplayName != "":
		return r.DisplayName
	case r.EditionName != "":
		return r.EditionName
	default:
		return fallback
	}
}

// HasPrice reports whether a non-zero price is known.
func (r Record) HasPrice() bool { return r.Price != nil && *r.Price != 0 }

// Released reports whether the release date parsed.
func (r Record) Released() bool { return !r.ReleaseDate.IsZero() }

// field name variants accepted from the backend, first match wins
var (
	keysWorkID      = []string{"discId", "disc_id"}
	keysEditionID   = []string{"editionId", "edition_id"}
	keysTitle       = []string{"title"}
	keysSubtitle    = []string{"titleSub", "title_sub"}
	keysArtist      = []string{"artist"}
	keysCountry     = []string{"country"}
	keysCategory    = []string{"category"}
	keysDisplayName = []string{"displayName", "display_name"}
	keysEditionName = []string{"editionName", "edition_name"}
	keysRelease     = []string{"releaseDate", "release_date"}
	keysPrice       = []string{"price"}
	keysCurrency    = []string{"currency"}
	keysTracklist   = []string{"tracklist"}
	keysBenefit     = []string{"benefit"}
	keysVideo       = []string{"videoContent", "video_content"}
	keysRemarks     = []string{"remarks"}
	keysPurchased   = []string{"purchased", "isPurchased", "IsPurchased"}
	keysHas         = []string{"hasPurchased"}
	keysWishlist    = []string{"wishlist", "isWishlist"}
)

var releaseLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006.01.02",
}

// DecodeRecords decodes a JSON array of catalog objects, tolerating the
// naming variants the backend emits.
func DecodeRecords(data []byte) ([]Record, error) {
	var raws []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("catalog: decode records: %w", err)
	}
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		out = append(out, Normalize(raw))
	}
	return out, nil
}

// Normalize maps one raw backend object onto a Record.
func Normalize(fields map[string]json.RawMessage) Record {
	rec := Record{
		WorkID:       stringField(fields, keysWorkID),
		EditionID:    stringField(fields, keysEditionID),
		Title:        stringField(fields, keysTitle),
		Subtitle:     stringField(fields, keysSubtitle),
		Artist:       stringField(fields, keysArtist),
		Country:      stringField(fields, keysCountry),
		DisplayName:  stringField(fields, keysDisplayName),
		EditionName:  stringField(fields, keysEditionName),
		ReleaseRaw:   stringField(fields, keysRelease),
		Currency:     stringField(fields, keysCurrency),
		Tracklist:    stringField(fields, keysTracklist),
		Benefit:      stringField(fields, keysBenefit),
		VideoContent: stringField(fields, keysVideo),
		Remarks:      stringField(fields, keysRemarks),
		Purchased:    boolField(fields, keysPurchased),
		HasPurchased: boolField(fields, keysHas),
		Wishlist:     boolField(fields, keysWishlist),
		Price:        numberField(fields, keysPrice),
	}
	rec.ReleaseDate = ParseReleaseDate(rec.ReleaseRaw)
	rec.Category, rec.Categories, rec.CategoryList = categoryField(fields)
	return rec
}

// ParseReleaseDate reads the calendar date of a release. The zero time is
// returned when the value is empty or unrecognized.
func ParseReleaseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	if len(raw) >= 10 {
		return ParseReleaseDate(raw[:10])
	}
	return time.Time{}
}

func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

func stringField(fields map[string]json.RawMessage, keys []string) string {
	v, ok := lookup(fields, keys)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func boolField(fields map[string]json.RawMessage, keys []string) bool {
	v, ok := lookup(fields, keys)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		parsed, err := strconv.ParseBool(strings.TrimSpace(s))
		return err == nil && parsed
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0
	}
	return false
}

func numberField(fields map[string]json.RawMessage, keys []string) *float64 {
	v, ok := lookup(fields, keys)
	if !ok {
		return nil
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

func categoryField(fields map[string]json.RawMessage) (string, []string, bool) {
	v, ok := lookup(fields, keysCategory)
	if !ok {
		return "", nil, false
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		cleaned := make([]string, 0, len(list))
		for _, c := range list {
			if c = strings.TrimSpace(c); c != "" {
				cleaned = append(cleaned, c)
			}
		}
		return strings.Join(cleaned, "/"), cleaned, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", nil, false
	}
	s = strings.TrimSpace(s)
	return s, SplitCategories(s), false
}

// SplitCategories splits slash-delimited category text into trimmed parts.
func SplitCategories(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitList splits a comma-separated field into its trimmed, non-empty items.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
