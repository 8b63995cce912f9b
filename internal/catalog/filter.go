package catalog

import (
	"net/url"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Wildcard is the facet value that disables a filter.
const Wildcard = "All"

// PurchaseFilter narrows the catalog by owned state.
type PurchaseFilter string

const (
	PurchaseAll  PurchaseFilter = "All"
	Purchased    PurchaseFilter = "Purchased"
	NotPurchased PurchaseFilter = "NotPurchased"
)

// SortOrder orders the grid by release date.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// Selection is the set of facet values chosen in the filter bar.
type Selection struct {
	Artist   string
	Country  string
	Category string
	Purchase PurchaseFilter
	Sort     SortOrder
	Query    string
}

// DefaultSelection shows everything, newest first.
func DefaultSelection() Selection {
	return Selection{
		Artist:   Wildcard,
		Country:  Wildcard,
		Category: Wildcard,
		Purchase: PurchaseAll,
		Sort:     SortDesc,
	}
}

// ParseSelection reads a selection from query or form values. Unknown values
// fall back to their defaults.
func ParseSelection(values url.Values) Selection {
	sel := DefaultSelection()
	if v := strings.TrimSpace(values.Get("artist")); v != "" {
		sel.Artist = v
	}
	if v := strings.TrimSpace(values.Get("country")); v != "" {
		sel.Country = v
	}
	if v := strings.TrimSpace(values.Get("category")); v != "" {
		sel.Category = v
	}
	switch PurchaseFilter(values.Get("purchased")) {
	case Purchased:
		sel.Purchase = Purchased
	case NotPurchased:
		sel.Purchase = NotPurchased
	}
	if SortOrder(strings.ToLower(values.Get("sort"))) == SortAsc {
		sel.Sort = SortAsc
	}
	sel.Query = strings.TrimSpace(values.Get("q"))
	return sel
}

// Values encodes the selection, omitting defaults so the canonical URL of the
// unfiltered catalog stays bare.
func (s Selection) Values() url.Values {
	v := url.Values{}
	if s.Artist != "" && s.Artist != Wildcard {
		v.Set("artist", s.Artist)
	}
	if s.Country != "" && s.Country != Wildcard {
		v.Set("country", s.Country)
	}
	if s.Purchase != "" && s.Purchase != PurchaseAll {
		v.Set("purchased", string(s.Purchase))
	}
	if s.Category != "" && s.Category != Wildcard {
		v.Set("category", s.Category)
	}
	if s.Sort == SortAsc {
		v.Set("sort", string(SortAsc))
	}
	if s.Query != "" {
		v.Set("q", s.Query)
	}
	return v
}

// Matches reports whether a single record passes every facet.
func (s Selection) Matches(r Record) bool {
	if s.Artist != "" && s.Artist != Wildcard && r.Artist != s.Artist {
		return false
	}
	if s.Country != "" && s.Country != Wildcard && r.Country != s.Country {
		return false
	}
	switch s.Purchase {
	case Purchased:
		if !r.Purchased {
			return false
		}
	case NotPurchased:
		if r.Purchased {
			return false
		}
	}
	if !s.matchCategory(r) {
		return false
	}
	if s.Query != "" {
		if !fuzzy.MatchNormalizedFold(s.Query, r.Title) && !fuzzy.MatchNormalizedFold(s.Query, r.Subtitle) {
			return false
		}
	}
	return true
}

func (s Selection) matchCategory(r Record) bool {
	if s.Category == "" || s.Category == Wildcard {
		return true
	}
	want := strings.ToLower(s.Category)
	if r.CategoryList {
		for _, c := range r.Categories {
			c = strings.ToLower(c)
			if c == want || (want == "album" && c == "mini") {
				return true
			}
		}
		return false
	}
	if r.Category == "" {
		return false
	}
	if strings.Contains(r.Category, s.Category) {
		return true
	}
	return want == "album" && strings.Contains(strings.ToLower(r.Category), "mini")
}

// Work is one grid card: the first matching edition of a work.
type Work struct {
	Record
	HasAnyPurchased bool
}

// Filter applies the selection to the snapshot, orders the survivors by
// release date and keeps the first edition per work. The purchase highlight
// considers every edition of the work in the snapshot, not only survivors.
func Filter(records []Record, sel Selection) []Work {
	owned := make(map[string]bool)
	for _, r := range records {
		if r.Purchased || r.HasPurchased {
			owned[r.WorkKey()] = true
		}
	}
	matched := make([]Record, 0, len(records))
	for _, r := range records {
		if sel.Matches(r) {
			matched = append(matched, r)
		}
	}
	SortByRelease(matched, sel.Sort)
	deduped := Dedupe(matched)
	out := make([]Work, 0, len(deduped))
	for _, r := range deduped {
		out = append(out, Work{Record: r, HasAnyPurchased: owned[r.WorkKey()]})
	}
	return out
}

// SortByRelease orders records by calendar date in place. The sort is stable
// and undated records always sort last.
func SortByRelease(records []Record, order SortOrder) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].ReleaseDate, records[j].ReleaseDate
		switch {
		case a.IsZero() && b.IsZero():
			return false
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		}
		if order == SortAsc {
			return a.Before(b)
		}
		return a.After(b)
	})
}

// Dedupe keeps the first record seen for each work.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := r.WorkKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// CategoryOptions lists the distinct category parts in first-seen order.
func CategoryOptions(records []Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		for _, c := range r.Categories {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Distinct returns the distinct non-empty values of a field in first-seen order.
func Distinct(records []Record, field func(Record) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Editions returns every record of the given work in snapshot order.
func Editions(records []Record, workKey string) []Record {
	var out []Record
	for _, r := range records {
		if r.WorkKey() == workKey {
			out = append(out, r)
		}
	}
	return out
}
