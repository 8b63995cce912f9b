package backend

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shinee-collection/tracker-web/internal/catalog"
)

// PlaceholderRecords is the single record shown when the catalog cannot be
// fetched.
func PlaceholderRecords() []catalog.Record {
	price := 13000.0
	raw := catalog.Record{
		WorkID:       "d1",
		EditionID:    "e1",
		Title:        "Don't Call Me",
		Subtitle:     "7th Album",
		Artist:       "SHINee",
		Country:      "KR",
		ReleaseRaw:   "2021-02-22",
		Purchased:    true,
		DisplayName:  "Fake Reality Ver.",
		Price:        &price,
		Currency:     "₩",
		Tracklist:    "Don't Call Me,Heart Attack,Marry You",
		Benefit:      "Booklet 12P,Lyrics Paper,トレカ(全4種中1種ランダム)",
		VideoContent: "Music Video",
		Remarks:      "ジャケット：メンバー別4種",
	}
	raw.ReleaseDate = catalog.ParseReleaseDate(raw.ReleaseRaw)
	return []catalog.Record{raw}
}

type fakeBackend struct {
	mu      sync.Mutex
	records []catalog.Record
	items   []RandomItem
	nextID  int
}

func newFakeBackend() *fakeBackend {
	records := append(PlaceholderRecords(), sampleRecords()...)
	return &fakeBackend{
		records: records,
		items: []RandomItem{
			{ID: "1", EditionID: "e1", ItemType: "トレカ", MemberName: "Key", ImageURL: "/assets/sample-card.svg", CreatedAt: time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)},
		},
		nextID: 2,
	}
}

func sampleRecords() []catalog.Record {
	rows := []struct {
		work, edition, title, sub, artist, country, date, display, category, currency string
		price                                                                         float64
		purchased, wishlist                                                           bool
		tracklist, benefit                                                            string
	}{
		{"d1", "e2", "Don't Call Me", "7th Album", "SHINee", "KR", "2021-02-22", "Photo Book Ver.", "Album", "KRW", 15000, false, true, "Don't Call Me,Heart Attack,Marry You", "Booklet 80P"},
		{"d2", "e3", "Odd", "4th Album", "SHINee", "KR", "2015-05-18", "A Ver.", "Album", "KRW", 16500, true, false, "View,Odd Eye,Love Sick///Married to the Music,Savior", "Photo Card"},
		{"d3", "e4", "Superstar", "Japan Single", "SHINee", "JP", "2021-06-28", "初回限定盤", "Single", "JPY", 3300, false, false, "Superstar,Kiss Kiss", "トレカ(全5種中1種ランダム)"},
		{"d4", "e5", "Guilty", "4th Mini Album", "Taemin", "KR", "2023-10-30", "", "Mini/Album", "KRW", 18000, true, false, "Guilty,The Rizzness", ""},
		{"d5", "e6", "Circle", "1st Album", "Onew", "KR", "", "Photo Book Ver.", "Album", "", 0, false, true, "", ""},
	}
	out := make([]catalog.Record, 0, len(rows))
	for _, r := range rows {
		rec := catalog.Record{
			WorkID:      r.work,
			EditionID:   r.edition,
			Title:       r.title,
			Subtitle:    r.sub,
			Artist:      r.artist,
			Country:     r.country,
			ReleaseRaw:  r.date,
			ReleaseDate: catalog.ParseReleaseDate(r.date),
			DisplayName: r.display,
			Category:    r.category,
			Categories:  catalog.SplitCategories(r.category),
			Currency:    r.currency,
			Purchased:   r.purchased,
			Wishlist:    r.wishlist,
			Tracklist:   r.tracklist,
			Benefit:     r.benefit,
		}
		if r.price > 0 {
			p := r.price
			rec.Price = &p
		}
		out = append(out, rec)
	}
	return out
}

func (f *fakeBackend) discography() []catalog.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]catalog.Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f *fakeBackend) wishlist() []catalog.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Record
	for _, r := range f.records {
		if r.Wishlist {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeBackend) stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	type tally struct{ owned, all int }
	counts := map[string]*tally{}
	bump := func(key string, owned bool) {
		t, ok := counts[key]
		if !ok {
			t = &tally{}
			counts[key] = t
		}
		t.all++
		if owned {
			t.owned++
		}
	}
	owned := map[string]bool{}
	works := map[string]catalog.Record{}
	for _, r := range f.records {
		works[r.WorkKey()] = r
		owned[r.WorkKey()] = owned[r.WorkKey()] || r.Purchased
	}
	for key, r := range works {
		bump("total", owned[key])
		bump(r.Artist, owned[key])
		bump(strings.ToLower(r.Country), owned[key])
	}
	s := make(Stats, len(counts))
	for key, t := range counts {
		s[key] = int(math.Round(float64(t.owned) * 100 / float64(t.all)))
	}
	return s
}

func (f *fakeBackend) setFlag(kind, editionID string, value bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].EditionID != editionID {
			continue
		}
		switch kind {
		case "purchase":
			f.records[i].Purchased = value
		case "wishlist":
			f.records[i].Wishlist = value
		}
	}
}

func (f *fakeBackend) randomItems(editionID string) []RandomItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RandomItem
	for _, it := range f.items {
		if editionID == "" || it.EditionID == editionID {
			out = append(out, it)
		}
	}
	return out
}

func (f *fakeBackend) upload(up Upload) (UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, item := range up.Items {
		if item.Image != nil {
			n, err := io.Copy(io.Discard, item.Image)
			if err != nil {
				return UploadResult{}, err
			}
			total += n
		}
		f.items = append(f.items, RandomItem{
			ID:         fmt.Sprint(f.nextID),
			EditionID:  up.EditionID,
			ItemType:   item.Name,
			MemberName: item.MemberName,
			ImageURL:   "/assets/sample-card.svg",
			CreatedAt:  time.Now().UTC(),
		})
		f.nextID++
	}
	return UploadResult{Count: len(up.Items), Bytes: total}, nil
}
