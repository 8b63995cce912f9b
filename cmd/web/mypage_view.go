package main

import (
	"strconv"
	"strings"

	"github.com/shinee-collection/tracker-web/internal/backend"
	"github.com/shinee-collection/tracker-web/internal/catalog"
	"github.com/shinee-collection/tracker-web/internal/format"
)

// MypagePage is the statistics and wishlist page.
type MypagePage struct {
	PageData
	Stats    StatsView
	Wishlist WishlistView
}

// StatsView is the statistics panel.
type StatsView struct {
	Failed    bool
	Total     string
	Members   []MeterView
	Countries []MeterView
	Badges    []BadgeView
}

// MeterView is one percentage bar.
type MeterView struct {
	Key     string
	Label   string
	Class   string
	Percent int
	Value   string
}

// BadgeView is one unlockable badge.
type BadgeView struct {
	ID       string
	Label    string
	Unlocked bool
}

// WishlistView is the wishlist panel.
type WishlistView struct {
	Failed bool
	Empty  bool
	Items  []WishlistItem
}

// WishlistItem is one wishlisted edition.
type WishlistItem struct {
	EditionID string
	Title     string
	Edition   string
	Artist    string
	Price     string
}

func (a *app) buildStats(lang string, stats backend.Stats) StatsView {
	sv := StatsView{Total: percentLabel(catalog.StatValue(stats, "total"))}
	for _, m := range a.roster.Members {
		label := m.Name
		if lang == "ja" && m.Label != "" {
			label = m.Label
		}
		sv.Members = append(sv.Members, meter(m.Name, label, "theme-"+strings.ToLower(m.Name), catalog.StatValue(stats, m.Name)))
	}
	for _, c := range a.roster.Countries {
		key := strings.ToLower(c.Code)
		label := c.Code
		if lang == "ja" && c.Label != "" {
			label = c.Label
		}
		sv.Countries = append(sv.Countries, meter(key, label, "", catalog.StatValue(stats, key)))
	}
	earned := a.roster.EarnedBadges(stats)
	for _, b := range a.roster.Badges {
		sv.Badges = append(sv.Badges, BadgeView{ID: b.ID, Label: b.Label, Unlocked: earned[b.ID]})
	}
	return sv
}

func meter(key, label, class string, value int) MeterView {
	return MeterView{
		Key:     key,
		Label:   label,
		Class:   class,
		Percent: format.Percent(value, 100),
		Value:   percentLabel(value),
	}
}

func percentLabel(v int) string {
	return strconv.Itoa(v) + "%"
}

func (a *app) buildWishlist(lang string, records []catalog.Record) WishlistView {
	wv := WishlistView{Empty: len(records) == 0}
	fallback := a.i18n.T(lang, "edition.default")
	sorted := append([]catalog.Record(nil), records...)
	catalog.SortByRelease(sorted, catalog.SortDesc)
	for _, r := range sorted {
		item := WishlistItem{
			EditionID: r.EditionID,
			Title:     r.Title,
			Edition:   r.EditionLabel(fallback),
			Artist:    r.Artist,
		}
		if r.HasPrice() {
			item.Price = format.Price(*r.Price, r.Currency, a.cfg.Views.DefaultCurrency, lang)
		}
		wv.Items = append(wv.Items, item)
	}
	return wv
}
