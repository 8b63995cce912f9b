package main

import (
	"html/template"
	"net/url"
	"slices"

	"github.com/shinee-collection/tracker-web/internal/catalog"
	"github.com/shinee-collection/tracker-web/internal/format"
	"github.com/shinee-collection/tracker-web/internal/store"
)

// CatalogPage is the full discography page.
type CatalogPage struct {
	PageData
	Filters FilterBar
	Grid    GridView
}

// FilterBar holds the options of every facet select.
type FilterBar struct {
	Lang       string
	Artists    []Option
	Countries  []Option
	Purchase   []Option
	Categories []Option
	Sorts      []Option
	Query      string
}

// GridView is the card grid fragment.
type GridView struct {
	Lang     string
	Cards    []CardView
	Count    int
	Empty    bool
	Fallback bool
	Updated  string
}

// CardView is one work card.
type CardView struct {
	WorkKey   string
	Title     string
	Subtitle  string
	Artist    string
	Country   string
	Released  string
	ModalURL  string
	Purchased bool
	Class     string
}

// ModalView is the detail modal of one work.
type ModalView struct {
	Lang     string
	WorkKey  string
	Title    string
	Subtitle string
	Artist   string
	Editions []EditionRow
}

// EditionRow is one edition line inside the modal.
type EditionRow struct {
	Lang     string
	ID       string
	Label    string
	Purchase FlagView
	Wishlist FlagView
	Detail   DetailView
}

// FlagView renders a purchase checkbox or wishlist button.
type FlagView struct {
	Lang      string
	EditionID string
	Active    bool
}

// DetailView is the expandable panel under an edition row.
type DetailView struct {
	Lang      string
	EditionID string
	Kind      catalog.PanelKind
	Open      bool
	Tracklist catalog.Tracklist
	Info      InfoView
}

// InfoView holds the info panel content.
type InfoView struct {
	Price    string
	Benefits []string
	Video    []string
	Remarks  template.HTML
}

// Empty reports whether the info panel has nothing to show.
func (v InfoView) Empty() bool {
	return v.Price == "" && len(v.Benefits) == 0 && len(v.Video) == 0 && v.Remarks == ""
}

// MissingView is the notice for a work without editions.
type MissingView struct {
	Lang string
}

func (a *app) buildFilterBar(lang string, sel catalog.Selection, snap store.Snapshot) FilterBar {
	fb := FilterBar{Lang: lang, Query: sel.Query}

	fb.Artists = append(fb.Artists, Option{Value: catalog.Wildcard, Label: a.i18n.T(lang, "filter.artist.all")})
	artists := a.roster.Artists()
	for _, extra := range catalog.Distinct(snap.Records, func(r catalog.Record) string { return r.Artist }) {
		if !slices.Contains(artists, extra) {
			artists = append(artists, extra)
		}
	}
	for _, name := range artists {
		fb.Artists = append(fb.Artists, Option{Value: name, Label: name})
	}

	fb.Countries = append(fb.Countries, Option{Value: catalog.Wildcard, Label: a.i18n.T(lang, "filter.country.all")})
	var codes []string
	for _, c := range a.roster.Countries {
		fb.Countries = append(fb.Countries, Option{Value: c.Code, Label: c.Code})
		codes = append(codes, c.Code)
	}
	for _, extra := range catalog.Distinct(snap.Records, func(r catalog.Record) string { return r.Country }) {
		if !slices.Contains(codes, extra) {
			fb.Countries = append(fb.Countries, Option{Value: extra, Label: extra})
		}
	}

	fb.Purchase = []Option{
		{Value: string(catalog.PurchaseAll), Label: a.i18n.T(lang, "filter.purchased.all")},
		{Value: string(catalog.Purchased), Label: a.i18n.T(lang, "filter.purchased.yes")},
		{Value: string(catalog.NotPurchased), Label: a.i18n.T(lang, "filter.purchased.no")},
	}

	fb.Categories = append(fb.Categories, Option{Value: catalog.Wildcard, Label: a.i18n.T(lang, "filter.category.all")})
	for _, c := range catalog.CategoryOptions(snap.Records) {
		fb.Categories = append(fb.Categories, Option{Value: c, Label: c})
	}

	fb.Sorts = []Option{
		{Value: string(catalog.SortDesc), Label: a.i18n.T(lang, "filter.sort.desc")},
		{Value: string(catalog.SortAsc), Label: a.i18n.T(lang, "filter.sort.asc")},
	}

	markSelected(fb.Artists, sel.Artist)
	markSelected(fb.Countries, sel.Country)
	markSelected(fb.Purchase, string(sel.Purchase))
	markSelected(fb.Categories, sel.Category)
	markSelected(fb.Sorts, string(sel.Sort))
	return fb
}

func (a *app) buildGrid(lang string, sel catalog.Selection, snap store.Snapshot) GridView {
	works := catalog.Filter(snap.Records, sel)
	gv := GridView{
		Lang:     lang,
		Count:    len(works),
		Empty:    len(works) == 0,
		Fallback: snap.Fallback,
		Updated:  format.Ago(snap.LoadedAt),
		Cards:    make([]CardView, 0, len(works)),
	}
	for _, w := range works {
		class := "disc-item not-purchased"
		if w.HasAnyPurchased {
			class = "disc-item is-purchased"
		}
		gv.Cards = append(gv.Cards, CardView{
			WorkKey:   w.WorkKey(),
			Title:     w.Title,
			Subtitle:  w.Subtitle,
			Artist:    w.Artist,
			Country:   w.Country,
			Released:  format.Date(w.ReleaseDate, lang),
			ModalURL:  "/works/" + url.PathEscape(w.WorkKey()) + "/modal",
			Purchased: w.HasAnyPurchased,
			Class:     class,
		})
	}
	return gv
}

func (a *app) buildModal(lang string, editions []catalog.Record, state catalog.ModalState) ModalView {
	first := editions[0]
	mv := ModalView{
		Lang:     lang,
		WorkKey:  first.WorkKey(),
		Title:    first.Title,
		Subtitle: first.Subtitle,
		Artist:   first.Artist,
		Editions: make([]EditionRow, 0, len(editions)),
	}
	fallback := a.i18n.T(lang, "edition.default")
	for _, ed := range editions {
		mv.Editions = append(mv.Editions, EditionRow{
			Lang:     lang,
			ID:       ed.EditionID,
			Label:    ed.EditionLabel(fallback),
			Purchase: FlagView{Lang: lang, EditionID: ed.EditionID, Active: ed.Purchased},
			Wishlist: FlagView{Lang: lang, EditionID: ed.EditionID, Active: ed.Wishlist},
			Detail:   a.buildDetail(lang, ed, state.Panel(ed.EditionID)),
		})
	}
	return mv
}

func (a *app) buildDetail(lang string, ed catalog.Record, kind catalog.PanelKind) DetailView {
	dv := DetailView{Lang: lang, EditionID: ed.EditionID, Kind: kind, Open: kind != catalog.PanelNone}
	switch kind {
	case catalog.PanelTracklist:
		dv.Tracklist = catalog.ParseTracklist(ed.Tracklist)
	case catalog.PanelInfo:
		dv.Info = a.buildInfo(lang, ed)
	}
	return dv
}

func (a *app) buildInfo(lang string, ed catalog.Record) InfoView {
	info := InfoView{
		Benefits: catalog.SplitList(ed.Benefit),
		Video:    catalog.SplitList(ed.VideoContent),
		Remarks:  format.Markdown(ed.Remarks),
	}
	if ed.HasPrice() {
		info.Price = format.Price(*ed.Price, ed.Currency, a.cfg.Views.DefaultCurrency, lang)
	}
	return info
}

func markSelected(opts []Option, value string) {
	for i := range opts {
		opts[i].Selected = opts[i].Value == value
	}
}
