package main

import (
	"strconv"

	"github.com/shinee-collection/tracker-web/internal/backend"
	"github.com/shinee-collection/tracker-web/internal/format"
)

// RandomPage is the random goods registration page.
type RandomPage struct {
	PageData
	MastersFailed bool
	Works         []backend.MasterWork
	Editions      EditionSelect
	Slots         []SlotView
	Gallery       GalleryView
}

// EditionSelect is the edition select fragment.
type EditionSelect struct {
	Lang     string
	Disabled bool
	Options  []EditionOption
}

// EditionOption is one selectable edition.
type EditionOption struct {
	ID    string
	Label string
}

// SlotView is one registration row.
type SlotView struct {
	N       int
	Lang    string
	Members []Option
}

// GalleryView lists registered items.
type GalleryView struct {
	Lang   string
	Failed bool
	Empty  bool
	Items  []GalleryItem
}

// GalleryItem is one registered item.
type GalleryItem struct {
	ID         string
	ImageURL   string
	ItemType   string
	MemberName string
	Added      string
}

func (a *app) buildEditionSelect(lang string, editions []backend.MasterEdition, disabled bool) EditionSelect {
	es := EditionSelect{Lang: lang, Disabled: disabled}
	if disabled {
		return es
	}
	fallback := a.i18n.T(lang, "edition.default")
	for _, ed := range editions {
		label := ed.Label
		if label == "" {
			label = fallback
		}
		es.Options = append(es.Options, EditionOption{ID: ed.ID, Label: label})
	}
	return es
}

func (a *app) buildSlot(lang string, n int) SlotView {
	sv := SlotView{N: n, Lang: lang}
	for _, s := range a.roster.Slots {
		label := s.Value
		if lang == "ja" && s.Label != "" {
			label = s.Label
		}
		sv.Members = append(sv.Members, Option{Value: s.Value, Label: label})
	}
	return sv
}

func buildGallery(lang string, items []backend.RandomItem, err error) GalleryView {
	if err != nil {
		return GalleryView{Lang: lang, Failed: true}
	}
	gv := GalleryView{Lang: lang, Empty: len(items) == 0}
	for _, it := range items {
		gv.Items = append(gv.Items, GalleryItem{
			ID:         it.ID,
			ImageURL:   it.ImageURL,
			ItemType:   it.ItemType,
			MemberName: it.MemberName,
			Added:      format.Ago(it.CreatedAt),
		})
	}
	return gv
}

// slotIndex parses a slot number; anything invalid yields false.
func slotIndex(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxSlots {
		return 0, false
	}
	return n, true
}
