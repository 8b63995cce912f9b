package main

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shinee-collection/tracker-web/internal/catalog"
	mw "github.com/shinee-collection/tracker-web/internal/middleware"
	"github.com/shinee-collection/tracker-web/internal/mutation"
	"github.com/shinee-collection/tracker-web/internal/observability"
)

const (
	themeEvent      = "collection:theme"
	modalOpenEvent  = "collection:modal-open"
	modalCloseEvent = "collection:modal-close"
)

// CatalogHandler renders the discography page. Every full page load fetches
// the catalog again so purchase highlights reflect the backend.
func (a *app) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	snap, err := a.store.Load(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Warn("catalog load failed; serving placeholder", zap.Error(err))
	}
	sel := catalog.ParseSelection(r.URL.Query())

	page := CatalogPage{
		PageData: a.pageData(r, "catalog.title"),
		Filters:  a.buildFilterBar(lang, sel, snap),
		Grid:     a.buildGrid(lang, sel, snap),
	}
	page.BodyClass = strings.Join(a.roster.ThemeClasses(sel.Artist), " ")
	a.renderPage(w, r, "catalog", page)
}

// CatalogGridFrag re-renders the grid for the submitted filters.
func (a *app) CatalogGridFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	snap, err := a.store.Ensure(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Warn("catalog load failed; serving placeholder", zap.Error(err))
	}
	sel := catalog.ParseSelection(r.URL.Query())

	push := "/"
	if q := sel.Values().Encode(); q != "" {
		push += "?" + q
	}
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, push, http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Push-Url", push)
	classes := a.roster.ThemeClasses(sel.Artist)
	if classes == nil {
		classes = []string{}
	}
	mw.Trigger(w, themeEvent, map[string]any{"classes": classes})
	a.renderTemplate(w, r, "frag_catalog_grid", a.buildGrid(lang, sel, snap))
}

// ModalFrag opens the detail modal of a work.
func (a *app) ModalFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	workKey, err := url.PathUnescape(chi.URLParam(r, "workID"))
	if err != nil {
		workKey = chi.URLParam(r, "workID")
	}
	snap, _ := a.store.Ensure(r.Context())
	editions := snap.Editions(workKey)
	if len(editions) == 0 {
		observability.FromContext(r.Context()).Warn("no editions for work", zap.String("work_id", workKey))
		mw.GetSession(r).CloseModal()
		mw.Trigger(w, modalOpenEvent, map[string]string{"work": workKey})
		a.renderTemplate(w, r, "frag_modal_missing", MissingView{Lang: lang})
		return
	}

	sess := mw.GetSession(r)
	sess.OpenModal(workKey)
	mw.Trigger(w, modalOpenEvent, map[string]string{"work": workKey})
	a.renderTemplate(w, r, "frag_modal", a.buildModal(lang, editions, sess.Modal))
}

// ModalCloseHandler discards the modal state.
func (a *app) ModalCloseHandler(w http.ResponseWriter, r *http.Request) {
	mw.GetSession(r).CloseModal()
	mw.Trigger(w, modalCloseEvent, map[string]string{})
	w.WriteHeader(http.StatusNoContent)
}

// EditionDetailFrag toggles the tracklist or info panel of an edition.
func (a *app) EditionDetailFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	kind, ok := catalog.ParsePanelKind(chi.URLParam(r, "kind"))
	if !ok {
		mw.WriteError(w, r, http.StatusNotFound, a.i18n.T(lang, "alert.not_found"))
		return
	}
	editionID := chi.URLParam(r, "editionID")
	snap, _ := a.store.Ensure(r.Context())
	ed, found := snap.Edition(editionID)
	sess := mw.GetSession(r)
	if !found || !sess.Modal.IsOpen() || ed.WorkKey() != sess.Modal.WorkID {
		mw.WriteError(w, r, http.StatusNotFound, a.i18n.T(lang, "alert.not_found"))
		return
	}

	shown := sess.TogglePanel(editionID, kind)
	a.renderTemplate(w, r, "frag_edition_detail", a.buildDetail(lang, ed, shown))
}

// PurchaseToggleHandler flips the purchased flag of an edition.
func (a *app) PurchaseToggleHandler(w http.ResponseWriter, r *http.Request) {
	view, ok := a.applyFlag(w, r, a.purchase, func(rec catalog.Record) bool { return rec.Purchased })
	if !ok {
		return
	}
	a.renderTemplate(w, r, "frag_purchase_toggle", view)
}

// WishlistToggleHandler flips the wishlist flag of an edition.
func (a *app) WishlistToggleHandler(w http.ResponseWriter, r *http.Request) {
	view, ok := a.applyFlag(w, r, a.wishlist, func(rec catalog.Record) bool { return rec.Wishlist })
	if !ok {
		return
	}
	a.renderTemplate(w, r, "frag_wishlist_button", view)
}

// applyFlag runs an optimistic toggle starting from the value the client
// displayed. When the client sent none, the snapshot value is used.
func (a *app) applyFlag(w http.ResponseWriter, r *http.Request, toggle mutation.Toggle, stored func(catalog.Record) bool) (FlagView, bool) {
	lang := mw.Lang(r)
	if err := r.ParseForm(); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, a.i18n.T(lang, "alert.invalid_form"))
		return FlagView{}, false
	}
	editionID := chi.URLParam(r, "editionID")
	if editionID == "" {
		mw.WriteError(w, r, http.StatusNotFound, a.i18n.T(lang, "alert.not_found"))
		return FlagView{}, false
	}

	current, err := strconv.ParseBool(r.PostFormValue("current"))
	if err != nil {
		snap := a.store.Snapshot()
		rec, found := snap.Edition(editionID)
		if !found {
			mw.WriteError(w, r, http.StatusNotFound, a.i18n.T(lang, "alert.not_found"))
			return FlagView{}, false
		}
		current = stored(rec)
	}

	res := toggle.Apply(r.Context(), editionID, &current)
	if res.RolledBack() {
		a.alert(w, r, "error", "alert.save_failed")
	}
	return FlagView{Lang: lang, EditionID: editionID, Active: current}, true
}
