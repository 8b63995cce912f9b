package main

import (
	"net/http"
	"net/url"
	"strings"

	mw "github.com/shinee-collection/tracker-web/internal/middleware"
)

// PageData carries the fields every full page needs.
type PageData struct {
	Title      string
	Lang       string
	Path       string
	CSRFToken  string
	BodyClass  string
	Nav        []NavItem
	Languages  []NavItem
	SampleData bool
}

// NavItem is one header link.
type NavItem struct {
	Href   string
	Label  string
	Active bool
}

// Option is a select option.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

func (a *app) pageData(r *http.Request, titleKey string) PageData {
	lang := mw.Lang(r)
	return PageData{
		Title:      a.i18n.T(lang, titleKey),
		Lang:       lang,
		Path:       r.URL.Path,
		CSRFToken:  mw.CSRFToken(r),
		Nav:        a.nav(lang, r.URL.Path),
		Languages:  a.languages(lang, r.URL),
		SampleData: a.backend.UsesSampleData(),
	}
}

func (a *app) nav(lang, path string) []NavItem {
	items := []NavItem{
		{Href: "/", Label: a.i18n.T(lang, "nav.catalog")},
		{Href: "/mypage", Label: a.i18n.T(lang, "nav.mypage")},
		{Href: "/random", Label: a.i18n.T(lang, "nav.random")},
	}
	for i := range items {
		if items[i].Href == "/" {
			items[i].Active = path == "/"
			continue
		}
		items[i].Active = strings.HasPrefix(path, items[i].Href)
	}
	return items
}

// languages links the current page in every supported language.
func (a *app) languages(lang string, u *url.URL) []NavItem {
	var out []NavItem
	for _, code := range a.i18n.Supported() {
		q := u.Query()
		q.Set("hl", code)
		out = append(out, NavItem{
			Href:   u.Path + "?" + q.Encode(),
			Label:  strings.ToUpper(code),
			Active: code == lang,
		})
	}
	return out
}

// alert sets an htmx toast using a translated message.
func (a *app) alert(w http.ResponseWriter, r *http.Request, level, key string, args ...any) {
	msg := a.i18n.T(mw.Lang(r), key)
	if len(args) > 0 {
		msg = a.i18n.Tf(mw.Lang(r), key, args...)
	}
	mw.TriggerAlert(w, level, msg)
}
