package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shinee-collection/tracker-web/internal/i18n"
)

// Locale resolves the preferred language from ?hl=, the hl cookie or
// Accept-Language, and remembers it in the session.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(context.WithValue(ctx, ctxKeyBundle, bundle))
			w.Header().Add("Vary", "Accept-Language")
			s := GetSession(r)
			if q := strings.ToLower(r.URL.Query().Get("hl")); q != "" && bundle.IsSupported(q) {
				if s.Locale != q {
					s.Locale = q
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{Name: "hl", Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if s.Locale == "" || !bundle.IsSupported(s.Locale) {
				if c, err := r.Cookie("hl"); err == nil && bundle.IsSupported(strings.ToLower(c.Value)) {
					s.Locale = strings.ToLower(c.Value)
				} else {
					s.Locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.MarkDirty()
			}
			w.Header().Set("Content-Language", s.Locale)
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns the current language from the session, falling back to the
// bundle default and finally "ja".
func Lang(r *http.Request) string {
	if s := GetSession(r); s.Locale != "" {
		return s.Locale
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(string); ok && fb != "" {
		return fb
	}
	return "ja"
}

// T translates key into the request language. Without a bundle in the
// context the key itself is returned.
func T(r *http.Request, key string) string {
	bundle, ok := r.Context().Value(ctxKeyBundle).(*i18n.Bundle)
	if !ok || bundle == nil {
		return key
	}
	return bundle.T(Lang(r), key)
}
