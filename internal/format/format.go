package format

import (
	"bytes"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a record carries no currency.
const DefaultCurrency = "JPY"

var currencySymbols = map[string]string{
	"¥": "JPY",
	"￥": "JPY",
	"円": "JPY",
	"₩": "KRW",
	"원": "KRW",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// CurrencyCode maps a raw currency value onto an ISO 4217 code. Symbols and
// lowercase codes are accepted; anything unknown yields fallback.
func CurrencyCode(raw, fallback string) string {
	if fallback == "" {
		fallback = DefaultCurrency
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if code, ok := currencySymbols[raw]; ok {
		return code
	}
	unit, err := currency.ParseISO(strings.ToUpper(raw))
	if err != nil {
		return fallback
	}
	return unit.String()
}

// Price renders an amount in the given currency with the grouping of lang.
func Price(amount float64, rawCurrency, fallback, lang string) string {
	unit, err := currency.ParseISO(CurrencyCode(rawCurrency, fallback))
	if err != nil {
		unit = currency.JPY
	}
	p := message.NewPrinter(languageTag(lang))
	if amount == math.Trunc(amount) {
		return p.Sprint(currency.Symbol(unit.Amount(int64(amount))))
	}
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}

// Date formats a release date in a locale-friendly short form.
func Date(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "ja":
		return t.Format("2006.01.02")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Ago describes how long ago t was, e.g. "3 minutes ago".
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Bytes renders a byte count for upload summaries.
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Percent rounds a share to a whole percentage between 0 and 100.
func Percent(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	v := int(math.Round(float64(part) * 100 / float64(total)))
	if v > 100 {
		return 100
	}
	return v
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
	policy   = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()
)

// Markdown renders remarks text to sanitized HTML.
func Markdown(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

func languageTag(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Japanese
	}
	return tag
}
