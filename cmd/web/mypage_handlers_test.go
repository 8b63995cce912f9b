package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinee-collection/tracker-web/internal/testutil"
)

func TestMypageShowsStatsBadgesAndWishlist(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.get("/mypage", false)
	require.Equal(t, http.StatusOK, res.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "60%", strings.TrimSpace(doc.Find("#total-rate").Text()))
	require.Equal(t, 5, doc.Find(".meters-members .meter").Length())
	require.Equal(t, "100%", strings.TrimSpace(doc.Find(`.meter[data-key="Taemin"] .meter-value`).Text()))
	require.True(t, doc.Find(`.meter[data-key="Taemin"]`).HasClass("theme-taemin"))
	require.Equal(t, "75%", strings.TrimSpace(doc.Find(`.meter[data-key="kr"] .meter-value`).Text()))

	require.True(t, doc.Find("#badge-hello").HasClass("unlocked"))
	require.True(t, doc.Find("#badge-odd").HasClass("unlocked"))
	require.True(t, doc.Find("#badge-jonghyun-poet").HasClass("locked"))

	items := doc.Find(".wishlist-item")
	require.Equal(t, 2, items.Length())
	require.Equal(t, "e2", items.First().AttrOr("data-edition-id", ""))
	require.Equal(t, "Photo Book Ver.", strings.TrimSpace(items.First().Find(".wishlist-edition").Text()))
	require.Contains(t, items.First().Find(".wishlist-price").Text(), "15,000")
}

func TestMypageJapaneseLabels(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/mypage?hl=ja", false)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "テミン", strings.TrimSpace(doc.Find(`.meter[data-key="Taemin"] .meter-label`).Text()))
	require.Equal(t, "日本盤", strings.TrimSpace(doc.Find(`.meter[data-key="jp"] .meter-label`).Text()))
}

func TestMypagePanelsFailIndependently(t *testing.T) {
	be := jsonBackend(t, map[string]string{"GET /api/editions/wishlist": `[]`}, nil)
	c := newTestApp(t, be.URL)

	res, body := c.get("/mypage", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("#stats .notice-error").Length())
	require.Equal(t, 0, doc.Find("#badge-hello").Length())
	require.Equal(t, "Your wishlist is empty.", strings.TrimSpace(doc.Find("#wishlist-container .empty").Text()))
}

func TestMypageWishlistFailure(t *testing.T) {
	be := jsonBackend(t, map[string]string{"GET /api/stats": `{"total": 100, "Jonghyun": 100, "KR": 99.6}`}, nil)
	c := newTestApp(t, be.URL)

	_, body := c.get("/mypage", false)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("#wishlist-container .notice-error").Length())
	require.True(t, doc.Find("#badge-jonghyun-poet").HasClass("unlocked"))
	require.Equal(t, "100%", strings.TrimSpace(doc.Find(`.meter[data-key="kr"] .meter-value`).Text()))
}
