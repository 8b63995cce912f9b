package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinee-collection/tracker-web/internal/testutil"
)

const singleRecordCatalog = `[{"discId":"w1","editionId":"x1","title":"Sherlock","artist":"SHINee","country":"KR","releaseDate":"2012-03-19","isPurchased":false,"isWishlist":false}]`

func TestCatalogPageListsWorksNewestFirst(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.get("/", false)
	require.Equal(t, http.StatusOK, res.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, []string{"Guilty", "Superstar", "Don't Call Me", "Odd", "Circle"}, cardTitles(doc))
	require.Equal(t, 3, doc.Find(".disc-item.is-purchased").Length())
	require.Equal(t, 2, doc.Find(".disc-item.not-purchased").Length())
	require.Equal(t, "All", doc.Find("#artistFilter option").First().AttrOr("value", ""))
	require.Equal(t, 1, doc.Find("#sortOrder option[value=desc][selected]").Length())
	require.Equal(t, 1, doc.Find(".notice-sample").Length())
}

func TestCatalogPageAppliesMemberTheme(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/?artist=Onew", false)

	doc := testutil.ParseHTML(t, body)
	class := doc.Find("body").AttrOr("class", "")
	require.Contains(t, class, "theme-onew")
	require.Contains(t, class, "member-mode")
	require.Equal(t, "Onew", doc.Find("#artistFilter option[selected]").AttrOr("value", ""))
	require.Equal(t, []string{"Circle"}, cardTitles(doc))
}

func TestCatalogGridFragPushesFilterURL(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.get("/catalog/grid?artist=Taemin&country=All&sort=desc", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "/?artist=Taemin", res.Header.Get("HX-Push-Url"))

	var theme struct {
		Classes []string `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(triggers(t, res)["collection:theme"], &theme))
	require.Equal(t, []string{"theme-taemin", "member-mode"}, theme.Classes)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, []string{"Guilty"}, cardTitles(doc))
}

func TestCatalogGridFragGroupResetsTheme(t *testing.T) {
	c := newTestApp(t, "")
	res, _ := c.get("/catalog/grid?artist=SHINee", true)

	var theme struct {
		Classes []string `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(triggers(t, res)["collection:theme"], &theme))
	require.Empty(t, theme.Classes)
}

func TestCatalogGridFragSearchAndAscending(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/catalog/grid?q=odd", true)
	require.Equal(t, []string{"Odd"}, cardTitles(testutil.ParseHTML(t, body)))

	res, body := c.get("/catalog/grid?sort=asc", true)
	require.Equal(t, "/?sort=asc", res.Header.Get("HX-Push-Url"))
	require.Equal(t, []string{"Odd", "Don't Call Me", "Superstar", "Guilty", "Circle"}, cardTitles(testutil.ParseHTML(t, body)))
}

func TestCatalogGridFragEmptySelection(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/catalog/grid?artist=Minho", true)
	doc := testutil.ParseHTML(t, body)
	require.Empty(t, cardTitles(doc))
	require.Equal(t, 1, doc.Find(".empty").Length())
}

func TestCatalogFallsBackToPlaceholder(t *testing.T) {
	be := jsonBackend(t, nil, nil)
	c := newTestApp(t, be.URL)
	res, body := c.get("/", false)
	require.Equal(t, http.StatusOK, res.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, []string{"Don't Call Me"}, cardTitles(doc))
	require.Equal(t, 1, doc.Find(".notice-error").Length())
}

func TestModalFragListsEditions(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.get("/works/d1/modal", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, triggers(t, res), "collection:modal-open")

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Don't Call Me", strings.TrimSpace(doc.Find(".modal-title").Text()))
	require.Equal(t, 2, doc.Find(".edition-box").Length())
	require.Equal(t, "Fake Reality Ver.", strings.TrimSpace(doc.Find(".edition-name").First().Text()))
	require.Equal(t, 1, doc.Find("#purchase-e1 input[checked]").Length())
	require.Equal(t, 0, doc.Find("#purchase-e2 input[checked]").Length())
	require.Equal(t, 1, doc.Find("#wishlist-e2.active").Length())
	require.Equal(t, 2, doc.Find(".edition-detail.hidden").Length())
}

func TestModalFragStandardEditionLabel(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/works/d4/modal", true)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Standard Edition", strings.TrimSpace(doc.Find(".edition-name").Text()))
}

func TestModalFragMissingWork(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.get("/works/"+url.PathEscape("no such work")+"/modal", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, triggers(t, res), "collection:modal-open")
	notice := testutil.ParseHTML(t, body).Find(".modal-missing")
	require.Equal(t, 1, notice.Length())
	require.Equal(t, "No editions were found for this work.", strings.TrimSpace(notice.Text()))

	// the missing work leaves no modal open for panel requests
	res, _ = c.get("/editions/e1/detail/info", true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestModalCloseHandler(t *testing.T) {
	c := newTestApp(t, "")
	c.get("/works/d1/modal", true)
	res, _ := c.post("/modal/close", url.Values{})
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Contains(t, triggers(t, res), "collection:modal-close")
}

func TestEditionDetailFragTogglesPanels(t *testing.T) {
	c := newTestApp(t, "")
	c.get("/works/d2/modal", true)

	res, body := c.get("/editions/e3/detail/tracklist", true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	doc := testutil.ParseHTML(t, body)
	panel := doc.Find("#detail-e3")
	require.False(t, panel.HasClass("hidden"))
	require.Equal(t, "tracklist", panel.AttrOr("data-panel", ""))
	require.Equal(t, []string{"DISC 1", "DISC 2"}, []string{
		strings.TrimSpace(doc.Find(".disc-label").Eq(0).Text()),
		strings.TrimSpace(doc.Find(".disc-label").Eq(1).Text()),
	})
	lists := doc.Find("ol.tracklist")
	require.Equal(t, 2, lists.Length())
	require.Equal(t, "01.", lists.Eq(0).Find(".track-no").First().Text())
	require.Equal(t, "01.", lists.Eq(1).Find(".track-no").First().Text())
	require.Equal(t, 3, lists.Eq(0).Find("li").Length())

	// switching kinds replaces the open panel
	_, body = c.get("/editions/e3/detail/info", true)
	doc = testutil.ParseHTML(t, body)
	require.Equal(t, "info", doc.Find("#detail-e3").AttrOr("data-panel", ""))
	require.Contains(t, doc.Find(".info-price").Text(), "16,500")
	require.Equal(t, "Photo Card", strings.TrimSpace(doc.Find(".info-benefit").Text()))

	// requesting the open panel closes it
	_, body = c.get("/editions/e3/detail/info", true)
	doc = testutil.ParseHTML(t, body)
	require.True(t, doc.Find("#detail-e3").HasClass("hidden"))
	require.Equal(t, "", doc.Find("#detail-e3").AttrOr("data-panel", "x"))
}

func TestEditionDetailFragSingleDiscAndEmpty(t *testing.T) {
	c := newTestApp(t, "")
	c.get("/works/d3/modal", true)
	_, body := c.get("/editions/e4/detail/track", true)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 0, doc.Find(".disc-label").Length())
	require.Equal(t, 2, doc.Find("ol.tracklist li").Length())

	c.get("/works/d5/modal", true)
	_, body = c.get("/editions/e6/detail/tracklist", true)
	require.Equal(t, "No Tracklist", strings.TrimSpace(testutil.ParseHTML(t, body).Find(".no-data").Text()))
}

func TestEditionDetailFragRendersRemarks(t *testing.T) {
	c := newTestApp(t, "")
	c.get("/works/d1/modal", true)
	_, body := c.get("/editions/e1/detail/info", true)
	doc := testutil.ParseHTML(t, body)
	require.Contains(t, doc.Find(".remarks-body").Text(), "ジャケット")
	require.Equal(t, 2, doc.Find(".info-benefit br").Length())
}

func TestEditionDetailFragNotFound(t *testing.T) {
	c := newTestApp(t, "")
	c.get("/works/d2/modal", true)
	res, _ := c.get("/editions/e3/detail/video", true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = c.get("/editions/nope/detail/info", true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	level, _ := alertOf(t, res)
	require.Equal(t, "error", level)
}

func TestWishlistToggleCommits(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.post("/editions/e3/wishlist", url.Values{"current": {"false"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	level, _ := alertOf(t, res)
	require.Empty(t, level)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("#wishlist-e3.active").Length())

	_, body = c.get("/mypage", false)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find(`.wishlist-item[data-edition-id="e3"]`).Length())
}

func TestPurchaseToggleUsesSnapshotWithoutCurrent(t *testing.T) {
	c := newTestApp(t, "")
	res, body := c.post("/editions/e2/purchase", url.Values{})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("#purchase-e2 input[checked]").Length())
}

func TestWishlistToggleRollsBackOnFailure(t *testing.T) {
	be := jsonBackend(t, map[string]string{"GET /api/shinee/discography": singleRecordCatalog}, nil)
	c := newTestApp(t, be.URL)

	res, body := c.post("/editions/x1/wishlist", url.Values{"current": {"false"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 0, testutil.ParseHTML(t, body).Find("#wishlist-x1.active").Length())
	level, msg := alertOf(t, res)
	require.Equal(t, "error", level)
	require.Equal(t, "Could not save. Please try again later.", msg)
}

func TestPurchaseToggleRollsBackOnFailure(t *testing.T) {
	be := jsonBackend(t, map[string]string{"GET /api/shinee/discography": singleRecordCatalog}, nil)
	c := newTestApp(t, be.URL)

	res, body := c.post("/editions/x1/purchase", url.Values{"current": {"true"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("#purchase-x1 input[checked]").Length())
	level, _ := alertOf(t, res)
	require.Equal(t, "error", level)
}

func TestPurchaseToggleSendsConfiguredField(t *testing.T) {
	var got map[string]bool
	be := jsonBackend(t, map[string]string{"GET /api/shinee/discography": singleRecordCatalog}, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch && r.URL.Path == "/api/editions/x1/purchase" {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestApp(t, be.URL)

	res, body := c.post("/editions/x1/purchase", url.Values{"current": {"false"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, map[string]bool{"isPurchased": true}, got)
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("#purchase-x1 input[checked]").Length())
	level, _ := alertOf(t, res)
	require.Empty(t, level)
}

func TestCatalogGridFragRedirectsPlainRequests(t *testing.T) {
	c := newTestApp(t, "")
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	res, _ := c.get("/catalog/grid?artist=Key&sort=asc", false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/?artist=Key&sort=asc", res.Header.Get("Location"))
}

func TestLanguageSwitchKeepsQuery(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/?artist=Key", false)
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "/?artist=Key&hl=en", doc.Find(".lang-switch a.active").AttrOr("href", ""))
	require.Equal(t, "/?artist=Key&hl=ja", doc.Find(".lang-switch a").Last().AttrOr("href", ""))
}

func TestEditionDetailFragRequiresOpenModalOfSameWork(t *testing.T) {
	c := newTestApp(t, "")
	res, _ := c.get("/editions/e3/detail/tracklist", true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	c.get("/works/d3/modal", true)
	res, _ = c.get("/editions/e3/detail/tracklist", true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	level, msg := alertOf(t, res)
	require.Equal(t, "error", level)
	require.Equal(t, "Not found.", msg)

	res, _ = c.get("/editions/e4/detail/tracklist", true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	c.post("/modal/close", url.Values{})
	res, _ = c.get("/editions/e4/detail/tracklist", true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestToggleControlsRevertOnFailedRequest(t *testing.T) {
	c := newTestApp(t, "")
	_, body := c.get("/works/d2/modal", true)
	doc := testutil.ParseHTML(t, body)

	wish := doc.Find("#wishlist-e3")
	require.Equal(t, "this.classList.toggle('active')", wish.AttrOr("hx-on::before-request", ""))
	require.Equal(t, "if(!event.detail.successful){this.classList.toggle('active')}", wish.AttrOr("hx-on::after-request", ""))

	box := doc.Find("#purchase-e3 input[type=checkbox]")
	require.Equal(t, "if(!event.detail.successful){this.checked=!this.checked}", box.AttrOr("hx-on::after-request", ""))

	_, page := c.get("/", false)
	require.Contains(t, string(page), `addEventListener("htmx:sendError"`)
	toast := testutil.ParseHTML(t, page).Find("#toast")
	require.Equal(t, "Could not reach the server. Please try again.", toast.AttrOr("data-network-message", ""))
}
