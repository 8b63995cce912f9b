package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDiscographyNormalizesRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/shinee/discography", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"disc_id":"d9","edition_id":"e9","title":"Atlantis","release_date":"2021-04-12","isPurchased":true,"category":["Album"]}]`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL + "/"})
	require.False(t, c.UsesSampleData())

	recs, err := c.ListDiscography(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "d9", recs[0].WorkID)
	require.True(t, recs[0].Purchased)
	require.True(t, recs[0].CategoryList)
}

func TestGetReturnsStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(Options{BaseURL: srv.URL}).Stats(context.Background())
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadGateway, se.Status)
	require.Equal(t, "boom", se.Body)
	require.False(t, IsNotFound(err))
}

func TestStatsRoundsValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total":12,"Key":66.6,"jp":5}`)
	}))
	t.Cleanup(srv.Close)

	stats, err := NewClient(Options{BaseURL: srv.URL}).Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{"total": 12, "Key": 67, "jp": 5}, stats)
}

func TestSetFlagsSendConfiguredFieldNames(t *testing.T) {
	t.Parallel()

	type call struct {
		path string
		body map[string]bool
	}
	calls := make(chan call, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls <- call{path: r.URL.Path, body: body}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL, PurchaseField: "purchased"})
	require.NoError(t, c.SetPurchased(context.Background(), "e1", true))
	require.NoError(t, c.SetWishlist(context.Background(), "e1", false))

	first := <-calls
	require.Equal(t, "/api/editions/e1/purchase", first.path)
	require.Equal(t, map[string]bool{"purchased": true}, first.body)
	second := <-calls
	require.Equal(t, "/api/editions/e1/wishlist", second.path)
	require.Equal(t, map[string]bool{"isWishlist": false}, second.body)

	require.ErrorIs(t, c.SetPurchased(context.Background(), " ", true), ErrMissingEditionID)
}

func TestMasterEditionsQueriesByWork(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/master/editions", r.URL.Path)
		require.Equal(t, "d1", r.URL.Query().Get("discId"))
		_, _ = io.WriteString(w, `[{"editionId":"e1","discId":"d1","editionName":"通常盤"},{"editionId":"e2","discId":"d1","displayName":"B Ver."}]`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL})
	eds, err := c.MasterEditions(context.Background(), "d1")
	require.NoError(t, err)
	require.Equal(t, []MasterEdition{{ID: "e1", WorkID: "d1", Label: "通常盤"}, {ID: "e2", WorkID: "d1", Label: "B Ver."}}, eds)

	none, err := c.MasterEditions(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestRandomItemsDecodesNumericIDs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "e1", r.URL.Query().Get("editionId"))
		_, _ = io.WriteString(w, `[{"itemId":42,"editionId":"e1","itemType":"トレカ","memberName":"Minho","imageUrl":"https://img/1.jpg","createdAt":"2024-01-02T03:04:05"}]`)
	}))
	t.Cleanup(srv.Close)

	items, err := NewClient(Options{BaseURL: srv.URL}).RandomItems(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "42", items[0].ID)
	require.Equal(t, "Minho", items[0].MemberName)
	require.Equal(t, 2024, items[0].CreatedAt.Year())
}

func TestUploadRandomItemsSendsMultipartForm(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/random/upload", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "d1", r.FormValue("discId"))
		require.Equal(t, "e1", r.FormValue("editionId"))
		require.Equal(t, []string{"トレカ", "ポストカード"}, r.MultipartForm.Value["names"])
		require.Equal(t, []string{"Key", "Group"}, r.MultipartForm.Value["memberNames"])
		files := r.MultipartForm.File["images"]
		require.Len(t, files, 2)
		require.Equal(t, "a.jpg", files[0].Filename)
		_, _ = io.WriteString(w, "saved 2")
	}))
	t.Cleanup(srv.Close)

	res, err := NewClient(Options{BaseURL: srv.URL}).UploadRandomItems(context.Background(), Upload{
		WorkID:    "d1",
		EditionID: "e1",
		Items: []UploadItem{
			{Name: "トレカ", MemberName: "Key", Filename: "a.jpg", ContentType: "image/jpeg", Image: strings.NewReader("jpeg-bytes")},
			{Name: "ポストカード", MemberName: "Group", Filename: "b.png", ContentType: "image/png", Image: strings.NewReader("png")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	require.EqualValues(t, len("jpeg-bytes")+len("png"), res.Bytes)
	require.Equal(t, "saved 2", res.Message)
}

func TestUploadRejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	c := NewClient(Options{})
	_, err := c.UploadRandomItems(context.Background(), Upload{EditionID: "e1"})
	require.ErrorIs(t, err, ErrEmptyUpload)
	_, err = c.UploadRandomItems(context.Background(), Upload{Items: []UploadItem{{Name: "x"}}})
	require.ErrorIs(t, err, ErrMissingEditionID)
}

func TestSampleDataClient(t *testing.T) {
	t.Parallel()

	c := NewClient(Options{})
	require.True(t, c.UsesSampleData())
	ctx := context.Background()

	recs, err := c.ListDiscography(ctx)
	require.NoError(t, err)
	require.Equal(t, "Don't Call Me", recs[0].Title)

	require.NoError(t, c.SetWishlist(ctx, "e3", true))
	wl, err := c.Wishlist(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range wl {
		ids = append(ids, r.EditionID)
	}
	require.Contains(t, ids, "e3")

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Positive(t, stats["total"])

	res, err := c.UploadRandomItems(ctx, Upload{EditionID: "e2", Items: []UploadItem{{Name: "トレカ", MemberName: "Onew", Image: strings.NewReader("abc")}}})
	require.NoError(t, err)
	require.EqualValues(t, 3, res.Bytes)
	items, err := c.RandomItems(ctx, "e2")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestPlaceholderRecord(t *testing.T) {
	t.Parallel()

	recs := PlaceholderRecords()
	require.Len(t, recs, 1)
	r := recs[0]
	require.Equal(t, "d1", r.WorkID)
	require.Equal(t, "e1", r.EditionID)
	require.Equal(t, "Fake Reality Ver.", r.DisplayName)
	require.True(t, r.Purchased)
	require.Equal(t, 13000.0, *r.Price)
	require.Equal(t, "₩", r.Currency)
}
