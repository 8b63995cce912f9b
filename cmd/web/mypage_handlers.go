package main

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shinee-collection/tracker-web/internal/backend"
	"github.com/shinee-collection/tracker-web/internal/catalog"
	mw "github.com/shinee-collection/tracker-web/internal/middleware"
	"github.com/shinee-collection/tracker-web/internal/observability"
)

// MypageHandler renders statistics, badges and the wishlist. The two panels
// load concurrently and fail independently.
func (a *app) MypageHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	logger := observability.FromContext(r.Context())

	var (
		stats    backend.Stats
		statsErr error
		wishlist []catalog.Record
		wlErr    error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		stats, statsErr = a.backend.Stats(ctx)
		return nil
	})
	g.Go(func() error {
		wishlist, wlErr = a.backend.Wishlist(ctx)
		return nil
	})
	_ = g.Wait()

	page := MypagePage{PageData: a.pageData(r, "mypage.title")}
	if statsErr != nil {
		logger.Warn("stats load failed", zap.Error(statsErr))
		page.Stats = StatsView{Failed: true}
	} else {
		page.Stats = a.buildStats(lang, stats)
	}
	if wlErr != nil {
		logger.Warn("wishlist load failed", zap.Error(wlErr))
		page.Wishlist = WishlistView{Failed: true}
	} else {
		page.Wishlist = a.buildWishlist(lang, wishlist)
	}
	a.renderPage(w, r, "mypage", page)
}
