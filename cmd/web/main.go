package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shinee-collection/tracker-web/internal/backend"
	"github.com/shinee-collection/tracker-web/internal/catalog"
	"github.com/shinee-collection/tracker-web/internal/config"
	"github.com/shinee-collection/tracker-web/internal/i18n"
	mw "github.com/shinee-collection/tracker-web/internal/middleware"
	"github.com/shinee-collection/tracker-web/internal/mutation"
	"github.com/shinee-collection/tracker-web/internal/observability"
	"github.com/shinee-collection/tracker-web/internal/store"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file with local overrides")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Views.DevMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	reporter, flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Environment)
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	bundle, err := i18n.Load(os.DirFS(cfg.Views.LocalesDir), cfg.Views.FallbackLocale, []string{"ja", "en"})
	if err != nil {
		return err
	}

	mw.ConfigureSession(cfg.Session.SigningKey, cfg.Session.Secure)
	if cfg.Session.SigningKey == "" {
		logger.Warn("using ephemeral session signing key; set TRACKER_WEB_SESSION_SIGNING_KEY")
	}

	client := backend.NewClient(backend.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout,
		PurchaseField: cfg.Backend.PurchaseField,
		WishlistField: cfg.Backend.WishlistField,
	})
	if client.UsesSampleData() {
		logger.Info("no backend configured; serving sample data")
	}

	a, err := newApp(cfg, dependencies{
		Logger:   logger,
		Backend:  client,
		Reporter: reporter,
		Bundle:   bundle,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening", zap.String("addr", srv.Addr), zap.Bool("dev_mode", cfg.Views.DevMode), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Backend is the collection backend used by the handlers.
type Backend interface {
	store.Loader
	Stats(ctx context.Context) (backend.Stats, error)
	Wishlist(ctx context.Context) ([]catalog.Record, error)
	MasterWorks(ctx context.Context) ([]backend.MasterWork, error)
	MasterEditions(ctx context.Context, workID string) ([]backend.MasterEdition, error)
	RandomItems(ctx context.Context, editionID string) ([]backend.RandomItem, error)
	SetPurchased(ctx context.Context, editionID string, value bool) error
	SetWishlist(ctx context.Context, editionID string, value bool) error
	UploadRandomItems(ctx context.Context, up backend.Upload) (backend.UploadResult, error)
	UsesSampleData() bool
}

type dependencies struct {
	Logger   *zap.Logger
	Backend  Backend
	Reporter observability.Reporter
	Bundle   *i18n.Bundle
	Roster   *catalog.Roster
}

// app bundles the handler dependencies.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	backend  Backend
	store    *store.Store
	views    *views
	i18n     *i18n.Bundle
	roster   catalog.Roster
	reporter observability.Reporter
	purchase mutation.Toggle
	wishlist mutation.Toggle
}

func newApp(cfg config.Config, deps dependencies) (*app, error) {
	if deps.Backend == nil {
		return nil, errors.New("web: backend is required")
	}
	if deps.Bundle == nil {
		return nil, errors.New("web: i18n bundle is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Reporter == nil {
		deps.Reporter = observability.NopReporter{}
	}
	roster := catalog.DefaultRoster()
	if deps.Roster != nil {
		roster = *deps.Roster
	}
	v, err := newViews(cfg.Views.TemplatesDir, cfg.Views.DevMode, deps.Bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &app{
		cfg:      cfg,
		logger:   deps.Logger,
		backend:  deps.Backend,
		store:    store.New(deps.Backend, backend.PlaceholderRecords()),
		views:    v,
		i18n:     deps.Bundle,
		roster:   roster,
		reporter: deps.Reporter,
		purchase: mutation.Toggle{Name: "purchase", Commit: deps.Backend.SetPurchased, Reporter: deps.Reporter},
		wishlist: mutation.Toggle{Name: "wishlist", Commit: deps.Backend.SetWishlist, Reporter: deps.Reporter},
	}, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLogger(a.logger))
	r.Use(observability.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	assets := os.DirFS(filepath.Join(a.cfg.Views.PublicDir, "assets"))
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(assets, a.cfg.Views.DevMode)))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(mw.HTMX)
		r.Use(mw.Session)
		r.Use(mw.Locale(a.i18n))
		r.Use(mw.CSRF)

		r.Get("/", a.CatalogHandler)
		r.Get("/catalog/grid", a.CatalogGridFrag)
		r.Get("/works/{workID}/modal", a.ModalFrag)
		r.Post("/modal/close", a.ModalCloseHandler)
		r.Get("/editions/{editionID}/detail/{kind}", a.EditionDetailFrag)
		r.Post("/editions/{editionID}/purchase", a.PurchaseToggleHandler)
		r.Post("/editions/{editionID}/wishlist", a.WishlistToggleHandler)

		r.Get("/mypage", a.MypageHandler)

		r.Get("/random", a.RandomHandler)
		r.Get("/random/editions", a.RandomEditionsFrag)
		r.Get("/random/items", a.RandomItemsFrag)
		r.Get("/random/slot", a.RandomSlotFrag)
		r.Post("/random/upload", a.RandomUploadHandler)
	})
	return r
}
