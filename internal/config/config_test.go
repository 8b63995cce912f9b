package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv())
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 8*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "isPurchased", cfg.Backend.PurchaseField)
	require.Equal(t, "isWishlist", cfg.Backend.WishlistField)
	require.Equal(t, "JPY", cfg.Views.DefaultCurrency)
	require.Equal(t, "ja", cfg.Views.FallbackLocale)
	require.True(t, cfg.Views.DevMode)
	require.True(t, cfg.UsesSampleData())
}

func TestLoadPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TRACKER_WEB_PORT=9000\nTRACKER_WEB_BACKEND_URL=http://dotenv.local/\nTRACKER_WEB_LOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load(
		WithEnvFile(envPath),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"TRACKER_WEB_PORT": "9100", "TRACKER_WEB_BACKEND_TIMEOUT": "2s"}),
	)
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Server.Port)
	require.Equal(t, "http://dotenv.local", cfg.Backend.BaseURL)
	require.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.False(t, cfg.UsesSampleData())
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Parallel()

	_, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	require.NoError(t, err)
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	_, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"TRACKER_WEB_PORT":             "http",
		"TRACKER_WEB_BACKEND_URL":      "not a url",
		"TRACKER_WEB_DEFAULT_CURRENCY": "XXXX",
		"TRACKER_WEB_FALLBACK_LOCALE":  "fr",
		"TRACKER_WEB_ENV":              "prod",
	}))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.ElementsMatch(t, []string{
		"Server.Port",
		"Backend.BaseURL",
		"Views.DefaultCurrency",
		"Views.FallbackLocale",
		"Session.SigningKey",
	}, verr.Fields())
}
