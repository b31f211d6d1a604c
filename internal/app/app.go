package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dxportal/internal/auth"
	"github.com/five82/dxportal/internal/config"
	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/export"
	"github.com/five82/dxportal/internal/prefs"
	"github.com/five82/dxportal/internal/state"
	"github.com/five82/dxportal/internal/ui"
)

// Options configure the dxportal application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/dxportal/prefs.toml
	ExportDir  string // overrides export_dir
	LogPath    string // overrides log_file
}

// Run boots the dxportal TUI until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ExportDir != "" {
		cfg.ExportDir = opts.ExportDir
	}
	if opts.LogPath != "" {
		cfg.LogPath = opts.LogPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	closeLog, err := openLog(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("init sign-in: %w", err)
	}

	client, err := dxapi.NewClient(cfg.ServerURL, provider, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	cache := datacache.New(client, datacache.Options{
		Readiness:      provider,
		Retry:          retryPolicy(cfg.RetryAttempts),
		DedupeInterval: cfg.DedupeInterval,
		Context:        ctx,
		Logger:         log.Default(),
	})

	// Keep refresh tokens exercised while the session sits on one screen.
	StartKeepAlive(ctx, provider, defaultKeepAliveInterval)

	log.Printf("dxportal starting against %s", cfg.ServerURL)
	return ui.Run(ui.Options{
		Context:   ctx,
		Server:    cfg.ServerURL,
		Provider:  provider,
		Cache:     cache,
		Writer:    client,
		Exporter:  export.New(cfg.ExportDir, export.Options{Logger: log.Default()}),
		Nav:       state.NewNavigation(),
		Settings:  state.NewSettingsStore(),
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Debounce:  cfg.SearchDebounce,
		MapsToken: cfg.MapsToken,
	})
}

// newProvider picks the sign-in mode. A configured token skips the device
// flow and opens every screen.
func newProvider(cfg config.Config) (auth.Provider, error) {
	if cfg.UsesStaticToken() {
		return auth.NewStaticProvider(cfg.Token, fullAccessClaims(cfg.ServerURL)), nil
	}
	return auth.NewDeviceProvider(auth.DeviceConfig{
		Domain:   cfg.AuthDomain,
		ClientID: cfg.AuthClientID,
		Audience: cfg.AuthAudience,
		HTTP:     &http.Client{Timeout: cfg.RequestTimeout},
	})
}

// fullAccessClaims grants every screen with all permissions.
func fullAccessClaims(server string) auth.Claims {
	controls := []string{
		state.ControlTests,
		state.ControlQC,
		state.ControlSystems,
		state.ControlLocations,
		state.ControlReports,
		state.ControlUsers,
		state.ControlSettings,
	}
	links := make([]any, len(controls))
	for i, c := range controls {
		links[i] = map[string]any{
			"name":        c,
			"controlName": c,
			"sortOrder":   strconv.Itoa(i + 1),
			"edit":        true,
			"add":         true,
			"delete":      true,
		}
	}
	return auth.Claims{
		"name": "API token",
		auth.Namespace(server) + "/userScreenAccess": links,
	}
}

func retryPolicy(attempts int) datacache.RetryPolicy {
	p := datacache.DefaultRetryPolicy()
	if attempts > 0 {
		p.MaxAttempts = attempts
	}
	return p
}

// openLog sends the standard logger to path, since the terminal belongs to
// the UI.
func openLog(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "dxportal")
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return func() { _ = f.Close() }, nil
}
