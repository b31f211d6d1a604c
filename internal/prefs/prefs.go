// Package prefs persists dxportal's user preferences in
// ~/.config/dxportal/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the choices that survive a restart.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastScreen is reopened after sign-in when the user still has access.
	LastScreen string `toml:"last_screen"`
	// NoticeFilter is one of "unread", "read" or "all".
	NoticeFilter string `toml:"notice_filter"`
}

const (
	defaultPrefsPath    = "~/.config/dxportal/prefs.toml"
	defaultTheme        = "Nightfox"
	defaultNoticeFilter = "unread"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, NoticeFilter: defaultNoticeFilter}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem reading them yields the
// defaults, since preferences are never worth refusing to start over.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default()
	}
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return Default()
	}
	p := Default()
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Default()
	}
	return p.normalize()
}

func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastScreen = strings.TrimSpace(p.LastScreen)
	switch strings.ToLower(strings.TrimSpace(p.NoticeFilter)) {
	case "read":
		p.NoticeFilter = "read"
	case "all":
		p.NoticeFilter = "all"
	default:
		p.NoticeFilter = defaultNoticeFilter
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	bytes, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
