package state

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultDateFormat = "MM-DD-YYYY"
	DefaultTimeZone   = "America/New_York"

	timeFormat24 = "HH:mm:ss"
	timeFormat12 = "hh:mm:ss a"
)

// Keyword is one selectable option in the portal's settings lists.
type Keyword struct {
	ID   int    `json:"keywordID"`
	Text string `json:"keywordText"`
}

// Settings are the user's display preferences as carried by the settings
// claim. Formats are either given as text or by id into the option lists.
type Settings struct {
	DateFormat   string      `json:"dateFormat"`
	TimeFormat   string      `json:"timeFormat"`
	TimeZone     string      `json:"timeZone"`
	DateFormatID int         `json:"dateFormatID"`
	TimeFormatID int         `json:"timeFormatID"`
	DateFormats  []Keyword   `json:"dateFormats"`
	TimeFormats  []Keyword   `json:"timeFormats"`
	LoginTimeout json.Number `json:"loginTimeout"`
	LanguageCode string      `json:"languageCode"`
}

// IdleTimeout is how long the session may sit idle before it is signed
// out. Zero disables the idle sign-out.
func (s Settings) IdleTimeout() time.Duration {
	minutes, err := s.LoginTimeout.Int64()
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func (s Settings) clone() Settings {
	s.DateFormats = slices.Clone(s.DateFormats)
	s.TimeFormats = slices.Clone(s.TimeFormats)
	return s
}

func (s Settings) dateFormat() string {
	if s.DateFormat != "" {
		return s.DateFormat
	}
	if text := lookupKeyword(s.DateFormats, s.DateFormatID); text != "" {
		return text
	}
	return DefaultDateFormat
}

func (s Settings) timeFormat() string {
	text := s.TimeFormat
	if text == "" {
		text = lookupKeyword(s.TimeFormats, s.TimeFormatID)
	}
	if text == "24 hour" {
		return timeFormat24
	}
	return timeFormat12
}

func lookupKeyword(list []Keyword, id int) string {
	for _, kw := range list {
		if kw.ID == id {
			return kw.Text
		}
	}
	return ""
}

// SettingsStore holds the signed-in user's settings.
type SettingsStore struct {
	*Store[Settings]
}

// NewSettingsStore returns a store with empty settings, which format with
// the defaults.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{Store: NewStore(Settings{}, Settings.clone)}
}

// Formatter returns a formatter for the current settings.
func (s *SettingsStore) Formatter() (*Formatter, error) {
	return NewFormatter(s.Get())
}

// Formatter renders instants in the user's time zone and formats.
type Formatter struct {
	dateLayout string
	timeLayout string
	loc        *time.Location
}

// NewFormatter builds a formatter from settings. An unknown time zone is
// an error.
func NewFormatter(s Settings) (*Formatter, error) {
	tz := s.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", tz, err)
	}
	return &Formatter{
		dateLayout: ConvertLayout(s.dateFormat()),
		timeLayout: ConvertLayout(s.timeFormat()),
		loc:        loc,
	}, nil
}

// Location returns the formatter's time zone.
func (f *Formatter) Location() *time.Location { return f.loc }

// DateTime formats t as date and time. The zero time formats as "".
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(f.dateLayout + " " + f.timeLayout)
}

// Date formats the date part of t.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(f.dateLayout)
}

// Longest tokens first so "MMMM" wins over "MM".
var layoutTokens = []struct{ moment, goLayout string }{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"hh", "03"},
	{"mm", "04"},
	{"ss", "05"},
	{"M", "1"},
	{"D", "2"},
	{"H", "15"},
	{"h", "3"},
	{"m", "4"},
	{"s", "5"},
	{"a", "pm"},
	{"A", "PM"},
	{"Z", "-07:00"},
}

// ConvertLayout translates a moment.js style layout such as
// "MM-DD-YYYY hh:mm:ss a" into a Go reference layout.
func ConvertLayout(layout string) string {
	var b strings.Builder
	for i := 0; i < len(layout); {
		matched := false
		for _, tok := range layoutTokens {
			if strings.HasPrefix(layout[i:], tok.moment) {
				b.WriteString(tok.goLayout)
				i += len(tok.moment)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(layout[i])
			i++
		}
	}
	return b.String()
}
