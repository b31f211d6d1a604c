package ui

import (
	"encoding/json"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/state"
)

func TestLayoutColumns(t *testing.T) {
	headers := []pages.Header{
		{ID: "time", Width: 20},
		{ID: "name"},
		{ID: "info"},
		{ID: "More", Width: 3},
	}
	// 100 - checkbox 4 - gaps 3 - fixed 23 = 70 shared by two columns
	widths := layoutColumns(headers, 100)
	want := []int{20, 35, 35, 3}
	for i := range want {
		if widths[i] != want[i] {
			t.Fatalf("widths = %v, want %v", widths, want)
		}
	}

	narrow := layoutColumns(headers, 40)
	if narrow[1] != minFlexWidth || narrow[2] != minFlexWidth {
		t.Fatalf("flexible columns = %v, want at least %d", narrow, minFlexWidth)
	}
}

func TestLayoutColumnsSpreadsRemainder(t *testing.T) {
	widths := layoutColumns([]pages.Header{{ID: "a"}, {ID: "b"}, {ID: "c"}}, 4+2+31)
	if widths[0] != 11 || widths[1] != 10 || widths[2] != 10 {
		t.Fatalf("widths = %v, want [11 10 10]", widths)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"two\nlines", 9, "two lines"},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		got := fit(tt.in, tt.width)
		if got != tt.want {
			t.Fatalf("fit(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if tt.width > 0 && runewidth.StringWidth(got) != tt.width {
			t.Fatalf("fit(%q, %d) has width %d", tt.in, tt.width, runewidth.StringWidth(got))
		}
	}
}

func TestCheckboxAndSortMarker(t *testing.T) {
	if checkbox(grid.Indeterminate) != "[-] " || checkbox(grid.Checked) != "[x] " || checkbox(grid.Unchecked) != "[ ] " {
		t.Fatalf("unexpected checkbox rendering")
	}
	sort := grid.SortBy{ColumnID: "name", Desc: true}
	if sortMarker(sort, "name") != " ▼" || sortMarker(sort, "other") != "" {
		t.Fatalf("unexpected sort marker")
	}
	if sortMarker(grid.SortBy{ColumnID: "name"}, "name") != " ▲" {
		t.Fatalf("ascending marker missing")
	}
}

func TestFlatten(t *testing.T) {
	f, err := state.NewFormatter(state.Settings{TimeZone: "UTC", TimeFormat: "24 hour"})
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	raw := json.RawMessage(`{
		"facilityName": "North",
		"createdTime": "2024-03-15T18:04:05Z",
		"address": {"city": "Austin", "zip": null},
		"tags": [],
		"users": [{"id": 7}],
		"notes": "",
		"description": "2024-03-15T18:04:05Z"
	}`)
	fields, err := flatten(raw, f)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	want := []detailField{
		{"address.city", "Austin"},
		{"address.zip", "NA"},
		{"createdTime", "03-15-2024 18:04:05"},
		{"description", "2024-03-15T18:04:05Z"},
		{"facilityName", "North"},
		{"notes", "NA"},
		{"tags", "[]"},
		{"users[0].id", "7"},
	}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field %d = %v, want %v", i, fields[i], want[i])
		}
	}

	if _, err := flatten(json.RawMessage(`{`), f); err == nil {
		t.Fatalf("expected error for truncated json")
	}
}

func TestThemeCycle(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() = %v, want three themes", names)
	}
	for i, name := range names {
		if got := NextTheme(name); got != names[(i+1)%len(names)] {
			t.Fatalf("NextTheme(%s) = %s", name, got)
		}
	}
	if GetTheme("missing").Name != "Nightfox" {
		t.Fatalf("unknown theme should fall back to Nightfox")
	}
	styles := GetTheme("Slate").Styles()
	if styles.StatusColor(" Unread ") == "" || styles.StatusColor("all") != "" {
		t.Fatalf("status colors not keyed by lower-cased value")
	}
}

func TestStaticMapURL(t *testing.T) {
	fields := []detailField{{"facilityName", "North"}, {"latitude", "30.25"}, {"longitude", "-97.75"}}
	if got := staticMapURL(fields, ""); got != "" {
		t.Fatalf("map without token = %q", got)
	}
	got := staticMapURL(fields, "pk.abc")
	want := staticMapBase + "pin-s(-97.75,30.25)/-97.75,30.25,12/600x400?access_token=pk.abc"
	if got != want {
		t.Fatalf("staticMapURL = %q, want %q", got, want)
	}
	if staticMapURL(fields[:2], "pk.abc") != "" {
		t.Fatalf("map without longitude should be empty")
	}
}
