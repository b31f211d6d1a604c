package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/five82/dxportal/internal/datacache"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/state"
)

// detailField is one flattened leaf of a record.
type detailField struct {
	path  string
	value string
}

type detailScreen struct {
	title  string
	id     string
	key    datacache.Key
	sub    *datacache.Subscription
	result datacache.Result
	fields []detailField
	err    error
	vp     viewport.Model
	styles Styles

	mapsToken string
}

func (d *detailScreen) close() {
	if d.sub != nil {
		d.sub.Close()
	}
}

func (d *detailScreen) resize(width, height int) {
	d.vp.Width = width
	d.vp.Height = max(height-1, 1)
	d.render()
}

func (d *detailScreen) apply(r datacache.Result, f *state.Formatter) {
	prev := d.result
	d.result = r
	if r.Data == nil || bytes.Equal(r.Data, prev.Data) {
		return
	}
	fields, err := flatten(r.Data, f)
	if u := staticMapURL(fields, d.mapsToken); u != "" {
		fields = append(fields, detailField{path: "map", value: u})
	}
	d.fields, d.err = fields, err
	d.render()
}

func (d *detailScreen) render() {
	if len(d.fields) == 0 {
		d.vp.SetContent("")
		return
	}
	label := 0
	for _, f := range d.fields {
		label = max(label, runewidth.StringWidth(f.path))
	}
	label = min(label, max(d.vp.Width/2, 12))
	var b strings.Builder
	for i, f := range d.fields {
		b.WriteString(d.styles.MutedText.Render(fit(f.path, label)))
		b.WriteString("  ")
		b.WriteString(d.styles.Text.Render(f.value))
		if i < len(d.fields)-1 {
			b.WriteString("\n")
		}
	}
	d.vp.SetContent(b.String())
}

// showDetail opens a read-only record view on top of the current list.
func (m *Model) showDetail(title, id string, k datacache.Key) tea.Cmd {
	if m.detail != nil {
		m.detail.close()
	}
	d := &detailScreen{title: title, id: id, key: k, styles: m.theme.Styles(), mapsToken: m.mapsToken}
	d.vp = viewport.New(m.width, max(m.contentHeight()-1, 1))
	d.sub = m.cache.Subscribe(k)
	d.apply(d.sub.Current(), m.formatter)
	m.detail = d
	m.mode = modeDetail
	if d.sub.Key().IsNull() {
		return nil
	}
	return tea.Batch(waitResult(d.sub), m.spinner.Tick)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.detail
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		d.close()
		m.detail = nil
		m.mode = modeList
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.Refresh):
		m.cache.Mutate(d.key)
		return m, nil
	case key.Matches(msg, m.keys.CopyID):
		if d.id != "" {
			m.copyText(d.id)
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		d.vp.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		d.vp.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	d.vp, cmd = d.vp.Update(msg)
	return m, cmd
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	d := m.detail
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	head := styles.AccentText.Bold(true).Render(d.title)
	if d.result.IsValidating {
		head += " " + m.spinner.View()
	}
	b.WriteString(clip(head, m.width))
	b.WriteString("\n")

	height := max(m.contentHeight()-1, 1)
	switch {
	case d.err != nil:
		b.WriteString(m.placeholder(styles.DangerText.Render("Unexpected response: "+d.err.Error()), height))
	case d.fields == nil && d.result.Err != nil:
		b.WriteString(m.placeholder(styles.DangerText.Render(resultErrorText(d.result.Err)), height))
	case d.fields == nil:
		b.WriteString(m.placeholder(m.spinner.View()+styles.MutedText.Render(" Loading..."), height))
	default:
		b.WriteString(d.vp.View())
	}
	b.WriteString("\n")
	status := ""
	if d.fields != nil {
		status = fmt.Sprintf("%d fields  %3.f%%", len(d.fields), d.vp.ScrollPercent()*100)
	}
	b.WriteString(styles.MutedText.Render(status))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(m.help.ShortHelpView(m.keys.detailHelp())))
	return b.String()
}

// flatten lists every leaf of a JSON document as dotted paths in key
// order. Timestamps under time or date keys are shown in the user's
// format.
func flatten(raw json.RawMessage, f *state.Formatter) ([]detailField, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	out := []detailField{}
	walk(doc, "", f, &out)
	return out, nil
}

func walk(v any, path string, f *state.Formatter, out *[]detailField) {
	switch v := v.(type) {
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			walk(v[k], joinPath(path, k), f, out)
		}
	case []any:
		if len(v) == 0 {
			*out = append(*out, detailField{path: path, value: "[]"})
		}
		for i, item := range v {
			walk(item, fmt.Sprintf("%s[%d]", path, i), f, out)
		}
	case nil:
		*out = append(*out, detailField{path: path, value: notAvailable})
	case string:
		*out = append(*out, detailField{path: path, value: leafText(path, v, f)})
	default:
		*out = append(*out, detailField{path: path, value: fmt.Sprint(v)})
	}
}

const notAvailable = "NA"

func joinPath(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}

func leafText(path, v string, f *state.Formatter) string {
	if v == "" {
		return notAvailable
	}
	if f == nil || !isTimeKey(path) {
		return v
	}
	if t := dxapi.ParseTime(v); !t.IsZero() {
		return f.DateTime(t)
	}
	return v
}

func isTimeKey(path string) bool {
	name := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	return strings.HasSuffix(name, "time") || strings.Contains(name, "date") || strings.HasSuffix(name, "expiration")
}

const staticMapBase = "https://api.mapbox.com/styles/v1/mapbox/streets-v11/static/"

// staticMapURL links a map image centered on the record's coordinates. It
// is empty without a token or coordinates.
func staticMapURL(fields []detailField, token string) string {
	if token == "" {
		return ""
	}
	var lat, lng string
	for _, f := range fields {
		switch f.path {
		case "latitude":
			lat = f.value
		case "longitude":
			lng = f.value
		}
	}
	if lat == "" || lng == "" || lat == notAvailable || lng == notAvailable {
		return ""
	}
	pos := lng + "," + lat
	return staticMapBase + "pin-s(" + pos + ")/" + pos + ",12/600x400?access_token=" + url.QueryEscape(token)
}
