package pages

import (
	"github.com/five82/dxportal/internal/state"
)

// Catalog is the set of screens, in menu order.
type Catalog struct {
	defs []Definition
}

// NewCatalog builds every screen. Dates render through f.
func NewCatalog(f *state.Formatter) *Catalog {
	if f == nil {
		f, _ = state.NewFormatter(state.Settings{})
	}
	return &Catalog{defs: []Definition{
		Tests(f),
		QC(f),
		Systems(f),
		Notices(f),
		Locations(),
		Users(f),
		AuditTrail(f),
		TestsSummary(f),
		LocationsSummary(),
		SystemsSummary(),
		UsersSummary(),
	}}
}

// Lookup returns the screen called name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	for _, d := range c.defs {
		if d.Info().Name == name {
			return d, true
		}
	}
	return nil, false
}

// Menu returns the top-level screens the user may open, following the
// order of their navigation links.
func (c *Catalog) Menu(nav *state.Navigation) []Definition {
	var out []Definition
	for _, link := range nav.Links() {
		for _, d := range c.defs {
			info := d.Info()
			if info.Parent == "" && info.Control == link.ControlName {
				out = append(out, d)
			}
		}
	}
	return out
}

// Children returns the screens opened from parent.
func (c *Catalog) Children(parent string) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.Info().Parent == parent {
			out = append(out, d)
		}
	}
	return out
}
