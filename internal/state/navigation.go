package state

import (
	"slices"
	"strings"
)

// Control names gating each screen.
const (
	ControlTests     = "Tests"
	ControlQC        = "QC"
	ControlSystems   = "Systems"
	ControlLocations = "Locations"
	ControlReports   = "Reports"
	ControlUsers     = "Users"
	ControlSettings  = "Settings"
)

// Link is one navigation entry granted to the signed-in user.
type Link struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SortOrder   string `json:"sortOrder"`
	ControlName string `json:"controlName"`
	Edit        bool   `json:"edit"`
	Add         bool   `json:"add"`
	Delete      bool   `json:"delete"`
}

// Permissions is the access a user has to one screen.
type Permissions struct {
	ScreenAccess bool
	Edit         bool
	Add          bool
	Delete       bool
}

// Navigation holds the user's links ordered by SortOrder.
type Navigation struct {
	*Store[[]Link]
}

// NewNavigation returns an empty navigation store.
func NewNavigation() *Navigation {
	return &Navigation{Store: NewStore[[]Link](nil, slices.Clone[[]Link])}
}

// SetLinks replaces the links, sorting them by SortOrder.
func (n *Navigation) SetLinks(links []Link) {
	sorted := slices.Clone(links)
	slices.SortStableFunc(sorted, func(a, b Link) int {
		if c := strings.Compare(strings.ToLower(a.SortOrder), strings.ToLower(b.SortOrder)); c != 0 {
			return c
		}
		return strings.Compare(a.SortOrder, b.SortOrder)
	})
	n.Set(sorted)
}

// Links returns the ordered links.
func (n *Navigation) Links() []Link {
	return n.Get()
}

// Permissions reports access for controlName. A user without a link for
// the control has no access at all.
func (n *Navigation) Permissions(controlName string) Permissions {
	for _, link := range n.Get() {
		if link.ControlName == controlName {
			return Permissions{
				ScreenAccess: true,
				Edit:         link.Edit,
				Add:          link.Add,
				Delete:       link.Delete,
			}
		}
	}
	return Permissions{}
}
