// Package state holds the small pieces of shared client state that outlive
// a single screen.
//
// # Store
//
// Store[T] wraps one value behind a sync.RWMutex. Reads return a copy made
// by the store's clone func, writes replace the value, and every change
// runs the registered subscribers with the new value:
//
//	nav := state.NewNavigation()
//	stop := nav.Subscribe(func(links []state.Link) { ... })
//	defer stop()
//	nav.SetLinks(claims.ScreenAccess(server))
//
// Subscribers run on the writer's goroutine after the lock is released. In
// the UI they only forward a message into the bubbletea program.
//
// # Navigation and permissions
//
// Navigation keeps the links from the screen access claim ordered by their
// sortOrder. Permissions(controlName) answers whether the user may open a
// screen and whether they may edit, add or delete on it. A control without
// a link grants nothing.
//
// # Settings
//
// Settings come from the settings claim. The portal stores layouts in the
// moment.js token style (MM-DD-YYYY, hh:mm:ss a); ConvertLayout translates
// them to Go reference layouts and Formatter renders instants in the user's
// time zone. Time zone data is embedded through time/tzdata.
//
// # Date ranges
//
// DateRangeStore backs the date pickers of the list and report screens.
// It starts at the last seven days; screens rebuild their cache keys from
// it whenever it changes.
package state
