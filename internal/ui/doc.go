// Package ui is the terminal front end of dxportal, built on Bubble Tea.
//
// # Screens
//
// The model moves between three modes:
//
//   - Login: starts the device authorization flow, shows the verification
//     address and user code, and copies the code to the clipboard.
//   - List: a grid over one portal resource. The menu holds the screens the
//     signed-in user has access to, ordered by their navigation links.
//     Child screens (device notices, a user's audit trail) stack on top of
//     the list they were opened from.
//   - Detail: a scrollable, read-only view of one record, flattened into
//     dotted field paths.
//
// # Data flow
//
// Every open screen holds a datacache subscription for its key. A command
// blocks on the subscription channel and feeds each result back into
// Update as a resultMsg, which reloads the screen's table. Keys are rebuilt
// when the date range or notice filter changes; an unchanged key keeps the
// existing subscription. Writes (bulk notice status, location delete) run as
// commands and invalidate the affected key when they succeed.
//
// # Layout
//
// The terminal width picks a breakpoint and with it the column set of each
// grid. Fixed-width columns keep their width and flexible columns share the
// rest. Only the rows inside the viewport are rendered.
//
// # Key Bindings
//
//   - tab/shift+tab: next/previous screen
//   - j/k, g/G, ctrl+d/u: move the cursor
//   - /: search (debounced), esc clears it
//   - 1-9: cycle the sort of a column
//   - space/a: select a row, select all visible rows
//   - enter: open the record, n: open notices or the audit trail
//   - x: export to Excel, y: copy the record id
//   - [ ] - +: move, widen or narrow the date range
//   - f, r, u: notice filter, mark read, mark unread
//   - D twice: delete a location
//   - S: account settings, R: refresh, L: sign out
//   - T: cycle theme, ?: help, q: quit
package ui
