// Package app is the composition root of dxportal.
//
// # Startup
//
//  1. Load ~/.config/dxportal/config.toml and apply DXPORTAL_* overrides
//  2. Send the standard logger to the log file; the terminal belongs to the UI
//  3. Pick the sign-in provider: a static token, or the device authorization
//     flow against the configured tenant
//  4. Build the API client and the data cache around it, gated on the
//     provider being signed in
//  5. Start the token keep-alive and run the TUI until the user quits or the
//     context is cancelled
//
// # Components
//
//   - app.go: Run, provider selection and logging setup
//   - keepalive.go: background goroutine that refreshes tokens on a fixed
//     cadence
//
// A static token (DXPORTAL_TOKEN) has no identity claims, so the session is
// given every screen with full permissions and the default display settings.
package app
