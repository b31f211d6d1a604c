// Package config loads dxportal's TOML configuration.
//
// # Discovery
//
// Load follows this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/dxportal/config.toml
//  3. If the file doesn't exist, start from defaults
//  4. Apply DXPORTAL_* environment overrides on top
//
// # Fields
//
//	server_url      = "api.portal.example"          # DXPORTAL_SERVER_URL
//	auth_domain     = "login.portal.example"        # DXPORTAL_AUTH_DOMAIN
//	auth_client_id  = "..."                         # DXPORTAL_AUTH_CLIENT_ID
//	auth_audience   = "https://api.portal.example"  # DXPORTAL_AUTH_AUDIENCE
//	maps_token      = "..."                         # DXPORTAL_MAPS_TOKEN
//	export_dir      = "~/Downloads"
//	log_file        = "~/.local/state/dxportal/dxportal.log"
//	request_timeout = "30s"
//	retry_attempts  = 3
//	dedupe_interval = "2s"
//	search_debounce = "200ms"
//
// DXPORTAL_TOKEN has no file equivalent. When set, the client skips the
// device sign-in and sends that bearer token as is.
//
// # Validation
//
// Load only fails on unreadable files, bad TOML or bad durations.
// Validate is separate so the CLI can report a missing server or missing
// identity settings with a hint about the matching environment variable.
package config
