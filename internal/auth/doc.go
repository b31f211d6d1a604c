// Package auth signs the operator in against the portal's identity
// provider and supplies bearer tokens to the API client.
//
// DeviceProvider uses the OAuth2 device authorization flow, which suits a
// terminal: Login reports a user code and verification URL, then polls the
// token endpoint until the code is approved. Tokens are refreshed silently
// and never written to disk. StaticProvider serves a fixed token taken
// from the environment.
//
// Both providers satisfy datacache.Readiness through Ready and
// dxapi.TokenSource through AccessToken.
package auth
