// Package dxapi is the HTTP client for the diagnostics portal API: bearer
// authorization per call, request ids, typed records, and validated writes.
package dxapi
