// Package pages defines the portal's list screens: which endpoint each one
// reads, how its rows decode, the columns shown at each breakpoint, the
// initial sort, where row navigation leads and how it exports.
package pages
