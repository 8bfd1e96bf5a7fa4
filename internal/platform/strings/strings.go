// Package strings holds string and slice helpers for route and middleware setup
package strings

import std "strings"

// Or returns def when in is empty
func Or[T any](in, def []T) []T {
	if len(in) > 0 {
		return in
	}
	return def
}

// Require panics with "<what> is required" when s is blank, and returns s otherwise
func Require(s, what string) string {
	if std.TrimSpace(s) != "" {
		return s
	}
	panic(what + " is required")
}

// RoutePrefix turns " fip/ " into "/fip". It panics when nothing but slashes is left
func RoutePrefix(s string) string {
	p := std.Trim(s, " /\t")
	if p == "" {
		panic("route prefix is required")
	}
	return "/" + p
}
