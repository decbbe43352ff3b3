package router

import (
	"encoding/json"
	"strings"
)

// ParseLocation extracts the route path from a hash-history location.
//
// Only the fragment carries the route: "/#/dashboard?tab=1" and
// "http://localhost:34115/#/dashboard" both yield "/dashboard". A location
// without a fragment (or with an empty one) addresses the root path. Bare
// paths without any "#" are treated as route paths already, which keeps
// ParseLocation idempotent.
func ParseLocation(href string) string {
	i := strings.IndexByte(href, '#')
	if i < 0 {
		if strings.Contains(href, "://") {
			return "/"
		}
		return normalize(href)
	}

	fragment := href[i+1:]
	if j := strings.IndexByte(fragment, '?'); j >= 0 {
		fragment = fragment[:j]
	}
	return normalize(fragment)
}

// Href builds the hash-history link for a route path.
func Href(path string) string {
	return "#" + normalize(path)
}

// Manifest is the serialisable form of a Table handed to the frontend shell.
type Manifest struct {
	History string  `json:"history"`
	Routes  []Route `json:"routes"`
}

// Manifest returns the table in the form the frontend consumes.
func (t *Table) Manifest() Manifest {
	return Manifest{History: "hash", Routes: t.Routes()}
}

// MarshalJSON encodes the table as its Manifest.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Manifest())
}
