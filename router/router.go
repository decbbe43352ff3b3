// Package router holds the route table the single-page frontend navigates by.
//
// A Table maps URL paths to named page components. Tables are validated once
// when they are built and never change afterwards, so a single Table can be
// shared by the HTTP server, the build pipeline and the desktop shell without
// locking.
//
// Navigation uses hash history: the route path lives in the URL fragment
// (http://localhost:34115/#/dashboard), so the server only ever sees "/".
//
// Example usage:
//
//	table := router.Default()
//
//	match, err := table.Navigate("http://localhost:34115/#/")
//	if err != nil {
//		return err
//	}
//	fmt.Println(match.Route.Component) // Login
package router

import (
	"fmt"
	"strings"
)

// Route maps a URL path to a page component, or redirects to another path.
type Route struct {
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Component string `json:"component,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

// IsRedirect reports whether the route forwards to another path instead of
// rendering a component.
func (r Route) IsRedirect() bool {
	return r.Redirect != ""
}

// Match is the outcome of resolving a path against a Table.
type Match struct {
	Route Route `json:"route"`

	// RedirectedFrom is the requested path when one or more redirects were
	// followed to reach Route, empty otherwise.
	RedirectedFrom string `json:"redirectedFrom,omitempty"`
}

// Table is an immutable set of routes.
type Table struct {
	routes []Route
	byPath map[string]int
	byName map[string]int
}

// New validates routes and builds a Table from them.
//
// Every path must be absolute and unique, every route must either name a
// component or redirect (never both), redirect targets must be registered and
// redirect chains must terminate.
func New(routes ...Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byPath: make(map[string]int, len(routes)),
		byName: make(map[string]int, len(routes)),
	}

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, &InvalidRouteError{Route: r, Reason: "path must start with /"}
		}
		r.Path = normalize(r.Path)

		if _, exists := t.byPath[r.Path]; exists {
			return nil, &DuplicatePathError{Path: r.Path}
		}

		switch {
		case r.IsRedirect() && r.Component != "":
			return nil, &InvalidRouteError{Route: r, Reason: "route cannot both redirect and render a component"}
		case !r.IsRedirect() && r.Component == "":
			return nil, &InvalidRouteError{Route: r, Reason: "route needs a component or a redirect"}
		}

		if r.Name != "" {
			if _, exists := t.byName[r.Name]; exists {
				return nil, &InvalidRouteError{Route: r, Reason: fmt.Sprintf("name %q already registered", r.Name)}
			}
			t.byName[r.Name] = len(t.routes)
		}

		if r.IsRedirect() {
			r.Redirect = normalize(r.Redirect)
		}

		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	for _, r := range t.routes {
		if !r.IsRedirect() {
			continue
		}
		if _, ok := t.byPath[r.Redirect]; !ok {
			return nil, &InvalidRouteError{Route: r, Reason: fmt.Sprintf("redirect target %s is not registered", r.Redirect)}
		}
		if _, err := t.follow(r.Path); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Default returns the application's route table. The root path always
// redirects to the login page.
func Default() *Table {
	t, err := New(
		Route{Path: "/", Redirect: "/login"},
		Route{Path: "/set-password", Name: "SetPassword", Component: "SetPassword"},
		Route{Path: "/login", Name: "Login", Component: "Login"},
		Route{Path: "/dashboard", Name: "Dashboard", Component: "Dashboard"},
		Route{Path: "/settings", Name: "Settings", Component: "Settings"},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns a copy of the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Has reports whether path is registered, without following redirects.
func (t *Table) Has(path string) bool {
	_, ok := t.byPath[normalize(path)]
	return ok
}

// Resolve finds the route for path, following redirects. Query strings and
// fragments are ignored. Unregistered paths return an error matching
// ErrNoRoute.
func (t *Table) Resolve(path string) (Match, error) {
	path = normalize(path)

	route, err := t.follow(path)
	if err != nil {
		return Match{}, err
	}

	m := Match{Route: route}
	if route.Path != path {
		m.RedirectedFrom = path
	}
	return m, nil
}

// Navigate resolves the route addressed by a hash-history location such as
// "/#/dashboard" or "http://host/#/settings".
func (t *Table) Navigate(href string) (Match, error) {
	return t.Resolve(ParseLocation(href))
}

func (t *Table) follow(path string) (Route, error) {
	seen := make(map[string]struct{}, 2)

	for {
		i, ok := t.byPath[path]
		if !ok {
			return Route{}, &NoRouteError{Path: path}
		}

		r := t.routes[i]
		if !r.IsRedirect() {
			return r, nil
		}

		seen[path] = struct{}{}
		if _, looped := seen[r.Redirect]; looped {
			return Route{}, &RedirectLoopError{Path: r.Path, Target: r.Redirect}
		}
		path = r.Redirect
	}
}

// normalize strips query and fragment and trims a trailing slash, keeping the
// root path intact.
func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
