package router

import (
	"errors"
	"fmt"
)

// ErrNoRoute is matched by errors returned for unregistered paths.
var ErrNoRoute = errors.New("no route")

// NoRouteError is returned when a path has no registered route.
type NoRouteError struct {
	Path string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route registered for %s", e.Path)
}

// Is lets errors.Is(err, ErrNoRoute) match.
func (e *NoRouteError) Is(target error) bool {
	return target == ErrNoRoute
}

// DuplicatePathError is returned when two routes claim the same path.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("duplicate route path %s", e.Path)
}

// InvalidRouteError is returned for a route that cannot be registered.
type InvalidRouteError struct {
	Route  Route
	Reason string
}

func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("invalid route %s: %s", e.Route.Path, e.Reason)
}

// RedirectLoopError is returned when following redirects revisits a path.
type RedirectLoopError struct {
	Path   string
	Target string
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("redirect loop: %s -> %s", e.Path, e.Target)
}
