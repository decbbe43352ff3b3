package cli

import (
	"errors"
	"strings"

	"github.com/robinvdvleuten/margin/bundle"
	"github.com/robinvdvleuten/margin/devserver"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/router"
)

var (
	errPasswordRequired = errors.New("password required: pass --password or set MARGIN_PASSWORD")
	errWrongPassword    = errors.New("incorrect password")
)

// hints suggest a way out of common failures.
var hints = []struct {
	target error
	hint   string
}{
	{devserver.ErrPortInUse, "choose another port with --port, or set server.strict_port = false"},
	{bundle.ErrUnsafeOutDir, "point build.out_dir inside the project, or pass --force"},
	{portfolio.ErrNotInitialized, "open margin and set a password first"},
	{portfolio.ErrNoAssets, "add holdings before asking for advice"},
	{router.ErrNoRoute, "run 'margin routes list' to see the registered paths"},
}

// ErrorRenderer renders errors with terminal styling and a hint when one is
// known.
type ErrorRenderer struct{}

// NewErrorRenderer creates a renderer.
func NewErrorRenderer() *ErrorRenderer {
	return &ErrorRenderer{}
}

// Render formats a single error.
func (r *ErrorRenderer) Render(err error) string {
	var buf strings.Builder
	buf.WriteString(errorStyle.Render(errorSymbol + " " + err.Error()))

	var verr *portfolio.ValidationError
	if errors.As(err, &verr) {
		buf.WriteString("\n   ")
		buf.WriteString(dimStyle.Render("field: " + verr.Field))
	}

	for _, h := range hints {
		if errors.Is(err, h.target) {
			buf.WriteString("\n   ")
			buf.WriteString(dimStyle.Render(h.hint))
			break
		}
	}

	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	rendered := make([]string, 0, len(errs))
	for _, err := range errs {
		rendered = append(rendered, r.Render(err))
	}
	return strings.Join(rendered, "\n\n")
}
