// Package frontend holds the single-page app: its sources, the built output
// embedded into the binary and the HTML shell every page is served from.
package frontend

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/robinvdvleuten/margin/router"
)

// DefaultTitle is the document title.
const DefaultTitle = "Margin - Build portfolios that survive uncertainty"

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="icon" type="image/svg+xml" href="/favicon.svg">
<title>{{.Title}}</title>
{{.Tags}}
</head>
<body>
<div id="app"></div>
<script type="application/json" id="margin-routes">{{.Routes}}</script>
{{- if .HMRURL}}
<script type="module">
const socket = new WebSocket({{.HMRURL}});
socket.addEventListener("message", (event) => {
  const msg = JSON.parse(event.data);
  if (msg.type === "reload") location.reload();
});
</script>
{{- end}}
</body>
</html>
`))

// Shell is the data the HTML shell is rendered from.
type Shell struct {
	Title string

	// Tags are the script and stylesheet tags for the entry point.
	Tags template.HTML

	// Manifest is inlined so the client can route before any request.
	Manifest router.Manifest

	// HMRURL, when set, adds a client that reloads on change notifications.
	HMRURL string
}

// Render writes the shell.
func Render(w io.Writer, s Shell) error {
	routes, err := json.Marshal(s.Manifest)
	if err != nil {
		return fmt.Errorf("encode route manifest: %w", err)
	}

	title := s.Title
	if title == "" {
		title = DefaultTitle
	}

	return shellTemplate.Execute(w, struct {
		Title  string
		Tags   template.HTML
		Routes template.JS
		HMRURL string
	}{
		Title:  title,
		Tags:   s.Tags,
		Routes: template.JS(routes),
		HMRURL: s.HMRURL,
	})
}

// SourceTags returns tags loading the raw source entry and stylesheets, for
// serving the source tree directly during development.
func SourceTags(prefix, entry string, stylesheets ...string) template.HTML {
	var tags string
	for _, css := range stylesheets {
		tags += fmt.Sprintf(`<link rel="stylesheet" href="%s/%s">`+"\n", prefix, template.HTMLEscapeString(css))
	}
	tags += fmt.Sprintf(`<script type="module" src="%s/%s"></script>`, prefix, template.HTMLEscapeString(entry))
	return template.HTML(tags)
}
