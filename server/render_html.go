package server

import (
	"html/template"
	"io"

	"github.com/annotation/stamd/internal/stamstore"
)

// resultsTemplate renders query results as a minimal HTML document.
// html/template (stdlib) is used rather than a third-party templating
// engine: none of the retrieval pack's HTML-rendering dependencies
// (basecamp-basecamp-cli's charmbracelet/glamour renders Markdown to a
// terminal, not a browser) fit rendering an HTML table of query rows, and
// stdlib's html/template is the idiomatic, auto-escaping choice the wider
// Go ecosystem reaches for here.
var resultsTemplate = template.Must(template.New("results").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.StoreID}} &mdash; stamd</title></head>
<body>
<h1>{{.StoreID}}</h1>
<p><code>{{.Query}}</code></p>
<table border="1" cellpadding="4">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range $col := $.Columns}}<td>{{index . $col}}</td>{{end}}</tr>
{{end}}
</tbody>
</table>
</body>
</html>
`))

type resultsView struct {
	StoreID string
	Query   string
	Columns []string
	Rows    []stamstore.Result
}

func renderHTML(w io.Writer, storeID, query string, rows []stamstore.Result) error {
	columns := map[string]bool{}
	var ordered []string
	for _, row := range rows {
		for k := range row {
			if !columns[k] {
				columns[k] = true
				ordered = append(ordered, k)
			}
		}
	}
	return resultsTemplate.Execute(w, resultsView{
		StoreID: storeID,
		Query:   query,
		Columns: ordered,
		Rows:    rows,
	})
}
