package server

import (
	"html/template"
	"log/slog"
	"net/http"

	"value-bet-finder/internal/analysis"
)

// Row colours by polarity.
const (
	positiveColour = "#90EE90"
	negativeColour = "#FFB6C1"
)

var columns = []string{"EVENT", "BETFAIR ADJUST", "TRUE ODDS", "VALUE", "K FACTOR", "MONEY TO BET"}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Value Bet Finder</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #eee; }
footer { margin-top: 1em; color: #333; }
</style>
</head>
<body>
<h1>Value Bets</h1>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr style="background-color: {{.Colour}}">{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
<footer>{{.Status}}</footer>
</body>
</html>
`))

type pageRow struct {
	Colour template.CSS
	Cells  []string
}

type pageData struct {
	Columns []string
	Rows    []pageRow
	Status  string
}

func rowColour(row analysis.Row) template.CSS {
	if row.Positive() {
		return positiveColour
	}
	return negativeColour
}

// Index renders the board as an HTML table.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	rows, err := h.board.Rows()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := pageData{Columns: columns, Status: h.status.Status()}
	for _, row := range rows {
		data.Rows = append(data.Rows, pageRow{Colour: rowColour(row), Cells: row.Cells()})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error("rendering index", "err", err)
	}
}
