package server

import (
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/theirongolddev/gadash/internal/chart"
	"github.com/theirongolddev/gadash/internal/cli"
	"github.com/theirongolddev/gadash/internal/model"
	"github.com/theirongolddev/gadash/internal/narrative"
	"github.com/theirongolddev/gadash/internal/pipeline"
	"github.com/theirongolddev/gadash/internal/source"
)

const (
	defaultRawLimit = 100
	maxModelRows    = 20
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} · gadash</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 1100px; padding: 0 24px 48px; color: #1c1b1a; }
nav { padding: 16px 0; border-bottom: 1px solid #ddd; }
nav a { margin-right: 16px; color: #205ea6; text-decoration: none; }
nav a.active { font-weight: bold; }
form { margin: 16px 0; }
table { border-collapse: collapse; margin: 8px 0 16px; font-size: 14px; }
th, td { padding: 4px 10px; border-bottom: 1px solid #eee; text-align: right; }
th:first-child, td:first-child { text-align: left; }
figure { margin: 16px 0; }
figure img { max-width: 100%; height: auto; }
.error { color: #af3029; }
.scroll { overflow-x: auto; }
</style>
</head>
<body>
<nav>
<a href="/">gadash</a>
<a href="/delay{{.Query}}"{{if eq .Active "delay"}} class="active"{{end}}>Delay</a>
<a href="/pricing{{.Query}}"{{if eq .Active "pricing"}} class="active"{{end}}>Pricing</a>
<a href="/api/status">Status</a>
</nav>
<h1>{{.Title}}</h1>
{{if .Active}}
<form method="get">
<label>Checkin
<select name="checkin">
<option value=""{{if eq .Checkin ""}} selected{{end}}>all</option>
<option value="mobile"{{if eq .Checkin "mobile"}} selected{{end}}>mobile</option>
<option value="connect"{{if eq .Checkin "connect"}} selected{{end}}>connect</option>
</select>
</label>
<label>Brand <input name="brand" value="{{.Brand}}"></label>
<label><input type="checkbox" name="raw" value="1"{{if .Raw}} checked{{end}}> Show raw data</label>
<button type="submit">Apply</button>
</form>
{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{range .Sections}}
<section>
<h2>{{.Title}}</h2>
{{range .Notes}}<p>{{.}}</p>
{{end}}
{{if .Rows}}<div class="scroll"><table>
{{if .Header}}<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>{{end}}
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table></div>{{end}}
{{range .Charts}}<figure><img src="{{.URL}}" alt="{{.Title}}" width="768" loading="lazy"><figcaption>{{.Title}}</figcaption></figure>
{{end}}
</section>
{{end}}
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

type page struct {
	Title    string
	Active   string // "delay" or "pricing", empty on the index
	Query    string
	Checkin  string
	Brand    string
	Raw      bool
	Error    string
	Sections []section
}

type section struct {
	Title  string
	Notes  []string
	Header []string
	Rows   [][]string
	Charts []chartRef
}

type chartRef struct {
	Title string
	URL   string
}

func newPage(r *http.Request, title, active string) page {
	f := filtersOf(r)
	q := url.Values{}
	if f.Checkin != "" {
		q.Set("checkin", f.Checkin)
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	query := ""
	if len(q) > 0 {
		query = "?" + q.Encode()
	}
	return page{
		Title:   title,
		Active:  active,
		Query:   query,
		Checkin: f.Checkin,
		Brand:   f.Brand,
		Raw:     r.URL.Query().Get("raw") == "1",
	}
}

func (s *Service) writePage(w http.ResponseWriter, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if err := pageTmpl.Execute(w, p); err != nil {
		s.log.Warn("page render failed", "page", p.Title, "err", err)
	}
}

func chartRefs(charts []chart.Chart, query string) []chartRef {
	refs := make([]chartRef, len(charts))
	for i, c := range charts {
		refs[i] = chartRef{Title: c.Title, URL: "/charts/" + c.Name + ".png" + query}
	}
	return refs
}

func rawLimit(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return defaultRawLimit
}

func rawSection(records [][]string, total int) section {
	sec := section{Title: fmt.Sprintf("Raw data (%s of %s rows)", cli.FormatCount(max(len(records)-1, 0)), cli.FormatCount(total))}
	if len(records) > 0 {
		sec.Header = records[0]
		sec.Rows = records[1:]
	}
	return sec
}

func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.snapshotStatus()
	p := newPage(r, "Getaround analysis", "")
	p.Error = st.LastError

	loaded := "never"
	if !st.LastLoadAt.IsZero() {
		loaded = st.LastLoadAt.Format("2006-01-02 15:04:05")
	}
	p.Sections = []section{
		{
			Title: "Pages",
			Notes: []string{
				"Delay: how late checkouts hit the next driver, and which minimum gap between rentals pays off.",
				"Pricing: daily rental prices by model, with the features that drive them.",
			},
		},
		{
			Title: "Datasets",
			Rows: [][]string{
				{"Delay source", st.DelaySource},
				{"Pricing source", st.PricingSource},
				{"Rentals", cli.FormatCount(st.Rentals)},
				{"Listings", cli.FormatCount(st.Listings)},
				{"Rows skipped", cli.FormatCount(st.Skipped)},
				{"Last load", loaded},
				{"Loads", strconv.FormatInt(st.LoadCount, 10)},
			},
		},
	}
	s.writePage(w, p)
}

func (s *Service) handleDelayPage(w http.ResponseWriter, r *http.Request) {
	p := newPage(r, "Delay analysis", "delay")
	report, ok := s.delayReport(filtersOf(r))
	if !ok {
		p.Error = "Datasets are not loaded yet. " + s.snapshotStatus().LastError
		s.writePage(w, p)
		return
	}

	pr := report.Projection
	charts := chartRefs(chart.DelayCharts(report), p.Query)
	p.Sections = []section{
		{Title: "Summary", Notes: narrative.Delay(report)},
		{Title: "Checkouts", Charts: charts[:4]},
		{
			Title: "Projection",
			Rows: [][]string{
				{"Median rental price", cli.FormatCost(pr.MedianPrice)},
				{"Minute rate", cli.FormatCost(pr.MinuteRate)},
				{"Canceled / ended", cli.FormatCount(pr.Canceled) + " / " + cli.FormatCount(pr.Ended)},
				{"Max loss", cli.FormatCost(pr.CanceledLoss)},
				{"Late checkouts", cli.FormatCount(pr.NumberDelays)},
				{"Late revenue", cli.FormatCost(pr.LateRevenue)},
				{"Break-even delay", cli.FormatHours(pr.BreakEvenHours)},
				{"Net late loss", cli.FormatCost(pr.LateLoss)},
				{"Max risk", cli.FormatCost(pr.AtRisk)},
				{"Revenue", cli.FormatCost(pr.Revenue)},
				{"Risk / revenue", cli.FormatRatio(pr.RiskOverRevenue)},
			},
		},
		{
			Title:  "Threshold sweep",
			Header: []string{"Minimum gap", "Late", "Late revenue", "Risk", "Ratio", "Affected", "Solved"},
			Rows:   sweepRows(report.Sweep),
			Charts: charts[4:],
		},
	}
	if p.Raw {
		rentals, _, _ := s.data()
		rows := pipeline.FilterByCheckin(rentals, p.Checkin)
		p.Sections = append(p.Sections, rawSection(source.Head(source.RentalFrame(rows), rawLimit(r)), len(rows)))
	}
	s.writePage(w, p)
}

// sweepRows lists the sweep at whole hours.
func sweepRows(sw model.Sweep) [][]string {
	var rows [][]string
	for _, pt := range sw.Points {
		if math.Mod(pt.Threshold, 60) != 0 {
			continue
		}
		ratio := cli.NA
		if pt.Defined {
			ratio = cli.FormatRatio(pt.Ratio)
		}
		rows = append(rows, []string{
			cli.FormatMinutes(pt.Threshold),
			cli.FormatCount(pt.LateCount),
			cli.FormatCost(pt.LateRevenue),
			cli.FormatCost(pt.LateRisk),
			ratio,
			cli.FormatCount(pt.Affected),
			cli.FormatCount(pt.Solved),
		})
	}
	return rows
}

func (s *Service) handlePricingPage(w http.ResponseWriter, r *http.Request) {
	p := newPage(r, "Pricing analysis", "pricing")
	report, ok := s.pricingReport(filtersOf(r))
	if !ok {
		p.Error = "Datasets are not loaded yet. " + s.snapshotStatus().LastError
		s.writePage(w, p)
		return
	}

	charts := chartRefs(chart.PricingCharts(report), p.Query)
	p.Sections = []section{
		{Title: "Summary", Notes: narrative.Pricing(report)},
		{
			Title:  "Models",
			Header: []string{"Model", "Listings", "Average / day", "Total / day", "Share"},
			Rows:   modelRows(report.Totals),
			Charts: charts[:2],
		},
		{Title: "Correlation", Charts: charts[2:3]},
		{Title: "Distributions", Charts: charts[3:]},
	}
	if p.Raw {
		_, all, _ := s.data()
		listings := pipeline.FilterByBrand(all, p.Brand)
		p.Sections = append(p.Sections, rawSection(source.Head(source.ListingFrame(listings), rawLimit(r)), len(listings)))
	}
	s.writePage(w, p)
}

func modelRows(models []model.ModelPrice) [][]string {
	if len(models) > maxModelRows {
		models = models[:maxModelRows]
	}
	rows := make([][]string, len(models))
	for i, m := range models {
		rows[i] = []string{
			m.ModelKey,
			cli.FormatCount(m.Listings),
			cli.FormatCost(m.Mean),
			cli.FormatCost(m.Total),
			cli.FormatPercent(m.Share),
		}
	}
	return rows
}
