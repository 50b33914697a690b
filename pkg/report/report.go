// Package report renders QC results as HTML, CSV or Markdown documents.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strings"

	md "github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/qc"
)

// Format is a report format.
type Format string

// Supported formats.
const (
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
var Formats = []Format{FormatHTML, FormatCSV, FormatMarkdown}

// Columns is the column order shared by every tabular format.
var Columns = []string{"parameter", "issue_type", "description", "severity", "recommendation"}

// TimestampLayout formats the report timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseFormat parses a format name, case-insensitively. "md" is accepted for
// Markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatCSV, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", errors.NewValidationError("format", s, "must be one of html, csv, markdown")
}

// Export renders result in the given format.
func Export(result *qc.Result, format Format) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, result, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write renders result in the given format to w.
func Write(w io.Writer, result *qc.Result, format Format) error {
	if result == nil {
		return errors.NewValidationError("result", nil, "cannot be nil")
	}
	switch format {
	case FormatHTML:
		return writeHTML(w, result)
	case FormatCSV:
		return writeCSV(w, result)
	case FormatMarkdown:
		return writeMarkdown(w, result)
	}
	return errors.NewValidationError("format", string(format), "must be one of html, csv, markdown")
}

func row(issue qc.Issue) []string {
	return []string{
		issue.ParameterName,
		string(issue.IssueType),
		issue.Description,
		string(issue.Severity),
		issue.Recommendation,
	}
}

func writeCSV(w io.Writer, result *qc.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return &errors.IOError{Operation: "write", Path: "csv report", Err: err}
	}
	for _, issue := range result.Issues {
		if err := cw.Write(row(issue)); err != nil {
			return &errors.IOError{Operation: "write", Path: "csv report", Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &errors.IOError{Operation: "write", Path: "csv report", Err: err}
	}
	return nil
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": func(s qc.Severity) string { return strings.ToLower(string(s)) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>QC Report {{.ID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
.critical, .high { color: #b00020; }
.medium { color: #b36b00; }
.low, .info { color: #555; }
</style>
</head>
<body>
<h1>QC Report</h1>
<div class="summary">
<p>Generated: {{.Timestamp}}</p>
<p>Mode: {{.Mode}}</p>
<ul>
<li>Total parameters: {{.Total}}</li>
<li>Passed: {{.Passed}}</li>
<li>Failed: {{.Failed}}</li>
<li>Warnings: {{.Warnings}}</li>
<li>Pass rate: {{.PassRate}}</li>
</ul>
</div>
<table>
<thead>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Issues}}
<tr class="{{lower .Severity}}"><td>{{.ParameterName}}</td><td>{{.IssueType}}</td><td>{{.Description}}</td><td>{{.Severity}}</td><td>{{.Recommendation}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type htmlData struct {
	ID        string
	Timestamp string
	Mode      qc.Mode
	Total     int
	Passed    int
	Failed    int
	Warnings  int
	PassRate  string
	Columns   []string
	Issues    []qc.Issue
}

func writeHTML(w io.Writer, result *qc.Result) error {
	data := htmlData{
		ID:        result.ID,
		Timestamp: result.Timestamp.Format(TimestampLayout),
		Mode:      result.Mode,
		Total:     result.TotalParameters,
		Passed:    result.PassedCount,
		Failed:    result.FailedCount,
		Warnings:  result.WarningCount,
		PassRate:  passRate(result),
		Columns:   Columns,
		Issues:    result.Issues,
	}
	if err := htmlReport.Execute(w, data); err != nil {
		return &errors.IOError{Operation: "write", Path: "html report", Err: err}
	}
	return nil
}

func writeMarkdown(w io.Writer, result *qc.Result) error {
	caser := cases.Title(language.English)

	doc := md.NewMarkdown(w)
	doc.H1("QC Report").LF()
	doc.BulletList(
		"Generated: "+result.Timestamp.Format(TimestampLayout),
		"Mode: "+caser.String(string(result.Mode)),
		fmt.Sprintf("Total parameters: %d", result.TotalParameters),
		fmt.Sprintf("Passed: %d", result.PassedCount),
		fmt.Sprintf("Failed: %d", result.FailedCount),
		fmt.Sprintf("Warnings: %d", result.WarningCount),
		"Pass rate: "+passRate(result),
	).LF()

	doc.H2("Severity Breakdown").LF()
	breakdown := make([][]string, 0, len(qc.Severities))
	for _, s := range qc.Severities {
		breakdown = append(breakdown, []string{caser.String(string(s)), fmt.Sprint(result.SeverityBreakdown[s])})
	}
	doc.Table(md.TableSet{
		Header: []string{"Severity", "Issues"},
		Rows:   breakdown,
	}).LF()

	doc.H2("Issues").LF()
	if len(result.Issues) == 0 {
		doc.PlainText("No issues found.").LF()
	} else {
		rows := make([][]string, 0, len(result.Issues))
		for _, issue := range result.Issues {
			cells := row(issue)
			for i, c := range cells {
				cells[i] = strings.ReplaceAll(c, "|", `\|`)
			}
			rows = append(rows, cells)
		}
		doc.Table(md.TableSet{
			Header: Columns,
			Rows:   rows,
		}).LF()
	}

	if err := doc.Build(); err != nil {
		return &errors.IOError{Operation: "write", Path: "markdown report", Err: err}
	}
	return nil
}

func passRate(result *qc.Result) string {
	return fmt.Sprintf("%.1f%%", result.PassRate()*100)
}
