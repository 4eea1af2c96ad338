package state

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"resound/internal/pipeline"
)

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Migration Report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
th { background: #f0f0f0; }
.failed { color: #b00; }
.published { color: #070; }
</style>
</head>
<body>
<h1>Migration Report</h1>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>

<h2>Totals</h2>
<table>
<tr><th>Catalog episodes</th><td>{{.Stats.CatalogTotal}}</td></tr>
<tr><th>Available for download</th><td>{{.Stats.CatalogAvailable}}</td></tr>
<tr><th>Published videos</th><td>{{.Stats.PublishedVideos}}</td></tr>
</table>

<h2>Pipeline stages</h2>
<table>
<tr><th>Stage</th><th>Count</th></tr>
{{range .Stages}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}</table>

<h2>Failures</h2>
{{if .Failures}}<table>
<tr><th>Episode</th><th>Stage at failure</th><th>Retries</th><th>Last error</th></tr>
{{range .Failures}}<tr class="failed"><td>{{.Identifier}}</td><td>{{.Stage}}</td><td>{{.Retries}}</td><td>{{.Message}}</td></tr>
{{end}}</table>{{else}}<p>No failed episodes.</p>{{end}}
</body>
</html>
`

type reportStage struct {
	Name  string
	Count int
}

type reportFailure struct {
	Identifier string
	Stage      string
	Retries    int
	Message    string
}

type reportData struct {
	GeneratedAt time.Time
	Stats       Statistics
	Stages      []reportStage
	Failures    []reportFailure
}

// GenerateReport writes an HTML migration summary to path and returns the
// path written.
func (m *Manager) GenerateReport(path string) (string, error) {
	if path == "" {
		path = filepath.Join(m.cfg.Paths.StateDir, "report.html")
	}

	stats := m.Statistics()
	data := reportData{
		GeneratedAt: time.Now().UTC(),
		Stats:       stats,
	}
	for _, stage := range pipeline.AllStages() {
		data.Stages = append(data.Stages, reportStage{
			Name:  string(stage),
			Count: stats.Pipeline.PerStage[stage],
		})
	}

	failed := m.pipeline.QueryByStage(pipeline.StageFailed)
	sortByIdentifier(failed)
	for _, rec := range failed {
		failure := reportFailure{
			Identifier: rec.Identifier(),
			Stage:      string(pipeline.StageFailed),
			Retries:    rec.Status.RetryCount,
		}
		if last := rec.LastError(); last != nil {
			failure.Stage = string(last.Stage)
			failure.Message = last.Message
		}
		data.Failures = append(data.Failures, failure)
	}
	sort.Slice(data.Failures, func(i, j int) bool {
		return data.Failures[i].Identifier < data.Failures[j].Identifier
	})

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return path, nil
}
