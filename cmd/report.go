package cmd

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	v1 "github.com/example/docksweep/internal/schema/v1"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an HTML or Markdown report from a df snapshot",
	Long: `Generate a human-readable disk-usage report in HTML or Markdown format
from the JSON output of the df command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return runReport(input, format, output)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("input", "i", "docksweep.json", "Input JSON file from df")
	reportCmd.Flags().StringP("format", "f", "html", "Output format: html or md")
	reportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}

func runReport(input, format, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var report v1.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if report.SchemaVersion != "1.0" {
		return fmt.Errorf("unsupported schema version: %q", report.SchemaVersion)
	}

	var result string
	switch format {
	case "html":
		result, err = generateHTML(&report)
	case "md":
		result, err = generateMarkdown(&report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Print(result)
	} else {
		if err := os.WriteFile(output, []byte(result), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Printf("Report written to %s\n", output)
	}

	return nil
}

func sizeOf(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func generateHTML(report *v1.Report) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <title>Docksweep Disk Usage Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1, h2, h3 { color: #333; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        td.num { text-align: right; }
        .inuse { color: green; }
        .reclaimable { color: #b8860b; }
    </style>
</head>
<body>
    <h1>Docksweep Disk Usage Report</h1>
    <p><strong>Taken at:</strong> {{.Snapshot.TakenAt.Format "2006-01-02 15:04:05"}} (snapshot #{{.Snapshot.Generation}})</p>

    <h2>Engine</h2>
    <p><strong>Version:</strong> {{.Engine.Version}}</p>
    <p><strong>Operating System:</strong> {{.Engine.OperatingSystem}}</p>
    <p><strong>Storage Root:</strong> {{.Engine.DataRoot}}</p>

    <h2>Totals</h2>
    <table>
        <tr>
            <th>Total Usage</th>
            <th>Layers</th>
            <th>Build Cache</th>
            <th>Reclaimable</th>
        </tr>
        <tr>
            <td class="num">{{size .Totals.TotalBytes}}</td>
            <td class="num">{{size .Totals.LayersBytes}}</td>
            <td class="num">{{size .Totals.BuilderBytes}}</td>
            <td class="num reclaimable">{{size .Totals.ReclaimableBytes}}</td>
        </tr>
    </table>

    <h2>Images ({{len .Images}})</h2>
    <table>
        <tr>
            <th>Name</th>
            <th>Size</th>
            <th>Shared</th>
            <th>Reclaimable</th>
            <th>In Use</th>
        </tr>
        {{range .Images}}
        <tr>
            <td>{{.Name}}</td>
            <td class="num">{{size .TotalBytes}}</td>
            <td class="num">{{size .SharedBytes}}</td>
            <td class="num">{{size .ReclaimableBytes}}</td>
            <td>{{if .InUse}}<span class="inuse">yes</span>{{else}}no{{end}}</td>
        </tr>
        {{end}}
    </table>

    <h2>Containers ({{len .Containers}})</h2>
    <table>
        <tr>
            <th>Name</th>
            <th>Command</th>
            <th>Size</th>
            <th>Created</th>
            <th>Running</th>
        </tr>
        {{range .Containers}}
        <tr>
            <td>{{.Name}}</td>
            <td>{{.Detail}}</td>
            <td class="num">{{size .TotalBytes}}</td>
            <td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
            <td>{{if .InUse}}<span class="inuse">yes</span>{{else}}no{{end}}</td>
        </tr>
        {{end}}
    </table>

    <h2>Volumes ({{len .Volumes}})</h2>
    <table>
        <tr>
            <th>Name</th>
            <th>Mountpoint</th>
            <th>Size</th>
            <th>In Use</th>
        </tr>
        {{range .Volumes}}
        <tr>
            <td>{{.Name}}</td>
            <td>{{.Detail}}</td>
            <td class="num">{{size .TotalBytes}}</td>
            <td>{{if .InUse}}<span class="inuse">yes</span>{{else}}no{{end}}</td>
        </tr>
        {{end}}
    </table>

    <h2>Build Cache ({{len .BuildCache}})</h2>
    <table>
        <tr>
            <th>ID</th>
            <th>Description</th>
            <th>Size</th>
            <th>In Use</th>
        </tr>
        {{range .BuildCache}}
        <tr>
            <td>{{.ID}}</td>
            <td>{{.Detail}}</td>
            <td class="num">{{size .TotalBytes}}</td>
            <td>{{if .InUse}}<span class="inuse">yes</span>{{else}}no{{end}}</td>
        </tr>
        {{end}}
    </table>
</body>
</html>
`
	t, err := template.New("report").Funcs(template.FuncMap{"size": sizeOf}).Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func generateMarkdown(report *v1.Report) (string, error) {
	md := fmt.Sprintf(`# Docksweep Disk Usage Report

**Taken at:** %s (snapshot #%d)

## Engine
- **Version:** %s
- **Operating System:** %s
- **Storage Root:** %s

## Totals
| Total Usage | Layers | Build Cache | Reclaimable |
|-------------|--------|-------------|-------------|
| %s | %s | %s | %s |

## Images (%d)

| Name | Size | Shared | Reclaimable | In Use |
|------|------|--------|-------------|--------|
`, report.Snapshot.TakenAt.Format("2006-01-02 15:04:05"), report.Snapshot.Generation,
		report.Engine.Version, report.Engine.OperatingSystem, report.Engine.DataRoot,
		sizeOf(report.Totals.TotalBytes), sizeOf(report.Totals.LayersBytes),
		sizeOf(report.Totals.BuilderBytes), sizeOf(report.Totals.ReclaimableBytes),
		len(report.Images))
	for _, img := range report.Images {
		md += fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			img.Name, sizeOf(img.TotalBytes), sizeOf(img.SharedBytes),
			sizeOf(img.ReclaimableBytes), yesNo(img.InUse))
	}

	md += fmt.Sprintf(`
## Containers (%d)

| Name | Command | Size | Created | Running |
|------|---------|------|---------|---------|
`, len(report.Containers))
	for _, ct := range report.Containers {
		md += fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			ct.Name, ct.Detail, sizeOf(ct.TotalBytes),
			ct.CreatedAt.Format("2006-01-02 15:04"), yesNo(ct.InUse))
	}

	md += fmt.Sprintf(`
## Volumes (%d)

| Name | Mountpoint | Size | In Use |
|------|------------|------|--------|
`, len(report.Volumes))
	for _, vol := range report.Volumes {
		md += fmt.Sprintf("| %s | %s | %s | %s |\n",
			vol.Name, vol.Detail, sizeOf(vol.TotalBytes), yesNo(vol.InUse))
	}

	md += fmt.Sprintf(`
## Build Cache (%d)

| ID | Description | Size | In Use |
|----|-------------|------|--------|
`, len(report.BuildCache))
	for _, bc := range report.BuildCache {
		md += fmt.Sprintf("| %s | %s | %s | %s |\n",
			bc.ID, bc.Detail, sizeOf(bc.TotalBytes), yesNo(bc.InUse))
	}

	return md, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
