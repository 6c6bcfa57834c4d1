package output

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/pgzip"
	"github.com/nfairburn/chartlog/analysis"
)

//go:embed report_template.html
var reportTemplate string

//go:embed report_charts.js
var reportScript string

// HTMLReportInfo contains metadata about the report generation.
type HTMLReportInfo struct {
	Title       string
	FileCount   int
	ProcessTime float64 // in milliseconds
}

// ExportHTML exports the merged run as a standalone HTML report with
// embedded data and charts. The file is fully self-contained and
// openable in any modern browser, loading nothing over the network. The
// JSON payload is gzip-compressed and base64-encoded so the browser can
// decode it with its built-in DecompressionStream; the chart script is
// minified at report time.
func ExportHTML(w io.Writer, res *analysis.MergeResult, offset time.Duration, info HTMLReportInfo) error {
	data := buildJSONData(res, offset)
	data["meta"] = map[string]interface{}{
		"title":         info.Title,
		"files":         info.FileCount,
		"parse_time_ms": info.ProcessTime,
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal report data to JSON: %w", err)
	}

	// Compress at the best gzip level; report size is dominated by the
	// row payload.
	var gzBuf bytes.Buffer
	gzWriter, err := pgzip.NewWriterLevel(&gzBuf, pgzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := gzWriter.Write(jsonBytes); err != nil {
		return fmt.Errorf("failed to compress report data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	compressed := base64.StdEncoding.EncodeToString(gzBuf.Bytes())

	script, err := minifyScript(reportScript)
	if err != nil {
		return fmt.Errorf("failed to minify report script: %w", err)
	}

	html := reportTemplate
	html = strings.Replace(html, "{{REPORT_TITLE}}", info.Title, -1)
	html = strings.Replace(html, "{{REPORT_JSON_DATA}}", compressed, 1)
	html = strings.Replace(html, "{{REPORT_SCRIPT}}", script, 1)

	if _, err := w.Write([]byte(html)); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	return nil
}

// minifyScript strips whitespace and shortens identifiers in the
// embedded chart script.
func minifyScript(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("%s", result.Errors[0].Text)
	}
	return string(result.Code), nil
}
