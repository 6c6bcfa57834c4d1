// Package cmd implements the command-line interface for chartlog.
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfairburn/chartlog/analysis"
	"github.com/nfairburn/chartlog/config"
	"github.com/nfairburn/chartlog/output"
	"github.com/nfairburn/chartlog/parser"
)

// executeAnalysis is the main execution function for the root command.
// It orchestrates the whole pipeline:
//  1. Collect input files, unpacking archives
//  2. Load configuration and apply flag overrides
//  3. Extract each file in parallel (multi-pass per file)
//  4. Merge the per-file results into one run
//  5. Write CSV, JSON and HTML outputs and the console summary
func executeAnalysis(cmd *cobra.Command, args []string) {
	startTime := time.Now()

	tempDir, err := os.MkdirTemp("", "chartlog-")
	if err != nil {
		log.Fatalf("[ERROR] Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	files := collectFiles(args, tempDir)
	if len(files) == 0 {
		fmt.Println("[INFO] No log files found. Exiting.")
		os.Exit(0)
	}

	cfg := loadConfig(cmd)
	offset := time.Duration(cfg.UTCOffsetMinutes) * time.Minute

	extractor := &analysis.Extractor{
		Classifier:   &parser.Classifier{FieldPrefix: cfg.FieldPrefix},
		Resolver:     parser.NewResolver(cfg.UTCOffsetMinutes),
		KeyRegex:     cfg.CompileKeyRegex(),
		MaxKeys:      cfg.MaxKeys,
		OtherBucket:  cfg.OtherBucket,
		Aliases:      cfg.Aliases,
		SkipFraction: cfg.SkipFraction,
	}

	results := extractAll(extractor, files)
	if len(results) == 0 {
		log.Fatalf("[ERROR] No files could be analyzed")
	}

	merged := analysis.Merge(results)

	outDir := outputFlag
	if outDir == "" {
		outDir = defaultOutputDir(files)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("[ERROR] Failed to create output directory %s: %v", outDir, err)
	}

	writeOutputs(outDir, merged, offset, len(files), startTime)

	merged.Diags.Summarize()
	output.PrintRunSummary(merged, offset, len(files), time.Since(startTime))
	fmt.Printf("\nOutput written to %s\n", outDir)
}

// loadConfig reads the config file if given, then applies flag
// overrides on top.
func loadConfig(cmd *cobra.Command) *config.Config {
	var cfg *config.Config
	var err error
	if configFlag != "" {
		cfg, err = config.Load(configFlag)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("field-prefix") {
		cfg.FieldPrefix = fieldPrefixFlag
	}
	if flags.Changed("key-regex") {
		cfg.KeyRegex = keyRegexFlag
	}
	if flags.Changed("max-keys") {
		cfg.MaxKeys = maxKeysFlag
	}
	if flags.Changed("other-bucket") {
		cfg.OtherBucket = otherBucketFlag
	}
	if flags.Changed("skip") {
		cfg.SkipFraction = skipFlag
	}
	if flags.Changed("utc-offset") {
		cfg.UTCOffsetMinutes = utcOffsetFlag
	}
	if err := cfg.MergeAliasFlags(aliasFlag); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	return cfg
}

// extractAll runs the extractor over all files using a worker pool.
// Files that fail to extract are logged and skipped; the run continues
// with the rest.
func extractAll(extractor *analysis.Extractor, files []string) []*analysis.ExtractResult {
	numWorkers := determineWorkerCount(len(files))

	fileChan := make(chan string, len(files))
	for _, file := range files {
		fileChan <- file
	}
	close(fileChan)

	var mu sync.Mutex
	var results []*analysis.ExtractResult

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range fileChan {
				res, err := extractor.ExtractFile(parser.NewFileSource(file))
				if err != nil {
					log.Printf("[ERROR] Failed to analyze file %s: %v", file, err)
					continue
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return results
}

// defaultOutputDir derives the output directory name from the most
// recently modified input file, so repeated runs over a rotating log
// set land in a stable, recognizable place.
func defaultOutputDir(files []string) string {
	newest := files[0]
	var newestTime time.Time
	for _, file := range files {
		if fi, err := os.Stat(file); err == nil && fi.ModTime().After(newestTime) {
			newestTime = fi.ModTime()
			newest = file
		}
	}

	base := filepath.Base(newest)
	for _, ext := range []string{".gz", ".zst", ".zstd", ".log", ".txt"} {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		base = "run"
	}
	return "chartlog_" + base
}

// writeOutputs writes every output artifact for the merged run.
func writeOutputs(outDir string, merged *analysis.MergeResult, offset time.Duration, fileCount int, startTime time.Time) {
	csv := &output.CSVWriter{Offset: offset}

	writeFile(filepath.Join(outDir, "status.csv"), merged.Status != nil, func(w io.Writer) error {
		return csv.WriteTable(w, merged.Status)
	})
	writeFile(filepath.Join(outDir, "user_status.csv"), merged.UserStatus != nil, func(w io.Writer) error {
		return csv.WriteTable(w, merged.UserStatus)
	})
	writeFile(filepath.Join(outDir, "proxy_status.csv"), merged.Proxy != nil, func(w io.Writer) error {
		return csv.WriteTable(w, merged.Proxy)
	})
	writeFile(filepath.Join(outDir, "summary.csv"), merged.Status != nil, func(w io.Writer) error {
		return csv.WriteSummary(w, analysis.Summarize(merged.Status))
	})
	writeFile(filepath.Join(outDir, "connections.csv"), len(merged.Connections) > 0, func(w io.Writer) error {
		return csv.WriteConnections(w, merged.Connections)
	})
	incidents := merged.Incidents.Incidents()
	writeFile(filepath.Join(outDir, "incidents.csv"), len(incidents) > 0, func(w io.Writer) error {
		return csv.WriteIncidents(w, incidents)
	})

	if jsonFlag {
		writeFile(filepath.Join(outDir, "report.json"), true, func(w io.Writer) error {
			return output.ExportJSON(w, merged, offset)
		})
	}

	info := output.HTMLReportInfo{
		Title:       filepath.Base(outDir),
		FileCount:   fileCount,
		ProcessTime: float64(time.Since(startTime).Milliseconds()),
	}
	writeFile(filepath.Join(outDir, "report.html"), true, func(w io.Writer) error {
		return output.ExportHTML(w, merged, offset, info)
	})
}

// writeFile creates one output file via the given writer function.
// Files whose section has no data are skipped entirely.
func writeFile(path string, hasData bool, fn func(io.Writer) error) {
	if !hasData {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Printf("[ERROR] Failed to create %s: %v", path, err)
		return
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		log.Printf("[ERROR] Failed to write %s: %v", path, err)
	}
	if err := w.Flush(); err != nil {
		log.Printf("[ERROR] Failed to flush %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Printf("[ERROR] Failed to close %s: %v", path, err)
	}
}
