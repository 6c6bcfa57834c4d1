// Package cmd implements the command-line interface for chartlog.
package cmd

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfairburn/chartlog/parser"
)

// collectFiles gathers all log files from the provided arguments.
// Arguments can be:
//   - Individual files
//   - Glob patterns (e.g., "*.log")
//   - Directories (scans for supported log files, non-recursive)
//
// Archives among the collected files are unpacked into tempDir and
// replaced by their extracted entries.
func collectFiles(args []string, tempDir string) []string {
	var files []string

	for _, arg := range args {
		// Check if argument is a directory
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			dirFiles, err := gatherLogFiles(arg)
			if err != nil {
				log.Printf("[WARN] Failed to read directory %s: %v", arg, err)
				continue
			}
			files = append(files, dirFiles...)
			continue
		}

		// Try to expand as glob pattern
		matches, err := filepath.Glob(arg)
		if err != nil {
			log.Printf("[WARN] Invalid pattern %s: %v", arg, err)
			continue
		}
		if len(matches) == 0 {
			log.Printf("[WARN] No files match pattern: %s", arg)
			continue
		}
		files = append(files, matches...)
	}

	return expandArchives(files, tempDir)
}

// expandArchives replaces archive files with their unpacked log entries.
func expandArchives(files []string, tempDir string) []string {
	var out []string
	for _, file := range files {
		if !parser.IsArchive(file) {
			out = append(out, file)
			continue
		}
		extracted, err := parser.Unpack(file, tempDir)
		if err != nil {
			log.Printf("[ERROR] Failed to unpack archive %s: %v", file, err)
			continue
		}
		if len(extracted) == 0 {
			log.Printf("[WARN] No supported log files in archive %s", file)
			continue
		}
		out = append(out, extracted...)
	}
	return out
}

// gatherLogFiles scans a directory for supported log files (non-recursive).
func gatherLogFiles(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}

	var logFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isSupportedLogFile(entry.Name()) {
			logFiles = append(logFiles, filepath.Join(dir, entry.Name()))
		}
	}

	return logFiles, nil
}

// isSupportedLogFile reports whether the file name looks like a supported log format.
// Accepted extensions:
//   - .log, .txt
//   - .log.gz, .log.zst, .log.zstd
//   - .tar, .tar.gz, .tgz, .tar.zst, .tar.zstd, .tzst, .7z
func isSupportedLogFile(name string) bool {
	lower := strings.ToLower(name)
	supported := []string{
		".log",
		".txt",
		".log.gz",
		".log.zst",
		".log.zstd",
	}
	for _, ext := range supported {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return parser.IsArchive(name)
}
