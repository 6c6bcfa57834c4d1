// Package cmd implements the command-line interface for chartlog.
package cmd

import "runtime"

// determineWorkerCount calculates the number of parallel extraction
// workers based on the number of files and available CPU cores.
//
// Strategy:
//   - Single file: No parallelism needed (returns 1)
//   - Multiple files: Use up to NumCPU/2 workers to avoid contention
//   - Maximum: Cap at 4 workers; extraction re-reads each file several
//     times, so more workers mostly add I/O contention
//   - Never create more workers than files
func determineWorkerCount(numFiles int) int {
	if numFiles == 1 {
		return 1
	}

	maxWorkers := runtime.NumCPU() / 2
	if maxWorkers < 2 {
		maxWorkers = 2
	}
	if maxWorkers > 4 {
		maxWorkers = 4
	}

	if numFiles < maxWorkers {
		return numFiles
	}
	return maxWorkers
}
