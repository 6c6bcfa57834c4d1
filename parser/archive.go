// Package parser provides line-level parsing for correlator log files.
// This file handles archive inputs: tar (optionally gzip/zstd-compressed)
// and 7z. Entries are unpacked to a temporary directory rather than
// streamed, because the multi-pass column allocator needs every log file
// to be independently re-readable.
package parser

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

var errUnsupportedArchiveEntry = errors.New("unsupported archive entry")

// IsArchive reports whether the file name looks like a supported log
// archive.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.zst", ".tar.zstd", ".tzst", ".7z"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Unpack extracts the supported log files from an archive into destDir
// and returns the extracted paths. Unsupported entries are skipped with
// an [INFO] log line. Entries keep their own compression (.log.gz stays
// gzipped); FileSource decompresses on each pass.
func Unpack(path, destDir string) ([]string, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".7z") {
		return unpack7z(path, destDir)
	}
	return unpackTar(path, destDir)
}

// unpackTar extracts log entries from a tar, tar.gz or tar.zst archive.
func unpackTar(path, destDir string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	var closer io.Closer

	if isGzipArchive(path) {
		gr, gzipErr := newParallelGzipReader(file)
		if gzipErr != nil {
			return nil, fmt.Errorf("failed to open gzip reader for archive %s: %w", path, gzipErr)
		}
		reader = gr
		closer = gr
	} else if isZstdArchive(path) {
		zr, zstdErr := newZstdDecoder(file)
		if zstdErr != nil {
			return nil, fmt.Errorf("failed to open zstd reader for archive %s: %w", path, zstdErr)
		}
		reader = zr
		closer = zr
	}

	if closer != nil {
		defer closer.Close()
	}

	tr := tar.NewReader(reader)
	var extracted []string

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extracted, fmt.Errorf("reading archive %s: %w", path, err)
		}

		if hdr == nil || hdr.Typeflag != tar.TypeReg || hdr.Size == 0 {
			continue
		}

		if !isSupportedArchiveEntry(hdr.Name) {
			if _, err := io.Copy(io.Discard, tr); err != nil {
				return extracted, fmt.Errorf("discarding entry %s in %s: %w", hdr.Name, path, err)
			}
			log.Printf("[INFO] Skipping unsupported file %s in archive %s", hdr.Name, path)
			continue
		}

		dest, err := extractEntry(destDir, hdr.Name, io.LimitReader(tr, hdr.Size))
		if err != nil {
			return extracted, fmt.Errorf("extracting %s from %s: %w", hdr.Name, path, err)
		}
		extracted = append(extracted, dest)
	}

	return extracted, nil
}

// unpack7z extracts log entries from a 7z archive.
func unpack7z(path, destDir string) ([]string, error) {
	archive, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z archive %s: %w", path, err)
	}
	defer archive.Close()

	var extracted []string
	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !isSupportedArchiveEntry(entry.Name) {
			log.Printf("[INFO] Skipping unsupported file %s in archive %s", entry.Name, path)
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return extracted, fmt.Errorf("opening %s in %s: %w", entry.Name, path, err)
		}
		dest, err := extractEntry(destDir, entry.Name, rc)
		rc.Close()
		if err != nil {
			return extracted, fmt.Errorf("extracting %s from %s: %w", entry.Name, path, err)
		}
		extracted = append(extracted, dest)
	}

	return extracted, nil
}

// extractEntry writes one archive entry to destDir and returns its path.
// Entry names are flattened to their base name; collisions get a numeric
// prefix so two entries never overwrite each other.
func extractEntry(destDir, name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.ToSlash(name))
	dest := filepath.Join(destDir, base)
	for i := 2; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%d_%s", i, base))
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dest)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

// isSupportedArchiveEntry reports whether the archive entry should be
// extracted.
func isSupportedArchiveEntry(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".log", ".log.gz", ".log.zst", ".log.zstd", ".txt"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// isGzipArchive reports whether the archive is gzip-compressed.
func isGzipArchive(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

// isZstdArchive reports whether the archive is zstd-compressed.
func isZstdArchive(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.zst") ||
		strings.HasSuffix(lower, ".tar.zstd") ||
		strings.HasSuffix(lower, ".tzst")
}
