// Package parser provides line-level parsing for correlator log files.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// Buffer size constants for the line scanner.
const (
	// scannerBuffer is the initial buffer size for reading log lines (4 MB)
	scannerBuffer = 4 * 1024 * 1024

	// scannerMaxBuffer is the maximum buffer size for very long lines (100 MB)
	scannerMaxBuffer = 100 * 1024 * 1024
)

// ErrStopScan can be returned from a ScanRecords callback to end the
// pass early without error. The column allocator uses this to abandon a
// discovery pass as soon as a schema overflow is detected.
var ErrStopScan = errors.New("stop scan")

// LineSource is a re-readable sequence of log lines. Re-readability is
// required by the multi-pass column allocation algorithm: every call to
// Open starts a fresh pass from the beginning of the content.
type LineSource interface {
	// Name identifies the source (normally the file path).
	Name() string

	// Open returns a reader positioned at the start of the content.
	// Compressed sources decompress transparently on every pass.
	Open() (io.ReadCloser, error)
}

// FileSource is a LineSource over a plain, gzip- or zstd-compressed log
// file, selected by file extension.
type FileSource struct {
	Path string
}

// NewFileSource returns a re-readable source for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.Path }

// Open opens the file for a fresh pass, decompressing if needed.
func (s *FileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", s.Path, err)
	}

	lower := strings.ToLower(s.Path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		gr, err := newParallelGzipReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open gzip reader for %s: %w", s.Path, err)
		}
		return &stackedCloser{Reader: gr, closers: []io.Closer{gr, file}}, nil

	case strings.HasSuffix(lower, ".zst"), strings.HasSuffix(lower, ".zstd"):
		zr, err := newZstdDecoder(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open zstd reader for %s: %w", s.Path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, file}}, nil

	default:
		return file, nil
	}
}

// StringSource is a LineSource over in-memory content, used by tests.
type StringSource struct {
	SourceName string
	Content    string
}

// Name returns the configured source name.
func (s *StringSource) Name() string { return s.SourceName }

// Open returns a fresh reader over the content.
func (s *StringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Content)), nil
}

// stackedCloser closes a decompressor and its underlying file in order.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newParallelGzipReader returns a pgzip reader configured for parallel
// decompression.
func newParallelGzipReader(r io.Reader) (*pgzip.Reader, error) {
	threads := runtime.GOMAXPROCS(0)
	if threads < 1 {
		threads = 1
	}
	if threads > 8 {
		threads = 8 // cap to avoid excessive goroutine churn on large hosts
	}

	const blockSize = 1 << 20 // 1 MiB blocks balance throughput and memory usage
	return pgzip.NewReaderN(r, blockSize, threads)
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// newZstdDecoder returns a zstd decoder configured for streaming
// decompression.
func newZstdDecoder(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &zstdReadCloser{Decoder: dec}, nil
}

// ScanRecords drives one pass over a source: each line is stripped of
// any container prefix, split into its timestamp/level/thread/message
// parts, timestamp-resolved and classified, and the resulting record is
// handed to fn. Lines with malformed or missing timestamps are dropped
// with a diagnostic, except startup-banner lines which are retained
// without an instant.
//
// fn may return ErrStopScan to end the pass early without error; any
// other error aborts the pass and is returned.
func ScanRecords(src LineSource, c *Classifier, r *Resolver, diags *Diagnostics, fn func(Record) error) error {
	reader, err := src.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	buf := make([]byte, scannerBuffer)
	scanner.Buffer(buf, scannerMaxBuffer)

	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}

		line, _ = StripContainerPrefix(line)

		ts, level, thread, message, ok := splitLinePrefix(line)
		if !ok {
			// Not a standard log line. Startup banners may appear
			// without a timestamp prefix; everything else is noise.
			if isBareBannerLine(line) {
				rec := Record{
					Kind:    KindStartupBanner,
					Message: line,
					Raw:     raw,
					Num:     lineno,
					Source:  src.Name(),
				}
				if err := fn(rec); err != nil {
					return stopScanErr(err)
				}
				continue
			}
			diags.Recordf("malformedLine", "%s:%d", src.Name(), lineno)
			continue
		}

		instant, err := r.Resolve(ts)
		if err != nil {
			diags.Recordf("unparseableTimestamp", "%s:%d", src.Name(), lineno)
			continue
		}

		kind, rest := c.Classify(level, message)
		rec := Record{
			Kind:    kind,
			Instant: instant,
			Level:   level,
			Thread:  thread,
			Message: rest,
			Raw:     raw,
			Num:     lineno,
			Source:  src.Name(),
		}
		if err := fn(rec); err != nil {
			return stopScanErr(err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	return nil
}

// isBareBannerLine recognizes startup banner lines that carry no
// timestamp prefix, such as the "#####" header block the correlator
// writes before logging proper begins.
func isBareBannerLine(line string) bool {
	return strings.HasPrefix(line, "#") || strings.Contains(line, bannerPrefix)
}

func stopScanErr(err error) error {
	if errors.Is(err, ErrStopScan) {
		return nil
	}
	return err
}
