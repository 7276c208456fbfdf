// Package location streams device position fixes to subscribers.
package location

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// Source yields position fixes. io.EOF ends the stream.
type Source interface {
	Next(ctx context.Context) (domain.Coordinate, error)
}

// ReaderSource parses "lat,lon" lines. Blank lines and lines starting with
// '#' are ignored; malformed or out-of-range lines are skipped with a warning.
type ReaderSource struct {
	r     io.Reader
	lines chan readResult
	quit  chan struct{}
	start sync.Once
	stop  sync.Once
	line  int
}

type readResult struct {
	text string
	err  error
}

// NewReaderSource reads fixes from r, e.g. stdin or a track file.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, lines: make(chan readResult), quit: make(chan struct{})}
}

func (s *ReaderSource) read() {
	defer close(s.lines)
	sc := bufio.NewScanner(s.r)
	for sc.Scan() {
		select {
		case s.lines <- readResult{text: sc.Text()}:
		case <-s.quit:
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case s.lines <- readResult{err: err}:
		case <-s.quit:
		}
	}
}

// Next blocks until the next valid line is read or ctx ends.
func (s *ReaderSource) Next(ctx context.Context) (domain.Coordinate, error) {
	s.start.Do(func() { go s.read() })
	for {
		var res readResult
		select {
		case <-ctx.Done():
			return domain.Coordinate{}, ctx.Err()
		case r, ok := <-s.lines:
			if !ok {
				return domain.Coordinate{}, io.EOF
			}
			res = r
		}
		if res.err != nil {
			return domain.Coordinate{}, fmt.Errorf("read location: %w", res.err)
		}
		s.line++

		text := strings.TrimSpace(res.text)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		c, err := ParseFix(text)
		if err != nil {
			slog.WarnContext(ctx, "skipping location line", "line", s.line, "error", err)
			continue
		}
		return c, nil
	}
}

// Close releases the reading goroutine and closes the underlying reader if
// it is an io.Closer, which unblocks a pending read. Safe to call twice.
func (s *ReaderSource) Close() error {
	var err error
	s.stop.Do(func() {
		close(s.quit)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

// ParseFix parses "lat,lon" (whitespace around either value is allowed).
func ParseFix(text string) (domain.Coordinate, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return domain.Coordinate{}, fmt.Errorf("%w: want \"lat,lon\", got %q", domain.ErrInvalidInput, text)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: latitude %q", domain.ErrInvalidInput, parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: longitude %q", domain.ErrInvalidInput, parts[1])
	}
	c := domain.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}

// StaticSource replays a fixed list of fixes, then reports io.EOF.
type StaticSource struct {
	mu    sync.Mutex
	fixes []domain.Coordinate
}

// NewStaticSource returns a source that yields fixes in order.
func NewStaticSource(fixes ...domain.Coordinate) *StaticSource {
	return &StaticSource{fixes: fixes}
}

func (s *StaticSource) Next(ctx context.Context) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fixes) == 0 {
		return domain.Coordinate{}, io.EOF
	}
	c := s.fixes[0]
	s.fixes = s.fixes[1:]
	return c, nil
}
