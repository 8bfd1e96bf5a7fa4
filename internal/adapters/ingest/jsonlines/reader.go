// Package jsonlines reads input polygons written one JSON document per line, in the
// shape the API accepts
package jsonlines

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	"vdyp/internal/platform/net/http/bind"
	dom "vdyp/internal/services/fip/domain"
)

// MaxLine bounds a single polygon document
const MaxLine = 1 << 20

// Reader yields one polygon per non blank line. It implements domain.Source
type Reader struct {
	name   string
	sc     *bufio.Scanner
	line   int
	closer io.Closer
}

// NewReader reads polygons from r; name labels errors
func NewReader(name string, r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLine)
	return &Reader{name: name, sc: sc}
}

// Open reads polygons from path; "-" is stdin
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader("stdin", os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path)
	}
	rd := NewReader(filepath.Base(path), f)
	rd.closer = f
	logger.Named("jsonlines").Debug().Str("path", path).Msg("jsonlines: opened input")
	return rd, nil
}

// Next returns the next polygon or io.EOF. A line that does not decode or validate is
// a validation error for that polygon alone; the decoded polygon comes back with it
// when there is one
func (rd *Reader) Next(ctx context.Context) (*dom.InputPolygon, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeIO, "%s line %d", rd.name, rd.line+1)
			}
			return nil, io.EOF
		}
		rd.line++
		b := rd.sc.Bytes()
		if strings.TrimSpace(string(b)) == "" {
			continue
		}

		p, err := bind.Unmarshal[dom.InputPolygon](b)
		if err == nil {
			return &p, nil
		}
		verr := perr.WithField(
			perr.Wrapf(err, perr.ErrorCodeValidation, "%s line %d", rd.name, rd.line),
			perr.WireFrom(err).Field,
		)
		if perr.IsCode(err, perr.ErrorCodeValidation) {
			return &p, verr
		}
		return nil, verr
	}
}

// Line is the number of the last line read
func (rd *Reader) Line() int { return rd.line }

// Close closes a file opened by Open
func (rd *Reader) Close() error {
	if rd.closer == nil {
		return nil
	}
	err := rd.closer.Close()
	rd.closer = nil
	return err
}
