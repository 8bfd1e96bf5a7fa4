package fipfile

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
)

const maxLineSize = 64 * 1024

var errExhausted = errors.New("fipfile: no more groups")

// stream is one line oriented input file
type stream struct {
	name string
	sc   *bufio.Scanner
	line int
}

func newStream(name string, r io.Reader) *stream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4096), maxLineSize)
	return &stream{name: name, sc: sc}
}

// next returns the next non-blank line. ok is false at the end of the file
func (s *stream) next() (line string, ok bool, err error) {
	for s.sc.Scan() {
		s.line++
		line = strings.TrimRight(s.sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, true, nil
	}
	if err := s.sc.Err(); err != nil {
		return "", false, perr.Wrapf(err, perr.ErrorCodeIO, "read %s", s.name)
	}
	return "", false, nil
}

func (s *stream) at() position { return position{file: s.name, line: s.line} }

// group reads records up to and including the end of group marker. It returns
// errExhausted when the file has ended before the group started
func (s *stream) group(parse func(string, position) (record, error)) ([]record, error) {
	var out []record
	for {
		line, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			if len(out) == 0 {
				return nil, errExhausted
			}
			return out, nil
		}
		r, err := parse(line, s.at())
		if err != nil {
			return nil, err
		}
		if r.end() {
			return out, nil
		}
		out = append(out, r)
	}
}

// Reader yields polygons assembled from the three FIP input files. It implements
// domain.Source
type Reader struct {
	polygons *stream
	layers   *stream
	species  *stream
	closers  []io.Closer
	read     int
}

// NewReader reads polygons, layers and species from the given streams
func NewReader(polygons, layers, species io.Reader) *Reader {
	return &Reader{
		polygons: newStream("polygon", polygons),
		layers:   newStream("layer", layers),
		species:  newStream("species", species),
	}
}

// Open opens the three input files
func Open(polygonPath, layerPath, speciesPath string) (*Reader, error) {
	var files []*os.File
	for _, p := range []string{polygonPath, layerPath, speciesPath} {
		f, err := os.Open(p)
		if err != nil {
			for _, o := range files {
				_ = o.Close()
			}
			return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", p)
		}
		files = append(files, f)
	}
	rd := NewReader(files[0], files[1], files[2])
	rd.polygons.name = filepath.Base(polygonPath)
	rd.layers.name = filepath.Base(layerPath)
	rd.species.name = filepath.Base(speciesPath)
	for _, f := range files {
		rd.closers = append(rd.closers, f)
	}
	logger.Named("fipfile").Debug().
		Str("polygons", polygonPath).
		Str("layers", layerPath).
		Str("species", speciesPath).
		Msg("fipfile: opened inputs")
	return rd, nil
}

// Next returns the next polygon with its layers and species, or io.EOF after the last
// polygon. Records that belong to another polygon, or species of a missing layer, give
// the polygon back with a validation error; the streams stay aligned for the next call
func (rd *Reader) Next(ctx context.Context) (*dom.InputPolygon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line, ok, err := rd.polygons.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	p, err := parsePolygon(line, rd.polygons.at())
	if err != nil {
		return nil, err
	}

	layers, err := rd.layers.group(parseLayer)
	if errors.Is(err, errExhausted) {
		return nil, perr.IOf("Layers file has fewer records than polygon file.")
	}
	if err != nil {
		return nil, err
	}
	species, err := rd.species.group(parseSpecies)
	if errors.Is(err, errExhausted) {
		return nil, perr.IOf("Species file has fewer records than polygon file.")
	}
	if err != nil {
		return nil, err
	}
	rd.read++

	for _, r := range layers {
		if r.layer == nil {
			continue
		}
		if r.id != p.ID {
			return p, perr.Validationf("Record in layer file contains layer for polygon %s when expecting one for %s.", r.id, p.ID)
		}
		p.Layers[r.layer.Type] = r.layer
	}
	for _, r := range species {
		if r.specie == nil {
			continue
		}
		if r.id != p.ID {
			return p, perr.Validationf("Record in species file contains species for polygon %s when expecting one for %s.", r.id, p.ID)
		}
		t, _ := layerType(r.code)
		l, ok := p.Layer(t)
		if !ok {
			return p, perr.Validationf("Species entry references layer %s of polygon %s but it is not present.", t, p.ID)
		}
		addSpecies(l, r.specie)
	}
	return p, nil
}

// addSpecies appends sp, replacing an earlier entry of the same genus in place
func addSpecies(l *dom.InputLayer, sp *dom.InputSpecies) {
	for i, s := range l.Species {
		if s.Genus == sp.Genus {
			l.Species[i] = sp
			return
		}
	}
	l.Species = append(l.Species, sp)
}

// Read returns the number of polygons read so far
func (rd *Reader) Read() int { return rd.read }

// Close closes files opened by Open
func (rd *Reader) Close() error {
	var first error
	for _, c := range rd.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	rd.closers = nil
	return first
}
