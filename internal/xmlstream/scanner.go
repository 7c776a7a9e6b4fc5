package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/paperscope/internal/record"
)

// state of the per-record machine.
type state int

const (
	idle state = iota
	inRecord
	inTitle
)

func (s state) String() string {
	switch s {
	case idle:
		return "idle"
	case inRecord:
		return "in-record"
	case inTitle:
		return "in-title"
	default:
		return "unknown"
	}
}

// Child elements of a record that map onto Record fields.
const (
	tagVenue  = "booktitle"
	tagYear   = "year"
	tagTitle  = "title"
	tagAuthor = "author"
	tagURL    = "ee"
)

// fields buffers the record in flight. It is replaced, never reused, when a
// new record starts, so emitted records share nothing with the scanner.
type fields struct {
	venue   string
	year    int
	title   string
	authors []string
	url     string
}

// Scanner pulls records out of an XML dump one at a time without building a
// document tree. Only the record currently being read is held in memory.
//
// A Scanner must not be used from more than one goroutine.
type Scanner struct {
	d      *xml.Decoder
	opts   Options
	logger *zap.Logger

	dtd    *DTD
	strict bool

	st    state
	depth int // element depth inside the current record; the record is 1

	field      string
	fieldDepth int
	text       strings.Builder

	titleDepth int
	frags      []string

	cur     fields
	scanned int64
}

// NewScanner prepares a Scanner over r. The DOCTYPE, if any, is read lazily
// as the first tokens arrive.
func NewScanner(r io.Reader, opts Options, logger *zap.Logger) (*Scanner, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(opts.RecordTag) == "" {
		return nil, ErrRecordTag
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	s := &Scanner{
		d:      d,
		opts:   opts,
		logger: logger,
		dtd:    &DTD{Entities: map[string]string{}, Elements: map[string]struct{}{}},
		strict: opts.Mode == Strict,
	}

	if opts.DTDPath != "" {
		external, err := LoadDTD(opts.DTDPath)
		if err != nil {
			if s.strict {
				return nil, err
			}
			logger.Warn("DTD unavailable, continuing without it",
				zap.String("dtd", opts.DTDPath), zap.Error(err))
		}
		s.dtd.merge(external)
	}

	if s.strict {
		d.Strict = true
	} else {
		d.Strict = false
		d.AutoClose = xml.HTMLAutoClose
		for k, v := range xml.HTMLEntity {
			if _, ok := s.dtd.Entities[k]; !ok {
				s.dtd.Entities[k] = v
			}
		}
	}
	d.Entity = s.dtd.Entities

	return s, nil
}

// Scanned is the number of record elements closed so far, admitted or not.
func (s *Scanner) Scanned() int64 {
	return s.scanned
}

// Next returns the next complete record. It returns io.EOF once the document
// ends cleanly; any other error is a *ParseError and the scan is over.
func (s *Scanner) Next() (record.Record, error) {
	for {
		tok, err := s.d.Token()
		if errors.Is(err, io.EOF) {
			if s.st != idle {
				return record.Record{}, s.fail(io.ErrUnexpectedEOF)
			}
			return record.Record{}, io.EOF
		}
		if err != nil {
			return record.Record{}, s.fail(err)
		}

		switch t := tok.(type) {
		case xml.Directive:
			if err := s.directive(string(t)); err != nil {
				return record.Record{}, s.fail(err)
			}
		case xml.StartElement:
			if err := s.start(t); err != nil {
				return record.Record{}, s.fail(err)
			}
		case xml.EndElement:
			if rec, done := s.end(); done {
				return rec, nil
			}
		case xml.CharData:
			s.chars(t)
		}
	}
}

func (s *Scanner) fail(err error) error {
	line, _ := s.d.InputPos()
	return &ParseError{Line: line, Offset: s.d.InputOffset(), Err: err}
}

func (s *Scanner) directive(text string) error {
	dt, ok := parseDoctype(text)
	if !ok {
		return nil
	}

	if dt.subset != "" {
		s.dtd.merge(ParseDTD(dt.subset))
	}

	if dt.systemID != "" && s.opts.DTDPath == "" && s.opts.BaseDir != "" {
		path := filepath.Join(s.opts.BaseDir, dt.systemID)
		external, err := LoadDTD(path)
		switch {
		case err == nil:
			s.dtd.merge(external)
		case s.strict:
			return err
		default:
			s.logger.Warn("DTD unavailable, continuing without it",
				zap.String("dtd", path), zap.Error(err))
		}
	}

	// The decoder holds the map by reference; merging above updated it.
	s.d.Entity = s.dtd.Entities
	return nil
}

func (s *Scanner) validate(name string) error {
	if !s.strict {
		return nil
	}
	if len(s.dtd.Elements) == 0 {
		return ErrNoDTD
	}
	if !s.dtd.Declares(name) {
		return fmt.Errorf("%w: <%s>", ErrUndeclaredElement, name)
	}
	return nil
}

func (s *Scanner) start(t xml.StartElement) error {
	name := t.Name.Local
	if err := s.validate(name); err != nil {
		return err
	}

	switch s.st {
	case idle:
		if name == s.opts.RecordTag {
			s.st = inRecord
			s.depth = 1
			s.cur = fields{}
			s.field = ""
		}

	case inRecord:
		s.depth++
		if s.field != "" {
			// Markup nested in a simple field; its text is still captured.
			return nil
		}
		switch name {
		case tagTitle:
			s.st = inTitle
			s.titleDepth = s.depth
			s.frags = s.frags[:0]
		case tagVenue, tagYear, tagAuthor, tagURL:
			s.field = name
			s.fieldDepth = s.depth
			s.text.Reset()
		}

	case inTitle:
		s.depth++
	}
	return nil
}

func (s *Scanner) end() (record.Record, bool) {
	switch s.st {
	case inTitle:
		if s.depth == s.titleDepth {
			s.cur.title = record.JoinFragments(s.frags)
			s.st = inRecord
		}
		s.depth--

	case inRecord:
		if s.depth == 1 {
			s.st = idle
			s.depth = 0
			s.scanned++
			c := s.cur
			s.cur = fields{}
			return record.New(c.venue, c.year, c.title, c.authors, c.url), true
		}
		if s.field != "" && s.depth == s.fieldDepth {
			s.assign(s.field, s.text.String())
			s.field = ""
		}
		s.depth--
	}
	return record.Record{}, false
}

func (s *Scanner) chars(t xml.CharData) {
	switch s.st {
	case inTitle:
		s.frags = append(s.frags, string(t))
	case inRecord:
		if s.field != "" {
			s.text.Write(t)
		}
	}
}

func (s *Scanner) assign(field, raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}

	switch field {
	case tagVenue:
		s.cur.venue = text
	case tagYear:
		year, err := strconv.Atoi(text)
		if err != nil {
			s.logger.Debug("Skipping malformed year",
				zap.String("value", text), zap.Int64("record", s.scanned+1))
			return
		}
		s.cur.year = year
	case tagAuthor:
		s.cur.authors = append(s.cur.authors, record.NormalizeTitle(text))
	case tagURL:
		if s.cur.url == "" {
			s.cur.url = text
		}
	}
}
