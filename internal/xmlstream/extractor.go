package xmlstream

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/logging"
	"github.com/GriffinCanCode/paperscope/internal/record"
	"github.com/GriffinCanCode/paperscope/internal/source"
)

// Mode selects parsing strictness.
type Mode int

const (
	// Lenient skips DTD validation, resolves HTML entity names and passes
	// unknown entities through as text.
	Lenient Mode = iota
	// Strict requires a DTD, resolves only its entities and fails the whole
	// parse on malformed markup or undeclared elements.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// DefaultRecordTag delimits conference papers in the dblp dump.
const DefaultRecordTag = "inproceedings"

const defaultProgressEvery = 1_000_000

// Options configures an Extractor.
type Options struct {
	Mode      Mode
	RecordTag string // default DefaultRecordTag

	// DTDPath forces a DTD file. Otherwise the DOCTYPE system identifier is
	// resolved against BaseDir, which ExtractFile fills in from the dump path.
	DTDPath string
	BaseDir string

	// Trim asks the runtime to return freed heap to the OS once the whole
	// document has been read.
	Trim bool

	// ProgressEvery logs a progress line after this many record elements.
	ProgressEvery int64
}

func (o Options) withDefaults() Options {
	if o.RecordTag == "" {
		o.RecordTag = DefaultRecordTag
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = defaultProgressEvery
	}
	return o
}

// trimFunc releases memory to the OS and reports how many bytes went back.
type trimFunc func() (uint64, error)

// Extractor turns one XML dump into an ordered slice of records.
type Extractor struct {
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics
	trim    trimFunc
}

// New creates an Extractor. logger and metrics may be nil.
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Extractor {
	return &Extractor{
		opts:    opts.withDefaults(),
		logger:  logging.Component(logger, "xmlstream"),
		metrics: metrics,
		trim:    freeOSMemory,
	}
}

// ExtractFile opens path (plain or compressed) and extracts from it. The
// DOCTYPE's DTD is looked up next to the dump.
func (e *Extractor) ExtractFile(path string, keep record.Filter) ([]record.Record, error) {
	dump, err := source.OpenDump(path)
	if err != nil {
		return nil, err
	}
	defer dump.Close()

	opts := e.opts
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(path)
	}
	e.logger.Info("XML parsing start",
		zap.String("dump", path), zap.String("encoding", dump.MIME))
	return e.extract(dump, opts, keep)
}

// Extract reads every record element from r in document order. keep, if
// non-nil, is called once per completed record and decides admission. Any
// parse error aborts the extraction and no records are returned.
func (e *Extractor) Extract(r io.Reader, keep record.Filter) ([]record.Record, error) {
	e.logger.Info("XML parsing start")
	return e.extract(r, e.opts, keep)
}

func (e *Extractor) extract(r io.Reader, opts Options, keep record.Filter) ([]record.Record, error) {
	start := time.Now()

	sc, err := NewScanner(r, opts, e.logger)
	if err != nil {
		return nil, err
	}

	var (
		out  []record.Record
		prev = start
	)
	for {
		rec, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e.logger.Error("XML parsing failed",
				zap.Int64("scanned", sc.Scanned()), zap.Error(err))
			return nil, err
		}

		if keep == nil || keep(rec) {
			out = append(out, rec)
		}

		if n := sc.Scanned(); n%opts.ProgressEvery == 0 {
			now := time.Now()
			e.logger.Info("XML parsing progress",
				zap.String("scanned", humanize.Comma(n)),
				zap.Float64("per_second", float64(opts.ProgressEvery)/now.Sub(prev).Seconds()))
			prev = now
		}
	}

	elapsed := time.Since(start)
	e.metrics.AddRecords(monitoring.StageXML, len(out))
	e.metrics.ObserveStage(monitoring.StageXML, start)
	e.logger.Info("XML parsing complete",
		zap.String("scanned", humanize.Comma(sc.Scanned())),
		zap.String("admitted", humanize.Comma(int64(len(out)))),
		zap.Duration("elapsed", elapsed),
		zap.Stringer("mode", opts.Mode))

	if opts.Trim {
		e.trimHeap()
	}
	return out, nil
}

// trimHeap is best effort: a failure only costs memory, never the result.
func (e *Extractor) trimHeap() {
	released, err := safeTrim(e.trim)
	if err != nil {
		e.logger.Warn("Failed to trim heap memory, high memory use may persist", zap.Error(err))
		return
	}
	e.logger.Info("Heap trimmed", zap.String("released", humanize.Bytes(released)))
}

func safeTrim(fn trimFunc) (released uint64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("heap trim panicked: %v", p)
		}
	}()
	return fn()
}

func freeOSMemory() (uint64, error) {
	switch runtime.GOOS {
	case "js", "wasip1":
		return 0, fmt.Errorf("heap trim unsupported on %s", runtime.GOOS)
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	debug.FreeOSMemory()
	runtime.ReadMemStats(&after)

	if after.HeapReleased < before.HeapReleased {
		return 0, nil
	}
	return after.HeapReleased - before.HeapReleased, nil
}
