// Package id generates run identifiers.
//
// IDs are prefixed ULIDs ("run_01HV..."), so they sort by creation time and
// are easy to pick out of logs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one pipeline run.
type RunID string

// RunPrefix marks run IDs.
const RunPrefix = "run"

func (id RunID) String() string { return string(id) }

// Timestamp returns when the run ID was generated, to the millisecond.
func (id RunID) Timestamp() (time.Time, error) {
	raw, ok := strings.CutPrefix(string(id), RunPrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("run id %q lacks %q prefix", id, RunPrefix)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// Generator generates ULIDs.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRunID generates a run ID from the default generator.
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(RunPrefix))
}
