package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/paperscope/internal/config"
	"github.com/GriffinCanCode/paperscope/internal/frequency"
	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/listing"
	"github.com/GriffinCanCode/paperscope/internal/reconcile"
	"github.com/GriffinCanCode/paperscope/internal/record"
	"github.com/GriffinCanCode/paperscope/internal/xmlstream"
)

const dump = `<?xml version="1.0"?>
<dblp>
<inproceedings><author>A</author><title>Deep Residual Learning.</title><year>2016</year><booktitle>CVPR</booktitle></inproceedings>
<inproceedings><title>Attention Networks.</title><year>2017</year><booktitle>ICML</booktitle></inproceedings>
<inproceedings><title>Old Paper.</title><year>2009</year><booktitle>ICML</booktitle></inproceedings>
<inproceedings><title>Graph Learning.</title><year>2017</year><booktitle>AAAI</booktitle></inproceedings>
</dblp>
`

const cvpr2016 = `<html><body>
<cite class="data">header</cite>
<cite class="data"><span itemprop="author">A</span><span class="title">Deep Residual Learning.</span></cite>
<cite class="data"><span class="title">Missing From Dump.</span></cite>
</body></html>
`

func fixture(t *testing.T) (dumpPath, listingDir string) {
	t.Helper()
	dir := t.TempDir()
	dumpPath = filepath.Join(dir, "dblp.xml")
	require.NoError(t, os.WriteFile(dumpPath, []byte(dump), 0o644))

	listingDir = filepath.Join(dir, "pages")
	require.NoError(t, os.Mkdir(listingDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(listingDir, "cvpr-2016"), []byte(cvpr2016), 0o644))
	return dumpPath, listingDir
}

func testOptions(dumpPath, listingDir string) Options {
	return Options{
		DumpPath:    dumpPath,
		ListingDir:  listingDir,
		ListingGlob: "*-[0-9][0-9][0-9][0-9]",
		Profile:     config.Profile{StartYear: 2015, EndYear: 2020, Venues: []string{"CVPR", "ICML"}},
		Listing:     listing.Options{Workers: 2},
		Reconcile:   reconcile.Options{Workers: 2},
		Aggregate:   frequency.Options{Workers: 2, Tokenizer: frequency.NewTokenizer(nil, nil)},
	}
}

func TestRun(t *testing.T) {
	dumpPath, listingDir := fixture(t)
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)

	rep, err := Run(testOptions(dumpPath, listingDir), zaptest.NewLogger(t), m)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 3, rep.DumpRecords)
	assert.Len(t, rep.Records(), 3)
	assert.Equal(t, 2, rep.ListingRecords)

	assert.Equal(t, frequency.Table{
		"CVPR": {2016: 1},
		"ICML": {2017: 1},
	}, rep.Counts)

	require.NotNil(t, rep.Reconciliation)
	assert.Equal(t, []int{1}, rep.Reconciliation.Indices())
	assert.Equal(t, "Missing From Dump.", rep.Reconciliation.Mismatches[0].Record.Title)

	assert.Equal(t, map[int]int{2015: 0, 2016: 1, 2017: 2, 2018: 0, 2019: 0}, rep.Consumed)
	require.Contains(t, rep.Terms, 2017)
	assert.Equal(t, 4, rep.Terms[2017].Terms)
	assert.NotContains(t, rep.Terms, 2018)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsExtracted.WithLabelValues(monitoring.StageXML)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mismatches))
}

func TestRunWithoutListings(t *testing.T) {
	dumpPath, _ := fixture(t)
	opts := testOptions(dumpPath, "")

	rep, err := Run(opts, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, rep.Reconciliation)
	assert.Zero(t, rep.ListingRecords)
}

func TestRunFailures(t *testing.T) {
	dumpPath, listingDir := fixture(t)

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing dump", func(o *Options) { o.DumpPath = filepath.Join(t.TempDir(), "none.xml") }},
		{"missing listing dir", func(o *Options) { o.ListingDir = filepath.Join(t.TempDir(), "none") }},
		{"invalid profile", func(o *Options) { o.Profile.EndYear = o.Profile.StartYear }},
		{"strict without dtd", func(o *Options) { o.XML.Mode = xmlstream.Strict }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(dumpPath, listingDir)
			tt.mutate(&opts)

			rep, err := Run(opts, nil, nil)
			assert.Error(t, err)
			assert.Nil(t, rep)
		})
	}
}

func TestReportEncode(t *testing.T) {
	dumpPath, listingDir := fixture(t)
	rep, err := Run(testOptions(dumpPath, listingDir), nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.Encode(&buf))

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rep.RunID.String(), decoded["run_id"])
	assert.EqualValues(t, 3, decoded["dump_records"])
	assert.Contains(t, decoded, "counts")
	assert.Contains(t, decoded, "reconciliation")
	assert.NotContains(t, decoded, "records")
}

func TestReportEncodeSingleTermYear(t *testing.T) {
	agg := frequency.New(frequency.Options{Tokenizer: frequency.NewTokenizer(nil, nil)}, zaptest.NewLogger(t), nil)
	res := agg.Aggregate([]record.Record{
		record.New("NeurIPS", 2021, "Transformers.", nil, ""),
	}, []int{2021})
	require.Contains(t, res.Weights, 2021)
	require.Len(t, res.Weights[2021], 1)

	rep := &Report{
		Profile:  config.DefaultProfile(),
		Terms:    res.Summaries(DefaultTopTerms),
		Consumed: res.Consumed,
	}

	var buf bytes.Buffer
	require.NoError(t, rep.Encode(&buf))

	var decoded struct {
		Terms map[string]frequency.Summary `json:"terms"`
	}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	require.Contains(t, decoded.Terms, "2021")
	assert.Equal(t, 1, decoded.Terms["2021"].Terms)
	assert.Zero(t, decoded.Terms["2021"].StdDev)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Parse.Strict = true
	cfg.Parse.HTMLEngine = "xpath"
	cfg.Workers.Extract = 3

	opts, err := FromConfig(cfg, config.DefaultProfile())
	require.NoError(t, err)

	assert.Equal(t, xmlstream.Strict, opts.XML.Mode)
	assert.Equal(t, "inproceedings", opts.XML.RecordTag)
	assert.True(t, opts.XML.Trim)
	assert.Equal(t, "xpath", opts.Listing.Engine.Name())
	assert.Equal(t, 3, opts.Listing.Workers)
	assert.Equal(t, 6, opts.Reconcile.Partitions())
	assert.Equal(t, runtime.NumCPU(), opts.Aggregate.Workers)
	assert.Equal(t, DefaultTopTerms, opts.TopTerms)

	cfg.Parse.HTMLEngine = "bogus"
	_, err = FromConfig(cfg, config.DefaultProfile())
	assert.Error(t, err)
}
