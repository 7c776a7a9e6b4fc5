package xmlstream

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/record"
)

const sampleDump = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE dblp SYSTEM "dblp.dtd">
<dblp>
<article key="journals/x/1"><title>Not a paper</title><year>2019</year></article>
<inproceedings key="conf/cvpr/HeZRS16">
<author>Kaiming He</author>
<author>Xiangyu Zhang</author>
<title>Deep Residual Learning for Image Recognition.</title>
<pages>770-778</pages>
<year>2016</year>
<booktitle>CVPR</booktitle>
<ee>https://doi.org/10.1109/CVPR.2016.90</ee>
<ee>https://ieeexplore.ieee.org/1</ee>
</inproceedings>
<inproceedings key="conf/icml/A21">
<author>Ada Lovelace</author>
<title>Learning <i>deep</i> nets with <sub>2</sub> layers.</title>
<year>2021</year>
<booktitle>icml</booktitle>
</inproceedings>
<inproceedings key="conf/aaai/B20">
<title>  Padded
   title </title>
<year>20x1</year>
<booktitle>AAAI</booktitle>
</inproceedings>
</dblp>
`

func sampleRecords() []record.Record {
	return []record.Record{
		record.New("CVPR", 2016, "Deep Residual Learning for Image Recognition.",
			[]string{"Kaiming He", "Xiangyu Zhang"}, "https://doi.org/10.1109/CVPR.2016.90"),
		record.New("ICML", 2021, "Learning deep nets with 2 layers.", []string{"Ada Lovelace"}, ""),
		record.New("AAAI", 0, "Padded title", nil, ""),
	}
}

func newTestExtractor(t *testing.T, opts Options) *Extractor {
	return New(opts, zaptest.NewLogger(t), nil)
}

func TestExtractRecords(t *testing.T) {
	ex := newTestExtractor(t, Options{})

	got, err := ex.Extract(strings.NewReader(sampleDump), nil)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestExtractFilter(t *testing.T) {
	ex := newTestExtractor(t, Options{})
	calls := 0

	got, err := ex.Extract(strings.NewReader(sampleDump), func(r record.Record) bool {
		calls++
		return r.Year >= 2020
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calls, "filter runs once per record element")
	require.Len(t, got, 1)
	assert.Equal(t, "ICML", got[0].Venue)
}

func TestExtractIsDeterministic(t *testing.T) {
	ex := newTestExtractor(t, Options{})

	first, err := ex.Extract(strings.NewReader(sampleDump), nil)
	require.NoError(t, err)
	second, err := ex.Extract(strings.NewReader(sampleDump), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func buildDump(n int) string {
	var sb strings.Builder
	sb.WriteString("<dblp>\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "<inproceedings key=\"k%d\"><author>A%d</author><title>Paper <i>%d</i> title</title><year>%d</year><booktitle>AAAI</booktitle></inproceedings>\n",
			i, i, i, 2000+i%20)
		if i%7 == 0 {
			sb.WriteString("<article><title>skip</title></article>\n")
		}
	}
	sb.WriteString("</dblp>\n")
	return sb.String()
}

func TestExtractCountMatchesElements(t *testing.T) {
	const n = 1234
	m := monitoring.NewMetrics(nil)
	ex := New(Options{ProgressEvery: 100}, zap.NewNop(), m)

	got, err := ex.Extract(strings.NewReader(buildDump(n)), func(record.Record) bool { return true })
	require.NoError(t, err)

	assert.Len(t, got, n)
	assert.Equal(t, "Paper 17 title", got[17].Title)
	assert.Equal(t, float64(n), testutil.ToFloat64(m.RecordsExtracted.WithLabelValues(monitoring.StageXML)))
}

func TestNestedTitles(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "<title>Plain title.</title>", "Plain title."},
		{"emphasis", "<title>On <i>very</i> deep nets</title>", "On very deep nets"},
		{"leading markup", "<title><i>Deep</i> nets</title>", "Deep nets"},
		{"trailing markup", "<title>Nets for <tt>Go</tt></title>", "Nets for Go"},
		{"nested twice", "<title>A <i>b <sub>c</sub> d</i> e</title>", "A b c d e"},
		{"adjacent fragments", "<title>H<sub>2</sub>O</title>", "H 2 O"},
		{"whitespace only gaps", "<title>\n  A\n  <i>B</i>\n  C\n</title>", "A B C"},
		{"empty", "<title></title>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "<dblp><inproceedings>" + tt.title + "<year>2020</year></inproceedings></dblp>"

			got, err := New(Options{}, nil, nil).Extract(strings.NewReader(doc), nil)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Title)
		})
	}
}

func TestMissingFieldsDefault(t *testing.T) {
	doc := "<dblp><inproceedings><year> </year></inproceedings></dblp>"

	got, err := New(Options{}, nil, nil).Extract(strings.NewReader(doc), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "", r.Venue)
	assert.Zero(t, r.Year)
	assert.Equal(t, "", r.Title)
	assert.NotNil(t, r.Authors)
	assert.Equal(t, "", r.URL)
}

func TestCustomRecordTag(t *testing.T) {
	got, err := New(Options{RecordTag: "article"}, nil, nil).Extract(strings.NewReader(sampleDump), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Not a paper", got[0].Title)
	assert.Equal(t, 2019, got[0].Year)
}

func TestBlankRecordTag(t *testing.T) {
	_, err := New(Options{RecordTag: "  "}, nil, nil).Extract(strings.NewReader(sampleDump), nil)
	assert.ErrorIs(t, err, ErrRecordTag)
}

func TestLenientEntities(t *testing.T) {
	doc := `<dblp><inproceedings><author>J&uuml;rgen M&ouml;ller</author><title>Fish &amp; Chips &bogus;</title></inproceedings></dblp>`

	got, err := New(Options{Mode: Lenient}, nil, nil).Extract(strings.NewReader(doc), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Jürgen Möller"}, got[0].Authors)
	assert.Equal(t, "Fish & Chips &bogus;", got[0].Title)
}

func TestLatin1Dump(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<dblp><inproceedings><author>M\xfcller</author></inproceedings></dblp>"

	got, err := New(Options{}, nil, nil).Extract(strings.NewReader(doc), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Müller"}, got[0].Authors)
}

const strictDump = `<?xml version="1.0"?>
<!DOCTYPE dblp [
<!ELEMENT dblp (inproceedings)*>
<!ELEMENT inproceedings (author*, title, year, booktitle)>
<!ELEMENT author (#PCDATA)>
<!ELEMENT title (#PCDATA|i)*>
<!ELEMENT i (#PCDATA)>
<!ELEMENT year (#PCDATA)>
<!ELEMENT booktitle (#PCDATA)>
<!ATTLIST inproceedings key CDATA #REQUIRED>
<!ENTITY uuml "&#252;">
]>
<dblp>
<inproceedings key="k"><author>J&uuml;rgen</author><title>On <i>strict</i> parsing</title><year>2022</year><booktitle>IJCAI</booktitle></inproceedings>
%s
</dblp>
`

func TestStrictInlineDTD(t *testing.T) {
	got, err := New(Options{Mode: Strict}, nil, nil).Extract(strings.NewReader(fmt.Sprintf(strictDump, "")), nil)
	require.NoError(t, err)

	want := []record.Record{record.New("IJCAI", 2022, "On strict parsing", []string{"Jürgen"}, "")}
	assert.Equal(t, want, got)
}

func TestStrictChecksDeclarationsOnly(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  record.Record
	}{
		{
			name:  "children out of content model order",
			inner: `<inproceedings key="x"><booktitle>AAAI</booktitle><year>2020</year><title>Reordered</title></inproceedings>`,
			want:  record.New("AAAI", 2020, "Reordered", nil, ""),
		},
		{
			name:  "required attribute missing",
			inner: `<inproceedings><title>Keyless</title><year>2021</year><booktitle>ICML</booktitle></inproceedings>`,
			want:  record.New("ICML", 2021, "Keyless", nil, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(Options{Mode: Strict}, nil, nil).Extract(strings.NewReader(fmt.Sprintf(strictDump, tt.inner)), nil)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, tt.want, got[1])
		})
	}
}

func TestStrictFailures(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "undeclared element",
			doc:     fmt.Sprintf(strictDump, `<inproceedings key="x"><title>t</title><pages>1-2</pages></inproceedings>`),
			wantErr: ErrUndeclaredElement,
		},
		{
			name:    "no dtd",
			doc:     `<dblp><inproceedings><title>t</title></inproceedings></dblp>`,
			wantErr: ErrNoDTD,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(Options{Mode: Strict}, nil, nil).Extract(strings.NewReader(tt.doc), nil)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Positive(t, perr.Line)
		})
	}
}

func TestStrictUnknownEntity(t *testing.T) {
	doc := fmt.Sprintf(strictDump, `<inproceedings key="x"><title>&bogus;</title><year>1</year><booktitle>A</booktitle></inproceedings>`)

	_, err := New(Options{Mode: Strict}, nil, nil).Extract(strings.NewReader(doc), nil)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestMalformedDocumentIsFatal(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		doc  string
	}{
		{"truncated lenient", Lenient, "<dblp><inproceedings><title>Cut off"},
		{"truncated strict", Strict, fmt.Sprintf(strictDump, "")[:400]},
		{"mismatched strict", Strict, fmt.Sprintf(strictDump, `<inproceedings key="x"><title>t</year></inproceedings>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(Options{Mode: tt.mode}, nil, nil).Extract(strings.NewReader(tt.doc), nil)
			assert.Nil(t, got)

			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

const externalDTD = `<!ELEMENT dblp (inproceedings)*>
<!ELEMENT inproceedings (author*, title, year, booktitle, ee*)>
<!ELEMENT author (#PCDATA)>
<!ELEMENT title (#PCDATA)>
<!ELEMENT year (#PCDATA)>
<!ELEMENT booktitle (#PCDATA)>
<!ELEMENT ee (#PCDATA)>
<!ENTITY eacute "&#233;">
`

const externalDump = `<?xml version="1.0"?>
<!DOCTYPE dblp SYSTEM "dblp.dtd">
<dblp>
<inproceedings><author>Ren&eacute;</author><title>External</title><year>2018</year><booktitle>ICCV</booktitle><ee>https://e</ee></inproceedings>
</dblp>
`

func writeGzip(t *testing.T, path, content string) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractFileWithExternalDTD(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dblp.dtd"), []byte(externalDTD), 0o644))
	dump := filepath.Join(dir, "dblp.xml.gz")
	writeGzip(t, dump, externalDump)

	for _, mode := range []Mode{Lenient, Strict} {
		t.Run(mode.String(), func(t *testing.T) {
			got, err := New(Options{Mode: mode}, zaptest.NewLogger(t), nil).ExtractFile(dump, nil)
			require.NoError(t, err)

			want := []record.Record{record.New("ICCV", 2018, "External", []string{"René"}, "https://e")}
			assert.Equal(t, want, got)
		})
	}
}

func TestExtractFileMissingDTD(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dblp.xml")
	require.NoError(t, os.WriteFile(dump, []byte(externalDump), 0o644))

	_, err := New(Options{Mode: Strict}, nil, nil).ExtractFile(dump, nil)
	assert.Error(t, err)

	// Lenient mode falls back to HTML entity names, which cover &eacute;.
	got, err := New(Options{Mode: Lenient}, nil, nil).ExtractFile(dump, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"René"}, got[0].Authors)
}

func TestExtractFileMissingDump(t *testing.T) {
	_, err := New(Options{}, nil, nil).ExtractFile(filepath.Join(t.TempDir(), "nope.xml"), nil)
	assert.Error(t, err)
}

func TestHeapTrim(t *testing.T) {
	tests := []struct {
		name     string
		trim     trimFunc
		wantWarn int
	}{
		{"success", func() (uint64, error) { return 4096, nil }, 0},
		{"error", func() (uint64, error) { return 0, errors.New("not glibc") }, 1},
		{"panic", func() (uint64, error) { panic("boom") }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			ex := New(Options{Trim: true}, zap.New(core), nil)
			ex.trim = tt.trim

			got, err := ex.Extract(strings.NewReader(sampleDump), nil)
			require.NoError(t, err)
			assert.Len(t, got, 3)

			warnings := logs.FilterLevelExact(zap.WarnLevel).Len()
			assert.Equal(t, tt.wantWarn, warnings)
		})
	}
}

func TestFreeOSMemory(t *testing.T) {
	_, err := freeOSMemory()
	assert.NoError(t, err)
}
