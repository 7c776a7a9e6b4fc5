package listing

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DetectCharset guesses the charset of raw HTML bytes.
func DetectCharset(data []byte) string {
	detector := chardet.NewHtmlDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// decode returns a UTF-8 reader over data. A BOM or <meta> declaration wins;
// valid UTF-8 is passed through; anything else is sniffed with chardet and
// falls back to windows-1252 when the guess has no decoder.
func decode(data []byte) (io.Reader, string, error) {
	if _, name, certain := charset.DetermineEncoding(data, "text/html"); certain {
		r, err := charset.NewReaderLabel(name, bytes.NewReader(data))
		return r, name, err
	}
	if utf8.Valid(data) {
		return bytes.NewReader(data), "utf-8", nil
	}

	name := DetectCharset(data)
	r, err := charset.NewReaderLabel(name, bytes.NewReader(data))
	if err != nil {
		name = "windows-1252"
		r, err = charset.NewReaderLabel(name, bytes.NewReader(data))
	}
	return r, name, err
}
