package xmlstream

import (
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
)

var (
	entityRE  = regexp.MustCompile(`<!ENTITY\s+([^\s%"']+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)
	elementRE = regexp.MustCompile(`<!ELEMENT\s+([^\s>]+)`)
	doctypeRE = regexp.MustCompile(`^DOCTYPE\s+([^\s\[]+)(?:\s+(?:SYSTEM\s+(?:"([^"]*)"|'([^']*)')|PUBLIC\s+(?:"[^"]*"|'[^']*')\s+(?:"([^"]*)"|'([^']*)')))?`)
)

// DTD is the subset of a document type definition the extractor uses:
// general entity replacement text and the set of declared element names.
type DTD struct {
	Entities map[string]string
	Elements map[string]struct{}
}

// ParseDTD reads entity and element declarations from DTD text. Character
// references inside entity values are resolved, so the map can be handed to
// xml.Decoder.Entity directly.
func ParseDTD(text string) *DTD {
	d := &DTD{
		Entities: make(map[string]string),
		Elements: make(map[string]struct{}),
	}
	for _, m := range entityRE.FindAllStringSubmatch(text, -1) {
		val := m[2]
		if val == "" {
			val = m[3]
		}
		d.Entities[m[1]] = html.UnescapeString(val)
	}
	for _, m := range elementRE.FindAllStringSubmatch(text, -1) {
		d.Elements[m[1]] = struct{}{}
	}
	return d
}

// LoadDTD reads and parses an external DTD file.
func LoadDTD(path string) (*DTD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DTD: %w", err)
	}
	return ParseDTD(string(data)), nil
}

// Declares reports whether name is a declared element.
func (d *DTD) Declares(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Elements[name]
	return ok
}

// merge folds o into d; declarations already in d win, as in XML.
func (d *DTD) merge(o *DTD) {
	if o == nil {
		return
	}
	for k, v := range o.Entities {
		if _, ok := d.Entities[k]; !ok {
			d.Entities[k] = v
		}
	}
	for k := range o.Elements {
		d.Elements[k] = struct{}{}
	}
}

// doctype is a parsed <!DOCTYPE ...> directive.
type doctype struct {
	root     string
	systemID string
	subset   string
}

func parseDoctype(directive string) (doctype, bool) {
	m := doctypeRE.FindStringSubmatch(directive)
	if m == nil {
		return doctype{}, false
	}

	dt := doctype{root: m[1]}
	for _, id := range m[2:] {
		if id != "" {
			dt.systemID = id
			break
		}
	}
	if i := strings.IndexByte(directive, '['); i >= 0 {
		dt.subset = directive[i+1:]
	}
	return dt, true
}
