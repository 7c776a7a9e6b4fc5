package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/paperscope/internal/record"
)

// UnknownTitle stands in for an entry without a title element.
const UnknownTitle = "Unknown"

// Entry is the markup-derived part of a record.
type Entry struct {
	Title   string
	Authors []string
	URL     string
}

// Engine parses one listing document into its citation entries, header
// excluded.
type Engine interface {
	Name() string
	Entries(r io.Reader) ([]Entry, error)
}

// EngineByName resolves "css" (the default for "") or "xpath".
func EngineByName(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "css":
		return CSSEngine{}, nil
	case "xpath":
		return XPathEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown HTML engine %q", name)
	}
}

// CSSEngine reads listings with goquery selectors.
type CSSEngine struct{}

func (CSSEngine) Name() string { return "css" }

func (CSSEngine) Entries(r io.Reader) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var entries []Entry
	doc.Find("cite.data").Each(func(i int, s *goquery.Selection) {
		if i == 0 {
			return
		}

		e := Entry{Title: UnknownTitle, Authors: []string{}}
		if t := s.Find("span.title").First(); t.Length() > 0 {
			e.Title = record.JoinFragments(textFragments(t.Get(0)))
		}
		s.Find(`span[itemprop="author"]`).Each(func(_ int, a *goquery.Selection) {
			e.Authors = append(e.Authors, record.NormalizeTitle(a.Text()))
		})
		if href, ok := s.Find("a[href]").First().Attr("href"); ok {
			e.URL = href
		}
		entries = append(entries, e)
	})
	return entries, nil
}

const (
	xpEntries = `//cite[contains(concat(' ', normalize-space(@class), ' '), ' data ')]`
	xpTitle   = `.//span[contains(concat(' ', normalize-space(@class), ' '), ' title ')]`
	xpAuthors = `.//span[@itemprop='author']`
	xpLink    = `.//a[@href]`
)

// XPathEngine reads listings with htmlquery expressions.
type XPathEngine struct{}

func (XPathEngine) Name() string { return "xpath" }

func (XPathEngine) Entries(r io.Reader) ([]Entry, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, xpEntries)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(nodes)-1)
	for _, n := range nodes[1:] {
		e := Entry{Title: UnknownTitle, Authors: []string{}}

		title, err := htmlquery.Query(n, xpTitle)
		if err != nil {
			return nil, fmt.Errorf("xpath query failed: %w", err)
		}
		if title != nil {
			e.Title = record.JoinFragments(textFragments(title))
		}

		authors, err := htmlquery.QueryAll(n, xpAuthors)
		if err != nil {
			return nil, fmt.Errorf("xpath query failed: %w", err)
		}
		for _, a := range authors {
			e.Authors = append(e.Authors, record.NormalizeTitle(htmlquery.InnerText(a)))
		}

		link, err := htmlquery.Query(n, xpLink)
		if err != nil {
			return nil, fmt.Errorf("xpath query failed: %w", err)
		}
		if link != nil {
			e.URL = htmlquery.SelectAttr(link, "href")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// textFragments returns the text nodes under n in document order.
func textFragments(n *html.Node) []string {
	var frags []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			frags = append(frags, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return frags
}
