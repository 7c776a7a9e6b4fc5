// Package xmlstream extracts records from a monolithic bibliographic XML
// dump (dblp.xml) in a single streaming pass.
//
// The decoder is driven token by token; no document tree is ever built, and
// only the record currently being read is buffered. Each record element runs
// through a small state machine:
//
//	idle ──<inproceedings>──▶ in-record ──<title>──▶ in-title
//	  ▲                          │    ▲                  │
//	  └──</inproceedings>────────┘    └────</title>──────┘
//
// While in-title, every text fragment (including the text of nested inline
// markup such as <i> or <sub>, and the text that follows it) is collected in
// document order and joined with single spaces, so titles split across
// inline tags are never truncated.
//
// Field mapping: booktitle → Venue, year → Year, title → Title,
// author → Authors (repeatable), ee → URL (first one wins). Other children
// are ignored. A malformed year leaves Year at zero; a malformed document is
// fatal and surfaces as *ParseError.
//
// Two modes are supported:
//   - Lenient: no validation, HTML entity names resolved, unknown entities kept
//   - Strict: DTD required (internal subset or external file), its entities
//     resolved, undeclared elements and malformed markup fail the parse.
//     This is a declaration check only: content models and attribute lists
//     are not enforced, so declared children in any order are accepted
//
// After the whole document is read the extractor can ask the runtime to
// return freed heap to the OS. Failure there is logged as a warning only.
//
// An Extractor or Scanner must not be shared between goroutines.
package xmlstream
