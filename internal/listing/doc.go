// Package listing extracts records from per-venue, per-year HTML listing
// pages.
//
// Each file is named <venue>-<year> (an extension is allowed) and holds a
// run of <cite class="data"> entries, the first of which is a header. Venue
// and year come from the file name; title, authors and link come from the
// entry markup. Files are independent units and are parsed on a worker
// pool; a file that fails contributes nothing and is logged.
//
// Two engines read the same structure: CSSEngine (goquery) and XPathEngine
// (htmlquery). Both assemble titles with record.JoinFragments, the same way
// the XML extractor does, so titles from either source compare exactly.
package listing
