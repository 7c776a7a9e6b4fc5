// Package reconcile checks listing-derived records against the dump.
//
// A listing record matches when some dump record has exactly the same
// normalized title. Nothing fuzzy happens here: a mismatch is reported as
// data for a human to review and neither input is modified.
package reconcile
