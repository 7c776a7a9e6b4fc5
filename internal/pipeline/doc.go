// Package pipeline runs the full analysis: extract the dump (counting
// venues as it streams), extract and reconcile the listings, then weight
// title terms per year. It returns a Report for the external collaborators
// (forecasting, plotting) that consume these aggregates.
package pipeline
