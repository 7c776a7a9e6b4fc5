// Command paperscope runs the publication analysis and prints its report as
// JSON on stdout. Logs go to stderr.
//
// Configuration comes from the environment (see internal/config); flags
// override the most common settings:
//
//	paperscope -dump .cache/dblp.xml.gz -listings .cache -profile run.yaml
package main
