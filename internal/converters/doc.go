// Package converters classifies input files and drives the external
// conversion tool. Conversion failures never surface as bare errors to the
// output tree: every failed input still gets a Markdown artifact describing
// what went wrong.
package converters
