// Package pipeline composes the conversion run: it walks the input tree,
// classifies files, consults the conversion cache, fans work out to the
// bounded executor, and always leaves a run summary behind — even when every
// single file failed.
package pipeline
