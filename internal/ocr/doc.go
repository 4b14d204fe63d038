// Package ocr transcribes images to Markdown through an external vision
// model CLI. The Engine is constructed once at startup and shared by every
// worker by reference; it is never lazily initialized mid-run, so a
// misconfigured tool fails the run before any file is touched.
package ocr
