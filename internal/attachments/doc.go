// Package attachments deduplicates email attachment payloads within one
// output directory. Identity is the SHA-256 of the payload, not the
// requested filename: the same bytes saved twice come back as the
// originally assigned name without a second write, while different bytes
// that want the same name get a numeric disambiguator.
package attachments
