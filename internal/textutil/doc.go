// Package textutil provides filename sanitation and slug helpers used by
// the attachment store and thread document naming.
package textutil
