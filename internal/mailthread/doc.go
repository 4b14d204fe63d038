// Package mailthread reconstructs conversation threads from directories of
// raw RFC 5322 message files. Grouping is greedy and single-pass: reference
// headers (In-Reply-To plus References) are matched against already-seen
// messages first, then a case-insensitive normalized-subject match, and the
// first matching thread wins. Two threads that later turn out to share a
// reference are deliberately not merged; determinism matters more here than
// optimal clustering. Parse defects never exclude a message from threading,
// they only limit which fields are populated.
package mailthread
