package textutil

import "strings"

// fileNameReplacer strips filesystem-unsafe characters from filenames.
var fileNameReplacer = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeFileName removes path-unsafe characters from a filename and trims
// surrounding whitespace. Sanitation happens before any dedup comparison or
// write so two spellings of the same unsafe name collapse to one.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SplitExt splits a filename into its stem and extension ("report.pdf" ->
// "report", ".pdf"). Dotfiles keep the leading dot in the stem.
func SplitExt(name string) (string, string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
