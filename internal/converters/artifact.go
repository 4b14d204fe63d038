package converters

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FailureArtifact renders the Markdown written in place of converted content
// when an input cannot be processed. Failures leave a visible trace in the
// output tree, never a silent gap.
func FailureArtifact(inputPath string, category Category, cause error) string {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	var b strings.Builder
	b.WriteString("# Conversion Error\n\n")
	fmt.Fprintf(&b, "**File:** `%s`\n\n", filepath.Base(inputPath))
	fmt.Fprintf(&b, "**Category:** %s\n\n", category)
	b.WriteString("**Error:**\n```\n")
	b.WriteString(reason)
	b.WriteString("\n```\n")
	return b.String()
}

// TextArtifact wraps a plain-text file as Markdown without transformation.
func TextArtifact(inputPath string, content []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", filepath.Base(inputPath))
	b.WriteString("```\n")
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	return b.String()
}

// OversizeNote is prepended to artifacts for inputs that exceeded the size
// limits but were converted anyway.
func OversizeNote(reason string) string {
	return fmt.Sprintf("> **Note:** large input: %s\n\n", reason)
}

// UncertainNote marks artifacts produced from a generation the model itself
// flagged as unreliable.
func UncertainNote() string {
	return "> **Note:** the conversion service marked this output as potentially incomplete or inaccurate.\n\n"
}
