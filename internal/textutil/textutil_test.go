package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"  padded.txt  ", "padded.txt"},
		{`bad<>:"/\|?*name.doc`, "badname.doc"},
		{"", ""},
		{"???", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitExt(t *testing.T) {
	cases := []struct {
		in, stem, ext string
	}{
		{"report.pdf", "report", ".pdf"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"noext", "noext", ""},
		{".hidden", ".hidden", ""},
	}
	for _, tc := range cases {
		stem, ext := SplitExt(tc.in)
		if stem != tc.stem || ext != tc.ext {
			t.Errorf("SplitExt(%q) = (%q, %q), want (%q, %q)", tc.in, stem, ext, tc.stem, tc.ext)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"Quarterly Report: Q3 2024", 60, "quarterly_report_q3_2024"},
		{"Réunion d'équipe", 60, "reunion_d_equipe"},
		{"!!!", 60, "untitled"},
		{"", 60, "untitled"},
		{"a very long subject line that keeps going and going", 10, "a_very_lon"},
	}
	for _, tc := range cases {
		if got := Slug(tc.in, tc.max); got != tc.want {
			t.Errorf("Slug(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
