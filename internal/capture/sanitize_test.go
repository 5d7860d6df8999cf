package capture

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLayout(t *testing.T) {
	t.Parallel()

	got := Sanitize("music.mp3")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - music-mp3$`), got)
}

func TestSanitizeDeterministicPerSecond(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	a := sanitizeAt("report.pdf", at)
	b := sanitizeAt("report.pdf", at.Add(500*time.Millisecond))

	// Identical input within the same clock second collides by design; the
	// store's exclusive create turns that into an explicit error rather
	// than a silent overwrite.
	assert.Equal(t, a, b)
	assert.Equal(t, "2026-03-14 09:26:53 - report-pdf", a)
}

func TestSanitizeDistinguishesSeconds(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	a := sanitizeAt("report.pdf", at)
	b := sanitizeAt("report.pdf", at.Add(time.Second))
	assert.NotEqual(t, a, b)
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "music.mp3", "music-mp3"},
		{"spaces", "My Holiday Photos.zip", "my-holiday-photos-zip"},
		{"punctuation_runs", "a -- b!!(c)", "a-b-c"},
		{"leading_trailing_junk", "  ..weird..  ", "weird"},
		{"path_traversal", "../../etc/passwd", "etc-passwd"},
		{"windows_path", `C:\Users\victim\loot.txt`, "c-users-victim-loot-txt"},
		{"accents_folded", "Résumé.DOC", "resume-doc"},
		{"mixed_accents", "naïve café.doc", "naive-cafe-doc"},
		{"non_latin_dropped", "отчёт.txt", "txt"},
		{"digits", "backup-2026-01-02.tar.gz", "backup-2026-01-02-tar-gz"},
		{"only_junk", "!!!###", "upload"},
		{"empty", "", "upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slug(tt.input))
		})
	}
}
