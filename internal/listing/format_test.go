// Copyright 2026 DecoyFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package listing

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decoyfs/internal/common"
	"decoyfs/internal/jail"
)

// fakeFS serves canned stat/readlink answers keyed by path.
type fakeFS struct {
	stats map[string]jail.StatInfo
	links map[string]string
}

func (f *fakeFS) Stat(p string) (jail.StatInfo, error) {
	st, ok := f.stats[p]
	if !ok {
		return jail.StatInfo{}, fmt.Errorf("stat %s: %w", p, common.ErrNotFound)
	}
	return st, nil
}

func (f *fakeFS) Readlink(p string) (string, error) {
	target, ok := f.links[p]
	if !ok {
		return "", fmt.Errorf("readlink %s: %w", p, common.ErrNotSymlink)
	}
	return target, nil
}

func stat(mode os.FileMode, size int64, mtime time.Time) jail.StatInfo {
	return jail.StatInfo{
		Mode:    mode,
		Nlink:   1,
		Size:    size,
		ModTime: mtime,
		Owner:   "owner",
		Group:   "group",
	}
}

func TestFormatLineOldFileFixture(t *testing.T) {
	t.Parallel()

	// The canonical fixture: field widths and the old-file year format.
	mtime := time.Date(2022, time.September, 2, 3, 47, 0, 0, time.UTC)
	now := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
	st := stat(0o644, 7045120, mtime)

	line := FormatLine(st, "music.mp3", now)
	assert.Equal(t, "-rw-r--r--   1 owner    group    7045120 Sep 02  2022 music.mp3\r\n", line)
}

func TestFormatLineRecentFile(t *testing.T) {
	t.Parallel()

	mtime := time.Date(2023, time.August, 31, 18, 50, 0, 0, time.UTC)
	now := time.Date(2023, time.September, 2, 12, 0, 0, 0, time.UTC)
	st := stat(os.ModeDir|0o755, 0, mtime)

	line := FormatLine(st, "e-books", now)
	assert.Equal(t, "drwxr-xr-x   1 owner    group          0 Aug 31 18:50 e-books\r\n", line)
}

func TestFormatLineCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

	recent := now.Add(-sixMonths + time.Hour)
	line := FormatLine(stat(0o644, 1, recent), "f", now)
	assert.Contains(t, line, fmt.Sprintf("%02d:%02d", recent.Hour(), recent.Minute()))

	old := now.Add(-sixMonths - time.Hour)
	line = FormatLine(stat(0o644, 1, old), "f", now)
	assert.Contains(t, line, fmt.Sprintf("  %d", old.Year()))
}

func TestFormatLineWideSize(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

	// Sizes never truncate; the column only grows past eight digits.
	line := FormatLine(stat(0o644, 123456789012, now), "big.iso", now)
	assert.Contains(t, line, "123456789012 ")

	line = FormatLine(stat(0o644, 0, now), "empty", now)
	assert.Contains(t, line, "       0 ")
}

func TestFilemode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mode os.FileMode
		want string
	}{
		{"regular_0644", 0o644, "-rw-r--r--"},
		{"regular_0755", 0o755, "-rwxr-xr-x"},
		{"regular_0000", 0, "----------"},
		{"regular_0666", 0o666, "-rw-rw-rw-"},
		{"dir", os.ModeDir | 0o755, "drwxr-xr-x"},
		{"symlink", os.ModeSymlink | 0o777, "lrwxrwxrwx"},
		{"fifo", os.ModeNamedPipe | 0o600, "prw-------"},
		{"socket", os.ModeSocket | 0o600, "srw-------"},
		{"block_dev", os.ModeDevice | 0o640, "brw-r-----"},
		{"char_dev", os.ModeDevice | os.ModeCharDevice | 0o640, "crw-r-----"},
		{"setuid_exec", os.ModeSetuid | 0o755, "-rwsr-xr-x"},
		{"setuid_noexec", os.ModeSetuid | 0o644, "-rwSr--r--"},
		{"setgid_exec", os.ModeSetgid | 0o755, "-rwxr-sr-x"},
		{"sticky_dir", os.ModeDir | os.ModeSticky | 0o777, "drwxrwxrwt"},
		{"sticky_noexec", os.ModeDir | os.ModeSticky | 0o776, "drwxrwxrwT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Filemode(tt.mode))
		})
	}
}

func TestFormatListRendersEachEntry(t *testing.T) {
	t.Parallel()

	mtime := time.Date(2022, time.September, 2, 3, 47, 0, 0, time.UTC)
	fsys := &fakeFS{
		stats: map[string]jail.StatInfo{
			"/music.mp3": stat(0o644, 7045120, mtime),
			"/e-books":   stat(os.ModeDir|0o755, 0, mtime),
		},
	}

	var lines []string
	for line, err := range FormatList(fsys, "/", []string{"music.mp3", "e-books"}) {
		require.NoError(t, err)
		lines = append(lines, line)
	}

	// Input order is preserved; the formatter never sorts.
	require.Len(t, lines, 2)
	assert.Equal(t, "-rw-r--r--   1 owner    group    7045120 Sep 02  2022 music.mp3\r\n", lines[0])
	assert.Contains(t, lines[1], "e-books\r\n")
}

func TestFormatListSymlinkSuffix(t *testing.T) {
	t.Parallel()

	mtime := time.Date(2022, time.September, 2, 0, 0, 0, 0, time.UTC)
	fsys := &fakeFS{
		stats: map[string]jail.StatInfo{
			"/latest": stat(os.ModeSymlink|0o777, 8, mtime),
		},
		links: map[string]string{
			"/latest": "motd.txt",
		},
	}

	var lines []string
	for line, err := range FormatList(fsys, "/", []string{"latest"}) {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "latest -> motd.txt\r\n")
	assert.Equal(t, byte('l'), lines[0][0])
}

func TestFormatListErrorsPropagate(t *testing.T) {
	t.Parallel()

	fsys := &fakeFS{stats: map[string]jail.StatInfo{}}

	var sawErr error
	count := 0
	for _, err := range FormatList(fsys, "/", []string{"ghost"}) {
		count++
		sawErr = err
	}
	assert.Equal(t, 1, count)
	assert.ErrorIs(t, sawErr, common.ErrNotFound)
}

func TestFormatListBrokenLinkErrorsPropagate(t *testing.T) {
	t.Parallel()

	mtime := time.Date(2022, time.September, 2, 0, 0, 0, 0, time.UTC)
	fsys := &fakeFS{
		stats: map[string]jail.StatInfo{
			"/odd": stat(os.ModeSymlink|0o777, 0, mtime),
		},
		// no link target registered: readlink fails
	}

	var sawErr error
	for _, err := range FormatList(fsys, "/", []string{"odd"}) {
		sawErr = err
	}
	assert.ErrorIs(t, sawErr, common.ErrNotSymlink)
}
