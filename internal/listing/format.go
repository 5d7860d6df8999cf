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

// Package listing renders directory entries in the classic "/bin/ls -lA"
// long format. The output is wire-visible to probing clients, so the layout
// is byte-exact: a formatting mismatch against a real FTP daemon is a
// fingerprinting signal. Field widths follow the proftpd listing layout:
//
//	-rw-r--r--   1 owner    group    7045120 Sep 02  2022 music.mp3
//	drwxr-xr-x   1 owner    group          0 Aug 31 18:50 e-books
package listing

import (
	"fmt"
	"iter"
	"os"
	"path"
	"time"

	"decoyfs/internal/jail"
)

// sixMonths is the classic ls cutoff between "recent" entries (rendered with
// a clock time) and old ones (rendered with a year).
const sixMonths = 180 * 24 * time.Hour

// months is the fixed abbreviation table; listing output never depends on
// locale.
var months = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// FS is the slice of jail behavior the formatter consumes.
type FS interface {
	Stat(path string) (jail.StatInfo, error)
	Readlink(path string) (string, error)
}

// FormatList lazily renders one CRLF-terminated line per name in listing,
// each resolved against basedir. It performs no filtering or sorting of its
// own: selection and order are the caller's contract. A stat or readlink
// failure is yielded as that entry's error and ends the sequence rather than
// being silently skipped.
func FormatList(fsys FS, basedir string, listing []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		now := time.Now()
		for _, name := range listing {
			entry := path.Join(basedir, name)
			st, err := fsys.Stat(entry)
			if err != nil {
				yield("", err)
				return
			}
			display := name
			if st.Mode&os.ModeSymlink != 0 {
				target, err := fsys.Readlink(entry)
				if err != nil {
					yield("", err)
					return
				}
				display = name + " -> " + target
			}
			if !yield(FormatLine(st, display, now), nil) {
				return
			}
		}
	}
}

// FormatLine renders a single listing line for the given stat data and
// display name, using now as the recent/old timestamp cutoff.
func FormatLine(st jail.StatInfo, name string, now time.Time) string {
	return fmt.Sprintf("%s %3d %-8s %-8s%8d %s %s\r\n",
		Filemode(st.Mode), st.Nlink, st.Owner, st.Group, st.Size,
		formatTime(st.ModTime, now), name)
}

// formatTime renders the modification time column: "Mon DD HH:MM" for
// entries touched within the last six months, "Mon DD  YYYY" (two spaces,
// per ls convention) for older ones. Times render in UTC so the honeypot
// never leaks its host timezone.
func formatTime(mtime, now time.Time) string {
	t := mtime.UTC()
	month := months[t.Month()-1]
	if now.Sub(mtime) > sixMonths {
		return fmt.Sprintf("%s %02d  %d", month, t.Day(), t.Year())
	}
	return fmt.Sprintf("%s %02d %02d:%02d", month, t.Day(), t.Hour(), t.Minute())
}

// Filemode renders the 10-character UNIX permission string for mode,
// matching stat.filemode() semantics including setuid/setgid/sticky bits.
func Filemode(mode os.FileMode) string {
	buf := [10]byte{}
	buf[0] = typeChar(mode)

	perm := mode.Perm()
	rwx := [...]byte{'r', 'w', 'x'}
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			buf[1+i] = rwx[i%3]
		} else {
			buf[1+i] = '-'
		}
	}

	// Special bits overlay the execute columns.
	if mode&os.ModeSetuid != 0 {
		buf[3] = overlay(buf[3], 's', 'S')
	}
	if mode&os.ModeSetgid != 0 {
		buf[6] = overlay(buf[6], 's', 'S')
	}
	if mode&os.ModeSticky != 0 {
		buf[9] = overlay(buf[9], 't', 'T')
	}
	return string(buf[:])
}

func typeChar(mode os.FileMode) byte {
	switch {
	case mode&os.ModeSymlink != 0:
		return 'l'
	case mode.IsDir():
		return 'd'
	case mode&os.ModeCharDevice != 0:
		return 'c'
	case mode&os.ModeDevice != 0:
		return 'b'
	case mode&os.ModeNamedPipe != 0:
		return 'p'
	case mode&os.ModeSocket != 0:
		return 's'
	default:
		return '-'
	}
}

func overlay(current, withExec, withoutExec byte) byte {
	if current == 'x' {
		return withExec
	}
	return withoutExec
}
