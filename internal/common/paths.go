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

package common

import (
	"path"
	"strings"
)

// ResolveWithin resolves target against the virtual working directory cwd
// using standard "." / ".." segment semantics and returns a canonical
// absolute virtual path ("/" prefixed, no trailing slash except root).
//
// cwd must already be canonical ("/" rooted, no dot segments); an absolute
// target restarts resolution at the virtual root. The second return is false
// when a ".." segment would climb above the virtual root: that is a jail
// escape attempt and the caller must reject it, never repair it. Resolution
// is an explicit segment walk by design; string concatenation is exactly the
// bug class this exists to prevent.
func ResolveWithin(cwd, target string) (string, bool) {
	stack := SplitVirtual(cwd)
	if path.IsAbs(target) {
		stack = nil
	}
	for _, seg := range strings.Split(target, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) == 0 {
				return "", false
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/"), true
}

// IsWithin reports whether the canonical virtual path p is at or below base.
// Both arguments must already be canonical absolute virtual paths.
func IsWithin(base, p string) bool {
	if base == "/" {
		return strings.HasPrefix(p, "/")
	}
	return p == base || strings.HasPrefix(p, base+"/")
}

// SplitVirtual splits a canonical virtual path into its segments.
// The root path yields no segments.
func SplitVirtual(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
