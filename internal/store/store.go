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

// Package store wraps a billy filesystem with the primitives the jail and
// capture layers need: exclusive directory creation, recursive mirroring and
// metadata lookup. Jail content lives on an in-memory filesystem so every
// run starts from a clean tree; the capture store sits on the host OS
// filesystem for durability.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	ignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"

	"decoyfs/internal/common"
)

// Store is a thin layer over billy.Filesystem translating billy/os errors
// into the shared error taxonomy.
type Store struct {
	fs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// NewMemory returns a store backed by an in-memory filesystem. Nothing
// written to it survives the process, which is exactly the lifecycle jail
// trees want.
func NewMemory() *Store {
	return &Store{fs: memfs.New()}
}

// NewOS returns a store rooted at the given host directory.
func NewOS(root string) *Store {
	return &Store{fs: osfs.New(root)}
}

// Filesystem exposes the underlying billy filesystem.
func (s *Store) Filesystem() billy.Filesystem {
	return s.fs
}

// MkdirExclusive creates dir, failing with common.ErrExists if anything is
// already present at that path. billy only offers MkdirAll, so exclusivity
// comes from a pre-check; callers racing on the same store must serialize
// (the jail arena holds a mutex across this call).
func (s *Store) MkdirExclusive(dir string) error {
	if _, err := s.fs.Lstat(dir); err == nil {
		return fmt.Errorf("mkdir %s: %w", dir, common.ErrExists)
	} else if !isNotExist(err) {
		return err
	}
	return s.fs.MkdirAll(dir, 0o755)
}

// Lstat returns metadata for p without following symlinks, mapping a missing
// path to common.ErrNotFound.
func (s *Store) Lstat(p string) (os.FileInfo, error) {
	fi, err := s.fs.Lstat(p)
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("lstat %s: %w", p, common.ErrNotFound)
		}
		return nil, err
	}
	return fi, nil
}

// Readlink returns the stored symlink target verbatim. A path that exists
// but is not a symlink fails with common.ErrNotSymlink.
func (s *Store) Readlink(p string) (string, error) {
	fi, err := s.Lstat(p)
	if err != nil {
		return "", err
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		return "", fmt.Errorf("readlink %s: %w", p, common.ErrNotSymlink)
	}
	return s.fs.Readlink(p)
}

// ReadDir lists the entries of dir.
func (s *Store) ReadDir(dir string) ([]os.FileInfo, error) {
	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("readdir %s: %w", dir, common.ErrNotFound)
		}
		return nil, err
	}
	return infos, nil
}

// IsDir reports whether p exists and is a directory.
func (s *Store) IsDir(p string) bool {
	fi, err := s.fs.Lstat(p)
	return err == nil && fi.IsDir()
}

// OpenExclusive opens p write-only with O_EXCL create semantics. An existing
// entry fails with common.ErrExists; there is no silent overwrite path.
func (s *Store) OpenExclusive(p string) (billy.File, error) {
	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if isExist(err) {
			return nil, fmt.Errorf("open %s: %w", p, common.ErrExists)
		}
		return nil, err
	}
	return f, nil
}

// Open opens p read-only.
func (s *Store) Open(p string) (billy.File, error) {
	f, err := s.fs.Open(p)
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", p, common.ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// MirrorFrom recursively copies every file, directory and symlink from the
// root of src into dstDir, preserving relative structure and content bytes.
// Entries matching the ignore matcher are skipped (matcher may be nil).
// The source is only ever read.
func (s *Store) MirrorFrom(src *Store, dstDir string, matcher *ignore.GitIgnore) error {
	log.Debugf("[Mirror] mirroring into %s", dstDir)
	if err := s.fs.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("mirror mkdir %s: %w", dstDir, err)
	}
	return s.mirrorDir(src, "/", dstDir, matcher)
}

func (s *Store) mirrorDir(src *Store, srcDir, dstDir string, matcher *ignore.GitIgnore) error {
	entries, err := src.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := path.Join(srcDir, entry.Name())
		dstPath := path.Join(dstDir, entry.Name())
		rel := srcPath[1:] // matcher wants source-relative paths
		if matcher != nil && matcher.MatchesPath(rel) {
			log.Debugf("[Mirror] skipping ignored entry %q", rel)
			continue
		}
		// ReadDir follows symlinks on some backends; Lstat is authoritative.
		fi, err := src.Lstat(srcPath)
		if err != nil {
			return err
		}
		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			target, err := src.fs.Readlink(srcPath)
			if err != nil {
				return fmt.Errorf("mirror readlink %s: %w", srcPath, err)
			}
			if err := s.fs.Symlink(target, dstPath); err != nil {
				return fmt.Errorf("mirror symlink %s: %w", dstPath, err)
			}
		case fi.IsDir():
			if err := s.fs.MkdirAll(dstPath, 0o755); err != nil {
				return fmt.Errorf("mirror mkdir %s: %w", dstPath, err)
			}
			if err := s.mirrorDir(src, srcPath, dstPath, matcher); err != nil {
				return err
			}
		default:
			if err := s.mirrorFile(src, srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) mirrorFile(src *Store, srcPath, dstPath string) error {
	in, err := src.fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("mirror open %s: %w", srcPath, err)
	}
	defer in.Close()

	out, err := s.fs.Create(dstPath)
	if err != nil {
		return fmt.Errorf("mirror create %s: %w", dstPath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("mirror copy %s: %w", dstPath, err)
	}
	return out.Close()
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, os.ErrNotExist)
}

func isExist(err error) bool {
	return os.IsExist(err) || errors.Is(err, os.ErrExist)
}
