// Package jail emulates a UNIX chroot jail for honeypot protocol emulators.
//
// Each protocol session gets a Jail rooted at "/" + protocolName under the
// shared virtual Root. The jail is seeded once by mirroring a real source
// directory, after which the session navigates it through Chdir/Stat/
// Readlink while never being able to reach anything above its home. The real
// tree the session believes it is operating on is never touched.
package jail

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"

	"decoyfs/internal/common"
	"decoyfs/internal/store"
)

// Placeholder identities exposed by Stat. Real host ownership is never
// reported; leaking it would fingerprint the honeypot.
const (
	ownerName = "owner"
	groupName = "group"
)

// StatInfo is the POSIX-like metadata view the jail exposes for a single
// entry. It is derived from backing-store metadata per query and never
// cached.
type StatInfo struct {
	Name    string
	Mode    os.FileMode
	Nlink   int
	Size    int64
	ModTime time.Time
	Owner   string
	Group   string
}

// Jail is the per-protocol-session view of the virtual filesystem. Home is
// always a direct child of the virtual root; the working directory always
// resolves to a location at or below home. A Jail must only be driven from
// one session at a time — cwd state carries no internal locking.
type Jail struct {
	root     *Root
	store    *store.Store
	protocol string
	home     string // "/" + protocol, fixed for the jail's lifetime
	cwd      string // canonical home-relative virtual path, "/" = home
}

// New exclusively creates the subtree "/" + protocolName under root and
// mirrors the full contents of sourceDir (files, directories, symlinks) into
// it. A second jail for the same protocol fails with common.ErrExists so two
// sessions can never silently share state. ignorePatterns are gitignore-style
// lines filtering what gets mirrored; pass nil to mirror everything.
func New(root *Root, protocolName, sourceDir string, ignorePatterns []string) (*Jail, error) {
	if protocolName == "" || strings.Contains(protocolName, "/") {
		return nil, fmt.Errorf("protocol name %q: %w", protocolName, common.ErrInvalidPath)
	}
	home := "/" + protocolName
	var matcher *ignore.GitIgnore
	if len(ignorePatterns) > 0 {
		matcher = ignore.CompileIgnoreLines(ignorePatterns...)
	}
	if err := root.seedSubtree(home, store.NewOS(sourceDir), matcher); err != nil {
		return nil, err
	}
	log.Debugf("[Jail] created %s from %s", home, sourceDir)

	return &Jail{
		root:     root,
		store:    root.Store(),
		protocol: protocolName,
		home:     home,
		cwd:      "/",
	}, nil
}

// Protocol returns the protocol name this jail was created for.
func (j *Jail) Protocol() string {
	return j.protocol
}

// Home returns the jail's home path under the virtual root.
func (j *Jail) Home() string {
	return j.home
}

// Getcwd returns the current working directory as a home-relative path
// beginning with "/".
func (j *Jail) Getcwd() string {
	return j.cwd
}

// Chdir changes the working directory. The target is resolved against the
// current working directory with standard "." / ".." semantics and then
// canonicalized; a target that does not exist as a directory, or whose
// canonical form would land above home, fails with common.ErrNotDir. Escape
// attempts are rejected outright rather than clamped back into the jail.
func (j *Jail) Chdir(target string) error {
	resolved, ok := common.ResolveWithin(j.cwd, target)
	if !ok {
		log.Debugf("[Jail] %s: chdir %q escapes home", j.home, target)
		return fmt.Errorf("chdir %s: %w", target, common.ErrNotDir)
	}
	j.root.mu.RLock()
	isDir := j.store.IsDir(j.realPath(resolved))
	j.root.mu.RUnlock()
	if !isDir {
		return fmt.Errorf("chdir %s: %w", target, common.ErrNotDir)
	}
	j.cwd = resolved
	return nil
}

// Stat resolves p against the working directory and returns its metadata.
// Missing paths (and paths whose resolution leaves the jail) fail with
// common.ErrNotFound. Owner and group are fixed placeholders.
func (j *Jail) Stat(p string) (StatInfo, error) {
	real, err := j.resolve(p)
	if err != nil {
		return StatInfo{}, err
	}
	j.root.mu.RLock()
	defer j.root.mu.RUnlock()
	fi, err := j.store.Lstat(real)
	if err != nil {
		return StatInfo{}, err
	}
	return StatInfo{
		Name:    fi.Name(),
		Mode:    fi.Mode(),
		Nlink:   1, // the in-memory tree has no hard links
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Owner:   ownerName,
		Group:   groupName,
	}, nil
}

// Readlink returns the stored symlink target verbatim, with no recursive
// resolution. Non-links fail with common.ErrNotSymlink.
func (j *Jail) Readlink(p string) (string, error) {
	real, err := j.resolve(p)
	if err != nil {
		return "", err
	}
	j.root.mu.RLock()
	defer j.root.mu.RUnlock()
	return j.store.Readlink(real)
}

// List returns the entry names of the directory at p in backing-store order.
// Selection and ordering for client output belong to the protocol adapter.
func (j *Jail) List(p string) ([]string, error) {
	real, err := j.resolve(p)
	if err != nil {
		return nil, err
	}
	j.root.mu.RLock()
	defer j.root.mu.RUnlock()
	infos, err := j.store.ReadDir(real)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	return names, nil
}

// Chmod is deliberately unspecified for the jail.
func (j *Jail) Chmod(p string, mode os.FileMode) error {
	return fmt.Errorf("chmod: %w", common.ErrNotImplemented)
}

// Utime is deliberately unspecified for the jail.
func (j *Jail) Utime(p string, atime, mtime time.Time) error {
	return fmt.Errorf("utime: %w", common.ErrNotImplemented)
}

// Getmtime is deliberately unspecified for the jail; use Stat.
func (j *Jail) Getmtime(p string) (time.Time, error) {
	return time.Time{}, fmt.Errorf("getmtime: %w", common.ErrNotImplemented)
}

// resolve maps a session-supplied path to a backing-store path, rejecting
// anything that leaves the jail with common.ErrNotFound.
func (j *Jail) resolve(p string) (string, error) {
	resolved, ok := common.ResolveWithin(j.cwd, p)
	if !ok {
		return "", fmt.Errorf("resolve %s: %w", p, common.ErrNotFound)
	}
	return j.realPath(resolved), nil
}

// realPath converts a canonical home-relative virtual path to the backing
// store path under the jail's home.
func (j *Jail) realPath(virtual string) string {
	if virtual == "/" {
		return j.home
	}
	return path.Join(j.home, virtual)
}
