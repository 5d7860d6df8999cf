// Package session binds one protocol session to its jail and the shared
// capture store. Protocol adapters drive the jail through an enumerated
// operation set resolved from protocol-specific command aliases — an
// explicit table, not reflection over a delegate.
package session

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"decoyfs/internal/capture"
	"decoyfs/internal/common"
	"decoyfs/internal/jail"
	"decoyfs/internal/listing"
)

// Op names one jail operation a protocol command can map onto.
type Op string

const (
	OpChdir    Op = "chdir"
	OpGetcwd   Op = "getcwd"
	OpList     Op = "list"
	OpStat     Op = "stat"
	OpReadlink Op = "readlink"
	OpUpload   Op = "upload"
	OpChmod    Op = "chmod"
	OpUtime    Op = "utime"
	OpGetmtime Op = "getmtime"
)

// AliasTable maps protocol command names (case-insensitive) onto the jail
// operation set.
type AliasTable map[string]Op

// Resolve maps a protocol command name to its jail operation. Commands with
// no mapping fail with common.ErrNotImplemented; the adapter owns the
// client-facing refusal.
func (t AliasTable) Resolve(command string) (Op, error) {
	if op, ok := t[strings.ToUpper(command)]; ok {
		return op, nil
	}
	return "", fmt.Errorf("command %q: %w", command, common.ErrNotImplemented)
}

// FTPAliases returns the alias table for FTP-style adapters.
func FTPAliases() AliasTable {
	return AliasTable{
		"CWD":  OpChdir,
		"XCWD": OpChdir,
		"CDUP": OpChdir,
		"PWD":  OpGetcwd,
		"XPWD": OpGetcwd,
		"LIST": OpList,
		"NLST": OpList,
		"STAT": OpStat,
		"SIZE": OpStat,
		"STOR": OpUpload,
		"STOU": OpUpload,
		"APPE": OpUpload,
		"MDTM": OpGetmtime,
	}
}

// Session is one protocol session's view of the system: a private jail plus
// the shared capture store. Sessions are driven sequentially by their owning
// adapter; a Session must not be shared across goroutines.
type Session struct {
	id       string
	jail     *jail.Jail
	captures *capture.Store
	aliases  AliasTable
}

// New creates a session over an existing jail and capture store.
func New(j *jail.Jail, captures *capture.Store, aliases AliasTable) *Session {
	s := &Session{
		id:       uuid.New().String(),
		jail:     j,
		captures: captures,
		aliases:  aliases,
	}
	log.Debugf("[Session] %s opened for protocol %s", s.id, j.Protocol())
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Jail returns the session's jail for direct operation dispatch.
func (s *Session) Jail() *jail.Jail {
	return s.jail
}

// Resolve maps a protocol command name onto the jail operation set.
func (s *Session) Resolve(command string) (Op, error) {
	return s.aliases.Resolve(command)
}

// List renders the directory at p as ls -lA lines in backing-store entry
// order. Adapters wanting a different order list and format separately.
func (s *Session) List(p string) (iter.Seq2[string, error], error) {
	names, err := s.jail.List(p)
	if err != nil {
		return nil, err
	}
	return listing.FormatList(s.jail, p, names), nil
}

// Upload captures an incoming transfer into the persistent store under a
// sanitized name and returns the finished record. The capture handle is
// released on every exit path; a failed close surfaces as the upload error
// because buffered bytes may be gone.
func (s *Session) Upload(ctx context.Context, originalName string, r io.Reader) (*capture.UploadRecord, error) {
	stored := capture.Sanitize(originalName)
	w, err := s.captures.Open(stored)
	if err != nil {
		return nil, err
	}
	defer w.Close() // release on early return; Close is idempotent

	size, err := io.Copy(w, r)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", originalName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload %q close: %w", originalName, err)
	}

	rec := &capture.UploadRecord{
		SessionID:    s.id,
		Protocol:     s.jail.Protocol(),
		OriginalName: originalName,
		StoredName:   stored,
		Size:         size,
	}
	if idx := s.captures.Index(); idx != nil {
		if err := idx.Record(ctx, rec); err != nil {
			// The bytes are safe in the store; a lost index row is a
			// review-tooling problem, not data loss.
			log.Errorf("[Session] %s: index record for %q failed: %v", s.id, stored, err)
		}
	}
	log.Infof("[Session] %s captured %q as %q (%d bytes)", s.id, originalName, stored, size)
	return rec, nil
}
