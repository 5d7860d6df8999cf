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

package capture

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"decoyfs/internal/util"
)

// UploadRecord is one row of the forensic upload index: who sent what, when,
// and which store artifact holds the bytes.
type UploadRecord struct {
	bun.BaseModel `bun:"table:uploads,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	SessionID    string    `bun:"session_id,notnull"`
	Protocol     string    `bun:"protocol,notnull"`
	OriginalName string    `bun:"original_name,notnull"`
	StoredName   string    `bun:"stored_name,notnull,unique"`
	Size         int64     `bun:"size,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Index is the SQLite-backed upload index.
type Index struct {
	sqlDB *sql.DB
	db    *bun.DB
}

// OpenIndex opens (creating if needed) the upload index at path.
func OpenIndex(path string) (*Index, error) {
	sqlDB, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open capture index: %w", err)
	}
	// libsql ignores DSN pragmas; set them explicitly. PRAGMA statements
	// return rows under libsql, so Query (drained) rather than Exec.
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		rows, err := sqlDB.Query(pragma)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("capture index %q: %w", pragma, err)
		}
		rows.Close()
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if _, err := db.NewCreateTable().
		Model((*UploadRecord)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create uploads table: %w", err)
	}
	return &Index{sqlDB: sqlDB, db: db}, nil
}

// Record inserts one upload record, retrying on transient lock contention
// from other sessions.
func (ix *Index) Record(ctx context.Context, rec *UploadRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return util.Retry(ctx, func() error {
		_, err := ix.db.NewInsert().Model(rec).Exec(ctx)
		return err
	}, util.DatabaseRetryOptions(ctx)...)
}

// Recent returns up to limit upload records, newest first.
func (ix *Index) Recent(ctx context.Context, limit int) ([]UploadRecord, error) {
	var recs []UploadRecord
	err := ix.db.NewSelect().
		Model(&recs).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// BySession returns all upload records for one session, oldest first.
func (ix *Index) BySession(ctx context.Context, sessionID string) ([]UploadRecord, error) {
	var recs []UploadRecord
	err := ix.db.NewSelect().
		Model(&recs).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}
