// Copyright 2019 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history keeps track of submitted jobs in a local sqlite database
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/ystia/jobsub/log"
)

// DBFileName is the name of the history database within the working directory
const DBFileName = "history.db"

// DefaultListLimit is the number of entries returned by List when no limit is given
const DefaultListLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL,
	job_name     TEXT NOT NULL,
	script_hash  TEXT NOT NULL,
	host         TEXT NOT NULL,
	submitted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_script_hash ON submissions(script_hash);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
`

// Entry is a recorded job submission
type Entry struct {
	ID          string
	JobID       string
	JobName     string
	ScriptHash  string
	Host        string
	SubmittedAt time.Time
}

// Store is a sqlite backed submission history
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the history database of the given working directory
func Open(workingDirectory string) (*Store, error) {
	dir, err := homedir.Expand(workingDirectory)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand working directory %q", workingDirectory)
	}
	if err = os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "failed to create working directory %q", dir)
	}
	return OpenFile(filepath.Join(dir, DBFileName))
}

// OpenFile opens (and creates if needed) the history database at the given path
func OpenFile(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history database %q", path)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to initialize history database %q", path)
	}
	log.Debugf("Using submission history database %q", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "failed to close history database")
}

// Record stores a submission
//
// An ID is generated if the entry has none and SubmittedAt defaults to now.
// The stored entry is returned.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, job_id, job_name, script_hash, host, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.JobID, entry.JobName, entry.ScriptHash, entry.Host, entry.SubmittedAt.UnixNano())
	if err != nil {
		return entry, errors.Wrapf(err, "failed to record submission of job %q", entry.JobID)
	}
	return entry, nil
}

// FindByScriptHash returns previous submissions of an identical batch script, newest first
func (s *Store) FindByScriptHash(ctx context.Context, hash string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, job_name, script_hash, host, submitted_at
		FROM submissions WHERE script_hash = ?
		ORDER BY submitted_at DESC`, hash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query submission history")
	}
	return scanEntries(rows)
}

// List returns at most limit submissions, newest first
//
// A limit lower or equal to 0 means DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, job_name, script_hash, host, submitted_at
		FROM submissions
		ORDER BY submitted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query submission history")
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var submittedAt int64
		if err := rows.Scan(&e.ID, &e.JobID, &e.JobName, &e.ScriptHash, &e.Host, &submittedAt); err != nil {
			return nil, errors.Wrap(err, "failed to read submission history")
		}
		e.SubmittedAt = time.Unix(0, submittedAt)
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "failed to read submission history")
}
