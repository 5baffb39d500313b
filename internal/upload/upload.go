// Package upload persists report images on the local filesystem.
//
// Files are first written into a hidden staging directory and only renamed
// into the public upload directory once the submission has passed its
// duplicate and match checks. A rejected submission discards its staged
// files, so the upload directory never accumulates orphans.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Saver writes uploaded files under a base directory.
type Saver struct {
	dir     string
	staging string

	mu     sync.Mutex
	lastTS int64
}

// NewSaver creates the upload and staging directories.
func NewSaver(dir string) (*Saver, error) {
	staging := filepath.Join(dir, ".staging")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dirs: %w", err)
	}
	return &Saver{dir: dir, staging: staging}, nil
}

// Dir returns the public upload directory.
func (s *Saver) Dir() string { return s.dir }

// Staged holds files written to the staging area for one submission.
type Staged struct {
	saver *Saver
	names []string
}

// Stage writes each file into the staging area under a generated name of
// the form <field>-<timestamp>, preserving upload order. Timestamps are
// nanosecond-resolution and strictly increasing within a process, so two
// files in one request never collide.
func (s *Saver) Stage(field string, files []*multipart.FileHeader) (*Staged, error) {
	st := &Staged{saver: s}
	for _, fh := range files {
		name := field + "-" + strconv.FormatInt(s.nextTimestamp(), 10)
		if err := writeFile(fh, filepath.Join(s.staging, name)); err != nil {
			st.Discard()
			return nil, fmt.Errorf("staging %s: %w", fh.Filename, err)
		}
		st.names = append(st.names, name)
	}
	return st, nil
}

// Names returns the generated filenames in upload order.
func (st *Staged) Names() []string {
	if st.names == nil {
		return []string{}
	}
	return st.names
}

// Commit moves staged files into the public upload directory.
func (st *Staged) Commit() error {
	for i, name := range st.names {
		if err := os.Rename(filepath.Join(st.saver.staging, name), filepath.Join(st.saver.dir, name)); err != nil {
			// Roll the already-moved files back so a partial commit does
			// not leave half the set public.
			for _, moved := range st.names[:i] {
				_ = os.Rename(filepath.Join(st.saver.dir, moved), filepath.Join(st.saver.staging, moved))
			}
			return fmt.Errorf("committing %s: %w", name, err)
		}
	}
	return nil
}

// Discard removes staged files after a rejected submission.
func (st *Staged) Discard() {
	for _, name := range st.names {
		_ = os.Remove(filepath.Join(st.saver.staging, name))
	}
	st.names = nil
}

func (s *Saver) nextTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := time.Now().UnixNano()
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ts
}

func writeFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
