// Package storage persists merged papers as JSON Lines.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"

	"github.com/matsen/papermerge/internal/merge"
	"github.com/matsen/papermerge/internal/paper"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (4MB per line).
// Papers carry raw provider records, so lines are larger than typical JSONL.
const MaxJSONLLineCapacity = 4 * 1024 * 1024

// Upsert actions.
const (
	ActionNew    = "new"
	ActionUpdate = "update"
)

// lockFor returns the advisory lock guarding path.
func lockFor(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// ReadAll reads all papers from a JSONL file. A missing file yields no
// papers and no error.
func ReadAll(path string) ([]paper.Paper, error) {
	lock := lockFor(path)
	if err := lock.RLock(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("locking papers file: %w", err)
	}
	defer lock.Unlock()

	return readAll(path)
}

func readAll(path string) ([]paper.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening papers file: %w", err)
	}
	defer f.Close()

	var papers []paper.Paper
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p paper.Paper
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		papers = append(papers, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading papers file: %w", err)
	}
	return papers, nil
}

// appendPaper adds p to the end of the file. The caller holds the lock.
func appendPaper(path string, p paper.Paper) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening papers file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding paper: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing paper: %w", err)
	}
	return nil
}

// writeAll writes to a temporary file and renames it over path, so readers
// never observe a partial file.
func writeAll(path string, papers []paper.Paper) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating papers file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i, p := range papers {
		data, err := json.Marshal(p)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("encoding paper %d: %w", i, err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing papers file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing papers file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing papers file: %w", err)
	}
	return nil
}

// Upsert stores p, overlaying it onto the stored paper with a matching
// identifier or appending it when none matches. An update keeps every stored
// identifier, source and user tag, then re-derives the merged fields from
// the combined sources. It returns ActionNew or ActionUpdate.
func Upsert(path string, p paper.Paper) (string, error) {
	if _, ok := Key(p); !ok {
		return "", fmt.Errorf("paper has no identifier to store it under")
	}
	if err := ensureDir(path); err != nil {
		return "", err
	}
	lock := lockFor(path)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking papers file: %w", err)
	}
	defer lock.Unlock()

	papers, err := readAll(path)
	if err != nil {
		return "", err
	}

	i, found := Find(papers, p)
	if !found {
		if err := appendPaper(path, p); err != nil {
			return "", err
		}
		return ActionNew, nil
	}
	papers[i] = merge.Populate(paper.MergePapers(papers[i], p))
	if err := writeAll(path, papers); err != nil {
		return "", err
	}
	return ActionUpdate, nil
}

// ErrNoMatch is returned by Tag when no stored paper matches.
var ErrNoMatch = errors.New("no stored paper matches")

// Tag adds and removes user tags on the stored paper matching match, and
// returns the updated paper. Tags are normalized; namespaced tags belong to
// the providers and are rejected.
func Tag(path string, match paper.Paper, add, remove []string) (paper.Paper, error) {
	for _, t := range append(slices.Clone(add), remove...) {
		if paper.IsNamespaced(t) {
			return paper.Paper{}, fmt.Errorf("tag %q is namespaced; only user tags can be edited", t)
		}
	}

	lock := lockFor(path)
	if err := lock.Lock(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return paper.Paper{}, ErrNoMatch
		}
		return paper.Paper{}, fmt.Errorf("locking papers file: %w", err)
	}
	defer lock.Unlock()

	papers, err := readAll(path)
	if err != nil {
		return paper.Paper{}, err
	}
	i, found := Find(papers, match)
	if !found {
		return paper.Paper{}, ErrNoMatch
	}

	p := papers[i].Clone()
	p.AutoTags = paper.AppendTags(p.AutoTags, add...)
	for _, t := range remove {
		p.AutoTags = paper.RemoveTag(p.AutoTags, paper.NormalizeTag(t))
	}
	papers[i] = p
	if err := writeAll(path, papers); err != nil {
		return paper.Paper{}, err
	}
	return p, nil
}

// HasTag reports whether p carries tag after normalization.
func HasTag(p paper.Paper, tag string) bool {
	return slices.Contains(p.AutoTags, paper.NormalizeTag(tag))
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating papers directory: %w", err)
	}
	return nil
}
