// Package toggles keeps an append-only journal of settled toggle requests.
// The journal feeds the dashboard; the coin list itself is never rebuilt from it.
package toggles

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"github.com/vadiminshakov/gowal"
)

const (
	// DefaultDir is used when Open gets an empty directory.
	DefaultDir = "./wal/toggles"

	recordKeyPrefix = "toggle:"
	segmentRecords  = 500
	segmentsKept    = 20
)

// ErrClosed is returned by a journal that was never opened or is already closed.
var ErrClosed = errors.New("toggle journal closed")

// Journal stores toggle events in a gowal log, one record per event keyed by event id.
type Journal struct {
	mu  sync.RWMutex
	wal *gowal.Wal
}

// Open creates or reopens the journal in dir.
func Open(dir string) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentRecords,
		MaxSegments:      segmentsKept,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open toggle journal in %s", dir)
	}

	return &Journal{wal: wal}, nil
}

// Save appends event. Events without an id or symbol are rejected.
func (j *Journal) Save(event domain.ToggleEvent) error {
	switch {
	case event.ID == "":
		return errors.New("toggle event has no id")
	case event.Symbol == "":
		return errors.Errorf("toggle event %s has no symbol", event.ID)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "encode toggle event %s", event.ID)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.wal == nil {
		return ErrClosed
	}

	next := j.wal.CurrentIndex() + 1
	return errors.Wrapf(j.wal.Write(next, recordKeyPrefix+event.ID, payload), "append toggle event %s", event.ID)
}

// EventsAfter returns events journaled after index, oldest first.
func (j *Journal) EventsAfter(index uint64) ([]domain.ToggleEventRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.wal == nil {
		return nil, ErrClosed
	}

	var out []domain.ToggleEventRecord
	for idx := index + 1; idx <= j.wal.CurrentIndex(); idx++ {
		rec, ok, err := j.read(idx)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Recent returns up to limit events, newest first. With failedOnly set,
// acknowledged toggles are skipped.
func (j *Journal) Recent(limit int, failedOnly bool) ([]domain.ToggleEventRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.wal == nil {
		return nil, ErrClosed
	}

	out := make([]domain.ToggleEventRecord, 0, limit)
	for idx := j.wal.CurrentIndex(); idx > 0 && len(out) < limit; idx-- {
		rec, ok, err := j.read(idx)
		if err != nil {
			return nil, err
		}
		if !ok || (failedOnly && rec.Event.OK) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// LastIndex is the index of the newest record, 0 for an empty journal.
func (j *Journal) LastIndex() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.wal == nil {
		return 0
	}
	return j.wal.CurrentIndex()
}

// Close flushes and closes the log. Later calls return ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.wal == nil {
		return ErrClosed
	}
	err := j.wal.Close()
	j.wal = nil
	return err
}

// read decodes the record at idx; ok is false for records that are not toggle events
// or were dropped with an old segment.
func (j *Journal) read(idx uint64) (_ domain.ToggleEventRecord, ok bool, _ error) {
	key, payload, found := j.wal.Get(idx)
	if !found || !strings.HasPrefix(key, recordKeyPrefix) {
		return domain.ToggleEventRecord{}, false, nil
	}

	var event domain.ToggleEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ToggleEventRecord{}, false, errors.Wrapf(err, "decode toggle record %d", idx)
	}
	return domain.ToggleEventRecord{Index: idx, Event: event}, true, nil
}
