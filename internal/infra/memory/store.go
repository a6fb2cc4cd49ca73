// memory holds in-process implementations of the event log's storage
// interfaces. They are used by unit tests and by the dev server mode;
// production deployments use the postgres package.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

type streamKey struct {
	at eventlog.AggregateType
	id eventlog.ID
}

type viewKey struct {
	view string
	id   eventlog.ID
}

// Store is a mutex-guarded, single-process event log. It implements
// eventlog.EventStore, eventlog.SnapshotStore and eventlog.ViewStore
// with the same atomicity and conflict semantics as the Postgres
// implementation.
type Store struct {
	mu        sync.Mutex
	streams   map[streamKey][]eventlog.Envelope
	snapshots map[streamKey]eventlog.Snapshot
	views     map[viewKey]eventlog.ViewRecord
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		streams:   make(map[streamKey][]eventlog.Envelope),
		snapshots: make(map[streamKey]eventlog.Snapshot),
		views:     make(map[viewKey]eventlog.ViewRecord),
	}
}

func (s *Store) Load(_ context.Context, at eventlog.AggregateType, id eventlog.ID, afterSeq eventlog.Seq) ([]eventlog.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[streamKey{at: at, id: id}]
	out := make([]eventlog.Envelope, 0, len(stream))
	for _, env := range stream {
		if env.Seq > afterSeq {
			out = append(out, env)
		}
	}
	return out, nil
}

func (s *Store) Append(_ context.Context, at eventlog.AggregateType, id eventlog.ID, expected eventlog.Seq, events []eventlog.Envelope) (eventlog.Seq, error) {
	if len(events) == 0 {
		return expected, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := streamKey{at: at, id: id}
	stream := s.streams[key]
	current := eventlog.Seq(len(stream))
	if current != expected {
		return 0, eventlog.ConcurrencyConflict{AggregateType: at, AggregateID: id, Expected: expected}
	}
	for i, env := range events {
		want := expected + eventlog.Seq(i) + 1
		if env.Seq != want {
			return 0, eventlog.Corruption{
				AggregateType: at,
				AggregateID:   id,
				Seq:           env.Seq,
				Reason:        fmt.Sprintf("appended event carries seq %d, want %d", env.Seq, want),
			}
		}
	}
	s.streams[key] = append(stream, events...)
	return expected + eventlog.Seq(len(events)), nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap eventlog.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := streamKey{at: snap.AggregateType, id: snap.AggregateID}
	if existing, ok := s.snapshots[key]; ok && existing.Seq > snap.Seq {
		return nil
	}
	s.snapshots[key] = snap
	return nil
}

func (s *Store) LoadSnapshot(_ context.Context, at eventlog.AggregateType, id eventlog.ID) (eventlog.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[streamKey{at: at, id: id}]
	return snap, ok, nil
}

func (s *Store) LoadView(_ context.Context, view string, id eventlog.ID) (eventlog.ViewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.views[viewKey{view: view, id: id}]
	if !ok {
		return eventlog.ViewRecord{}, eventlog.NotFound{View: view, ID: id}
	}
	return rec, nil
}

func (s *Store) StaleViews(_ context.Context, view string, at eventlog.AggregateType, limit uint) ([]eventlog.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []eventlog.ID
	for key, stream := range s.streams {
		if key.at != at || len(stream) == 0 {
			continue
		}
		head := stream[len(stream)-1].Seq
		var last eventlog.Seq
		if rec, ok := s.views[viewKey{view: view, id: key.id}]; ok {
			last = rec.LastSeq
		}
		if last < head {
			ids = append(ids, key.id)
		}
		if uint(len(ids)) >= limit {
			break
		}
	}
	return ids, nil
}

func (s *Store) SaveView(_ context.Context, view string, rec eventlog.ViewRecord, expectedLastSeq eventlog.Seq) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := viewKey{view: view, id: rec.ID}
	var currentLast eventlog.Seq
	if existing, ok := s.views[key]; ok {
		currentLast = existing.LastSeq
	}
	if currentLast != expectedLastSeq {
		return eventlog.ConcurrencyConflict{AggregateID: rec.ID, Expected: expectedLastSeq}
	}
	s.views[key] = rec
	return nil
}
