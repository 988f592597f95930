package store

import (
	"context"
	"sync"

	"retailservice/pkg/retail/domain/model"
)

type recordKey struct {
	kind model.Kind
	id   model.Identity
}

type storedRecord struct {
	version model.Version
	payload []byte
}

// MemoryStore keeps encoded copies of every record, so callers never share
// state with the store. The version check and the write happen under one lock.
type MemoryStore struct {
	mutex   sync.RWMutex
	records map[recordKey]storedRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]storedRecord)}
}

func (s *MemoryStore) Get(_ context.Context, kind model.Kind, id model.Identity) (*model.Record, error) {
	s.mutex.RLock()
	stored, ok := s.records[recordKey{kind, id}]
	s.mutex.RUnlock()
	if !ok {
		return nil, model.ErrRecordNotFound
	}

	entity, err := model.DecodeEntity(kind, stored.payload)
	if err != nil {
		return nil, err
	}
	return &model.Record{Identity: id, Version: stored.version, Entity: entity}, nil
}

func (s *MemoryStore) Create(_ context.Context, kind model.Kind, record *model.Record) (model.Version, error) {
	payload, err := model.EncodeEntity(record.Entity)
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := recordKey{kind, record.Identity}
	if _, ok := s.records[key]; ok {
		return 0, model.ErrRecordExists
	}
	s.records[key] = storedRecord{version: model.InitialVersion, payload: payload}
	return model.InitialVersion, nil
}

func (s *MemoryStore) ConditionalUpdate(_ context.Context, kind model.Kind, record *model.Record, expected model.Version) (model.Version, error) {
	payload, err := model.EncodeEntity(record.Entity)
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := recordKey{kind, record.Identity}
	current, ok := s.records[key]
	if !ok {
		return 0, model.ErrRecordNotFound
	}
	if current.version != expected {
		return 0, model.ErrVersionMismatch
	}

	next := expected + 1
	s.records[key] = storedRecord{version: next, payload: payload}
	return next, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
