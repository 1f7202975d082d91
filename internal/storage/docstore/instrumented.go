package docstore

import (
	"context"
	"errors"
	"time"
)

// Observer получает длительность и результат каждой операции хранилища.
type Observer interface {
	ObserveStorageOp(backend, op string, duration time.Duration, err error)
}

type instrumentedStore struct {
	next     Store
	observer Observer
}

// Instrument оборачивает Store и сообщает о каждой операции наблюдателю.
// Ответ «коллекция не создана» не считается ошибкой.
func Instrument(store Store, observer Observer) Store {
	if observer == nil {
		return store
	}
	return &instrumentedStore{next: store, observer: observer}
}

func (s *instrumentedStore) observe(op string, started time.Time, err error) {
	if IsNotProvisioned(err) {
		err = nil
	}
	s.observer.ObserveStorageOp("document", op, time.Since(started), err)
}

func (s *instrumentedStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	started := time.Now()
	doc, err := s.next.Get(ctx, collection, id)
	if errors.Is(err, ErrNotFound) {
		s.observe("get", started, nil)
	} else {
		s.observe("get", started, err)
	}
	return doc, err
}

func (s *instrumentedStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	started := time.Now()
	err := s.next.Put(ctx, collection, id, doc)
	s.observe("put", started, err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	started := time.Now()
	deleted, err := s.next.Delete(ctx, collection, id)
	s.observe("delete", started, err)
	return deleted, err
}

func (s *instrumentedStore) Find(ctx context.Context, collection string, filters ...Filter) ([][]byte, error) {
	started := time.Now()
	docs, err := s.next.Find(ctx, collection, filters...)
	s.observe("find", started, err)
	return docs, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
