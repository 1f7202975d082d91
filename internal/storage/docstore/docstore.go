// Package docstore описывает минимальный клиент документного хранилища:
// коллекции JSON-документов с точечным доступом по ID и фильтрами на равенство.
// Хранилище не знает о схемах, внешних ключах и серверных значениях по умолчанию.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound — документ с таким ID отсутствует в существующей коллекции.
	ErrNotFound = errors.New("document not found")
	// ErrNotProvisioned — коллекция ещё не создана (свежее хранилище).
	ErrNotProvisioned = errors.New("collection is not provisioned")
)

// IsNotProvisioned сообщает, что ошибка означает «хранилище ещё не подготовлено».
// Backend трактует такой ответ как пустой результат, а не отказ.
func IsNotProvisioned(err error) bool {
	return errors.Is(err, ErrNotProvisioned)
}

// Filter — условие равенства на поле верхнего уровня документа.
// Value сравнивается со значением после JSON-декодирования, поэтому
// поддерживаются строки, bool и nil.
type Filter struct {
	Field string
	Value any
}

// Eq создаёт фильтр равенства.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Store — клиент документного хранилища.
type Store interface {
	// Get возвращает документ или ErrNotFound / ErrNotProvisioned.
	Get(ctx context.Context, collection, id string) ([]byte, error)
	// Put создаёт или полностью перезаписывает документ (создавая коллекцию при необходимости).
	Put(ctx context.Context, collection, id string, doc []byte) error
	// Delete удаляет документ и сообщает, существовал ли он.
	Delete(ctx context.Context, collection, id string) (bool, error)
	// Find возвращает документы, удовлетворяющие всем фильтрам, в произвольном порядке.
	Find(ctx context.Context, collection string, filters ...Filter) ([][]byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// Matches проверяет документ на соответствие фильтрам.
func Matches(doc []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, err
	}
	for _, f := range filters {
		if fields[f.Field] != f.Value {
			return false, nil
		}
	}
	return true, nil
}

func filterDocuments(docs [][]byte, filters []Filter) ([][]byte, error) {
	result := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		ok, err := Matches(doc, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, doc)
		}
	}
	return result, nil
}
