package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// idOnly декодирует из документа только идентификатор.
type idOnly struct {
	ID string `json:"id"`
}

// requireRef проверяет существование документа, на который ссылается запись.
func (b *Backend) requireRef(ctx context.Context, collection, id, what string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id is empty", domain.ErrReferenceNotFound, what)
	}
	rec, err := getRecord[idOnly](ctx, b, collection, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %s %s", domain.ErrReferenceNotFound, what, id)
	}
	return nil
}

// requireOptionalRef проверяет nullable-ссылку.
func (b *Backend) requireOptionalRef(ctx context.Context, collection string, id *string, what string) error {
	if id == nil {
		return nil
	}
	return b.requireRef(ctx, collection, *id, what)
}

// ensureUnique проверяет, что ни один документ, кроме selfID, не совпадает с фильтрами.
// Проверка и запись не атомарны: конкурентные вставки могут обойти проверку.
func (b *Backend) ensureUnique(ctx context.Context, collection, selfID, what string, filters ...docstore.Filter) error {
	existing, err := findRecords[idOnly](ctx, b, collection, filters...)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if rec.ID != selfID {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, what)
		}
	}
	return nil
}

// restrictDelete отказывает в удалении, если на документ ссылается хотя бы одна запись.
func (b *Backend) restrictDelete(ctx context.Context, collection, field, id, what string) error {
	refs, err := findRecords[idOnly](ctx, b, collection, docstore.Eq(field, id))
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return fmt.Errorf("%w: %s referenced by %d %s", domain.ErrReferenceInUse, what, len(refs), collection)
	}
	return nil
}

// cascadeDelete удаляет все документы коллекции со ссылкой field == id.
func (b *Backend) cascadeDelete(ctx context.Context, collection, field, id string) error {
	refs, err := findRecords[idOnly](ctx, b, collection, docstore.Eq(field, id))
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if _, err := deleteRecord(ctx, b, collection, ref.ID); err != nil {
			return err
		}
	}
	return nil
}

// detachReferences обнуляет nullable-ссылку field == id во всех документах коллекции.
// Документ меняется как карта, чтобы не терять поля, неизвестные доменной модели.
func (b *Backend) detachReferences(ctx context.Context, collection, field, id string) error {
	raws, err := b.store.Find(ctx, collection, docstore.Eq(field, id))
	if err != nil {
		if docstore.IsNotProvisioned(err) {
			return nil
		}
		return fmt.Errorf("find %s: %w", collection, err)
	}
	for _, raw := range raws {
		var doc map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("decode %s: %w", collection, err)
		}
		docID, _ := doc["id"].(string)
		doc[field] = nil
		if err := putRecord(ctx, b, collection, docID, doc); err != nil {
			return err
		}
	}
	return nil
}

// sortNewestFirst упорядочивает по времени создания (новые первыми), при равенстве — по ID.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}

// sortOldestFirst упорядочивает по времени создания (старые первыми), при равенстве — по ID.
func sortOldestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}
