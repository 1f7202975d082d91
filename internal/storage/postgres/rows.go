package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// queryOne возвращает nil, nil, если строка не найдена.
func queryOne[T any](ctx context.Context, q querier, scan func(rowScanner) (T, error), query string, args ...any) (*T, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	v, err := scan(q.QueryRowContext(queryCtx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// queryList всегда возвращает non-nil срез.
func queryList[T any](ctx context.Context, q querier, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := q.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// writeOne выполняет INSERT/UPDATE ... RETURNING. Отсутствие строки — nil, nil.
func writeOne[T any](ctx context.Context, q querier, entity string, scan func(rowScanner) (T, error), query string, args ...any) (*T, error) {
	v, err := queryOne(ctx, q, scan, query, args...)
	if err != nil {
		return nil, mapWriteError(err, entity)
	}
	return v, nil
}

func optional[T any](v sql.Null[T]) *T {
	if !v.Valid {
		return nil
	}
	out := v.V
	return &out
}

func optionalTime(v sql.Null[time.Time]) *time.Time {
	if !v.Valid {
		return nil
	}
	out := v.V.UTC()
	return &out
}

func optionalDecimal(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	out := v.Decimal
	return &out
}

// arg превращает nil-указатель в NULL, иначе передаёт значение.
func arg[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func timeArg(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func money(v decimal.Decimal) string {
	return domain.RoundMoney(v).String()
}

func moneyArg(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return money(*p)
}

func jsonArg(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: encode json column: %v", domain.ErrInvalidInput, err)
	}
	return string(raw), nil
}

// decodeObject читает jsonb-объект; NULL и пустое значение дают пустую map.
func decodeObject(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func objectOrEmpty(v map[string]any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
