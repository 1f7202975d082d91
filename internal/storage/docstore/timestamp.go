package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp — нативное представление времени в документах хранилища:
// секунды и наносекунды Unix-эпохи.
type Timestamp struct {
	Seconds     int64 `json:"_seconds"`
	Nanoseconds int32 `json:"_nanoseconds"`
}

// NewTimestamp конвертирует время в Timestamp. Нулевое время даёт nil.
func NewTimestamp(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{Seconds: t.Unix(), Nanoseconds: int32(t.Nanosecond())}
}

// NewTimestampPtr конвертирует nullable-время.
func NewTimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return NewTimestamp(*t)
}

// IsZero сообщает, что значение отсутствует (nil или пустая строка в документе).
func (ts *Timestamp) IsZero() bool {
	return ts == nil || (ts.Seconds == 0 && ts.Nanoseconds == 0)
}

// Time возвращает время в UTC; для отсутствующего значения — нулевое время.
func (ts *Timestamp) Time() time.Time {
	if ts.IsZero() {
		return time.Time{}
	}
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds)).UTC()
}

// TimePtr возвращает nullable-время: nil для отсутствующего значения.
func (ts *Timestamp) TimePtr() *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time()
	return &t
}

// UnmarshalJSON принимает нативный объект, строку RFC 3339 (документы,
// записанные сторонними клиентами) и null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		if parsed := NewTimestamp(t); parsed != nil {
			*ts = *parsed
		}
		return nil
	}

	type native Timestamp
	var n native
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	*ts = Timestamp(n)
	return nil
}
