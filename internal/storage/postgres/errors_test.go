package postgres

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

func TestMapWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "foreign key", err: &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "products_user_id_fkey"}, want: domain.ErrReferenceNotFound},
		{name: "unique", err: &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "users_email_key"}, want: domain.ErrDuplicate},
		{name: "check", err: &pgconn.PgError{Code: codeCheckViolation}, want: domain.ErrInvalidInput},
		{name: "not null", err: &pgconn.PgError{Code: codeNotNullViolation}, want: domain.ErrInvalidInput},
		{name: "wrapped", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: codeUniqueViolation}), want: domain.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := mapWriteError(tt.err, "entity")
			require.ErrorIs(t, err, tt.want)
			require.True(t, domain.IsIntegrityError(err))
		})
	}
}

func TestMapWriteError_InfrastructureFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset by peer")
	err := mapWriteError(boom, "order")
	require.ErrorIs(t, err, boom)
	require.False(t, domain.IsIntegrityError(err))

	deadlock := &pgconn.PgError{Code: "40P01"}
	err = mapWriteError(deadlock, "order")
	require.False(t, domain.IsIntegrityError(err))
}

func TestMapDeleteError(t *testing.T) {
	t.Parallel()

	err := mapDeleteError(&pgconn.PgError{Code: codeForeignKeyViolation}, "products")
	require.ErrorIs(t, err, domain.ErrReferenceInUse)

	boom := errors.New("timeout")
	err = mapDeleteError(boom, "products")
	require.ErrorIs(t, err, boom)
	require.False(t, domain.IsIntegrityError(err))
}

type recordedOp struct {
	backend string
	op      string
	err     error
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *recordingObserver) ObserveStorageOp(backend, op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{backend: backend, op: op, err: err})
}

func TestStore_TrackReportsOperations(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	store := &Store{logger: log.NewEntry(log.New()), observer: observer}

	var ok error
	store.track("get_user")(&ok)

	failed := error(domain.ErrDuplicate)
	store.track("create_user")(&failed)

	require.Equal(t, []recordedOp{
		{backend: "postgres", op: "get_user"},
		{backend: "postgres", op: "create_user", err: domain.ErrDuplicate},
	}, observer.ops)
}
