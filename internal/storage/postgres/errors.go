package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// SQLSTATE-коды нарушений целостности.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapWriteError переводит ошибку INSERT/UPDATE в доменную. Внешний ключ при записи
// означает, что владелец или связанная сущность не существует.
func mapWriteError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("write %s: %w", entity, err)
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s (%s)", domain.ErrReferenceNotFound, entity, pgErr.ConstraintName)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s (%s)", domain.ErrDuplicate, entity, pgErr.ConstraintName)
	case codeCheckViolation, codeNotNullViolation:
		return fmt.Errorf("%w: %s (%s)", domain.ErrInvalidInput, entity, pgErr.ConstraintName)
	default:
		return fmt.Errorf("write %s: %w", entity, err)
	}
}

// mapDeleteError переводит ошибку DELETE: внешний ключ значит, что на строку ещё ссылаются.
func mapDeleteError(err error, table string) error {
	if pgErrorCode(err) == codeForeignKeyViolation {
		return fmt.Errorf("%w: %s", domain.ErrReferenceInUse, table)
	}
	return fmt.Errorf("delete from %s: %w", table, err)
}

// domainError отличает нарушение целостности от отказа инфраструктуры.
func domainError(err error) bool {
	return domain.IsIntegrityError(err)
}
