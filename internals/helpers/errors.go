package helper

import (
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Service-layer error kinds. Wrap them with errors.Wrap / errors.Wrapf so the
// HTTP layer can map the cause to a status code.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

func Validationf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func Conflictf(format string, args ...any) error {
	return errors.Wrapf(ErrConflict, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return errors.Wrapf(ErrForbidden, format, args...)
}

// message strips the sentinel suffix added by errors.Wrapf ("x: not found" -> "x").
func message(err error, sentinel error) string {
	msg := err.Error()
	return strings.TrimSuffix(msg, ": "+sentinel.Error())
}

// --- PG error mapping (pgx/libpq) ---
func MapPGError(err error) (int, string) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		switch pgxErr.Code {
		case "23503":
			return http.StatusBadRequest, "referenced row not found (FK violation)"
		case "23505":
			return http.StatusConflict, "duplicate data (unique violation)"
		default:
			return http.StatusInternalServerError, pgxErr.Message
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "23503":
			return http.StatusBadRequest, "referenced row not found (FK violation)"
		case "23505":
			return http.StatusConflict, "duplicate data (unique violation)"
		default:
			return http.StatusInternalServerError, pqErr.Error()
		}
	}
	if IsUniqueViolation(err) {
		return http.StatusConflict, "duplicate data (unique violation)"
	}
	return http.StatusInternalServerError, err.Error()
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key value") || strings.Contains(s, "unique constraint")
}

// FromError writes the JSON error envelope for an error returned by a service
// or a transaction callback.
func FromError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fe):
		return JsonError(c, fe.Code, fe.Message)
	case errors.Is(err, ErrValidation):
		return JsonError(c, fiber.StatusBadRequest, message(err, ErrValidation))
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return JsonError(c, fiber.StatusNotFound, message(err, ErrNotFound))
	case errors.Is(err, ErrConflict):
		return JsonError(c, fiber.StatusConflict, message(err, ErrConflict))
	case errors.Is(err, ErrForbidden):
		return JsonError(c, fiber.StatusForbidden, message(err, ErrForbidden))
	}

	code, msg := MapPGError(err)
	if code >= 500 {
		log.Printf("[ERROR] %s %s: %+v", c.Method(), c.OriginalURL(), err)
		Report(err, map[string]interface{}{"path": c.OriginalURL(), "method": c.Method()})
		msg = "internal server error"
	}
	return JsonError(c, code, msg)
}
