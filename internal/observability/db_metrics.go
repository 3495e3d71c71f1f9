package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times fn under a logical op name. Missing rows and domain
// errors returned from inside fn count as completed queries; only driver
// and connection failures are counted as errors.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if class, failed := classifyDBErr(err); failed {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, class).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) (string, bool) {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation", true
		case "23503":
			return "foreign_key_violation", true
		case "22P02":
			return "invalid_text", true
		case "40001":
			return "serialization_failure", true
		case "40P01":
			return "deadlock", true
		case "57014":
			return "query_canceled", true
		default:
			return "pg_" + pgErr.Code, true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout", true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout", true
	case strings.Contains(msg, "connection"):
		return "connection", true
	default:
		// sentinel errors from the domain layer
		return "", false
	}
}
