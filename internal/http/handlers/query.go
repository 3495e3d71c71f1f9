package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// queryParser collects every malformed query parameter before the handler
// responds, so clients see all problems at once.
type queryParser struct {
	ctx  *gin.Context
	errs FieldErrors
}

func newQueryParser(ctx *gin.Context) *queryParser {
	return &queryParser{ctx: ctx, errs: FieldErrors{}}
}

func (q *queryParser) raw(name string) (string, bool) {
	v, ok := q.ctx.GetQuery(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (q *queryParser) String(name string) *string {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	return &v
}

func (q *queryParser) Int(name string, def int) int {
	v, ok := q.raw(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.errs[name] = "must be an integer"
		return def
	}
	return n
}

func (q *queryParser) Float(name string) *float64 {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		q.errs[name] = "must be a number"
		return nil
	}
	return &f
}

func (q *queryParser) Bool(name string) *bool {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.errs[name] = "must be true or false"
		return nil
	}
	return &b
}

// Time accepts RFC3339 timestamps or plain dates. A plain date used as an
// upper bound covers the whole day.
func (q *queryParser) Time(name string, endOfDay bool) *time.Time {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		q.errs[name] = "must be a date (YYYY-MM-DD) or RFC3339 timestamp"
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func (q *queryParser) Fail(name, msg string) {
	q.errs[name] = msg
}

// Respond writes a 400 when any parameter failed and reports whether it did.
func (q *queryParser) Respond() bool {
	if len(q.errs) == 0 {
		return false
	}
	RespondBadRequest(q.ctx, "Invalid query parameters", q.errs)
	return true
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
