package handlers

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// base carries what every handler needs besides its store.
type base struct {
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

func newBase(log *slog.Logger) base {
	if log == nil {
		log = slog.Default()
	}
	return base{
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}
