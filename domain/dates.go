package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDueDate is returned when a due date matches none of the accepted
// textual formats.
var ErrInvalidDueDate = errors.New("invalid due date format, use dd-MM-yyyy or yyyy-MM-dd")

// dueDateLayouts are tried in order: dd-MM-yyyy, yyyy-MM-dd, MM/dd/yyyy,
// then RFC 3339 as a fallback for clients sending full timestamps.
var dueDateLayouts = []string{
	"02-01-2006",
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

// ParseDueDate parses a task due date from one of the accepted formats.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDueDate
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}
