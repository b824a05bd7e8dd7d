package catalog

import (
	"errors"
	"fmt"
	"log/slog"
)

// Validate checks a catalog before it is handed to a session.
//
// Rules:
//   - Every Name must keep at least one character after [Fold]; blank names
//     and names made only of combining marks are rejected.
//   - Duplicate names (equal after [Fold]) are permitted but logged, since
//     only the first of them can ever win a match.
func Validate(entries []Entry) error {
	var errs []error
	seen := make(map[string]int, len(entries))

	for i, e := range entries {
		key := Fold(e.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("entries[%d]: %w", i, ErrEmptyName))
			continue
		}
		if prev, ok := seen[key]; ok {
			slog.Warn("catalog: duplicate presentation name",
				"name", e.Name,
				"index", i,
				"first_index", prev,
			)
			continue
		}
		seen[key] = i
	}

	return errors.Join(errs...)
}
