package models

import (
	"fmt"
	"regexp"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidCivilDate reports whether s is a well-formed yyyy-mm-dd date string.
// Bar and position dates are kept as plain strings end to end: the store,
// the stooq CSV feed and every engine comparison treat dates as opaque,
// lexicographically sortable values, never as time.Time.
func ValidCivilDate(s string) bool {
	return isoDatePattern.MatchString(s)
}

// RequireCivilDate returns an error naming the field if s is not ISO yyyy-mm-dd.
func RequireCivilDate(field, s string) error {
	if !ValidCivilDate(s) {
		return fmt.Errorf("%s: invalid date %q, want yyyy-mm-dd", field, s)
	}
	return nil
}
