package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// With a constraintName the match is against that constraint's text;
// otherwise the Postgres and sqlite driver messages are both recognized so
// repository code behaves the same under the test dialect.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
