package utils

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ClampLimit maps a requested page size onto [1, MaxListLimit]; non-positive means default.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
