package router

import "strings"

// optionalString maps blank payload strings to NULL columns.
func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ptrTo[T any](value T) *T {
	return &value
}
