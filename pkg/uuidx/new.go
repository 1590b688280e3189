package uuidx

import "github.com/google/uuid"

// New generates a new UUID using the version 7 format and returns it.
// Version 7 ids sort by creation time, so providers created earlier compare lower.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// Short returns the first eight hex digits of id, enough to tell providers apart in logs.
func Short(id uuid.UUID) string {
	return id.String()[:8]
}
