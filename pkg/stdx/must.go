package stdx

// Must1 returns v, or panics when err is not nil. Declarative tree builders use
// it to turn structural mistakes into loud failures.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
