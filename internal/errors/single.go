package errors

// A simple, single string error. Two errors created from the same string
// compare equal which makes them usable as constant sentinels.
type simpleError string

func New(s string) error {
	return simpleError(s)
}

func (s simpleError) Error() string {
	return string(s)
}
