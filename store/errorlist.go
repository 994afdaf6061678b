package store

// ErrorList is a timestamp's ordered record of failed stations and pairs.
// Each key is appended at most once; the list doubles as a membership check
// so failed stations are never revisited within the timestamp.
//
// One ErrorList belongs to exactly one timestamp invocation and is never
// shared across timestamps.
type ErrorList struct {
	keys []string
	seen map[string]bool
}

// NewErrorList returns an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{seen: make(map[string]bool)}
}

// Append records a failed <tstamp>/<station> or <tstamp>/<pair> key.
// Duplicate keys are ignored.
func (l *ErrorList) Append(key string) {
	if l.seen[key] {
		return
	}
	l.seen[key] = true
	l.keys = append(l.keys, key)
}

// Contains reports whether key has been recorded.
func (l *ErrorList) Contains(key string) bool {
	return l.seen[key]
}

// Keys returns the recorded keys in append order.
func (l *ErrorList) Keys() []string {
	return l.keys
}

// Len returns the number of recorded keys.
func (l *ErrorList) Len() int {
	return len(l.keys)
}
