package table

import (
	"math"
	"strconv"
	"strings"
)

// NextNumericKey returns max+1 over the primary-key values that parse as integers.
// Values such as "12.0" count as 12. ok is false when the table has no rows or
// no key parses, in which case callers leave the key blank.
func NextNumericKey(t *Table) (next int64, ok bool) {
	if t == nil || len(t.Columns) == 0 || len(t.Rows) == 0 {
		return 0, false
	}

	var hi int64
	for _, r := range t.Rows {
		n, isNum := parseKey(r[0])
		if !isNum {
			continue
		}
		if !ok || n > hi {
			hi = n
		}
		ok = true
	}
	if !ok {
		return 0, false
	}
	return hi + 1, true
}

func parseKey(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// KeyAllocator hands out primary keys for one table within a batch.
// The table is read once; keys are then incremented locally.
type KeyAllocator struct {
	next    int64
	numeric bool
	used    map[string]bool
}

// NewKeyAllocator prepares an allocator from the table's current keys.
func NewKeyAllocator(t *Table) *KeyAllocator {
	a := &KeyAllocator{used: make(map[string]bool)}
	a.next, a.numeric = NextNumericKey(t)
	if t != nil && len(t.Columns) > 0 {
		for _, r := range t.Rows {
			a.used[r[0]] = true
		}
	}
	return a
}

// Next returns the next free key, or ok=false when the table has no numeric keys.
func (a *KeyAllocator) Next() (key string, ok bool) {
	if !a.numeric {
		return "", false
	}
	for {
		key = strconv.FormatInt(a.next, 10)
		a.next++
		if !a.used[key] {
			a.used[key] = true
			return key, true
		}
	}
}

// Reserve marks an explicit key as taken and moves the sequence past it.
// It returns false if the key is already in use.
func (a *KeyAllocator) Reserve(key string) bool {
	if a.used[key] {
		return false
	}
	a.used[key] = true
	if n, isNum := parseKey(key); isNum && a.numeric && n >= a.next {
		a.next = n + 1
	}
	return true
}

// InUse reports whether key is taken.
func (a *KeyAllocator) InUse(key string) bool {
	return a.used[key]
}
