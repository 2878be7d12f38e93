package grouping

import (
	"sort"
)

// MeanState is the running state of a mean: the (bulk-weighted) sum of all values seen, and how many there were
type MeanState struct {
	Sum   float64
	Count int64
}

// Mean returns the mean represented by this state, or false if no values contributed to it
func (m MeanState) Mean() (float64, bool) {
	if m.Count == 0 {
		return 0, false
	}
	return m.Sum / float64(m.Count), true
}

// DistinctSet is a set of values, keyed by CanonicalKey
type DistinctSet struct {
	values map[string]interface{}
}

// NewDistinctSet returns an empty DistinctSet
func NewDistinctSet() *DistinctSet {
	return &DistinctSet{values: make(map[string]interface{})}
}

// Add inserts a value into the set, returning true if it was not already present
func (s *DistinctSet) Add(v interface{}) (bool, error) {
	k, err := CanonicalKey(v)
	if err != nil {
		return false, err
	}
	if _, ok := s.values[k]; ok {
		return false, nil
	}
	s.values[k] = v
	return true, nil
}

// Contains returns true iff an equal value is present in the set
func (s *DistinctSet) Contains(v interface{}) bool {
	k, err := CanonicalKey(v)
	if err != nil {
		return false
	}
	_, ok := s.values[k]
	return ok
}

// Len returns the number of values in the set
func (s *DistinctSet) Len() int {
	return len(s.values)
}

// Values returns the contents of the set, ordered by their canonical encoding
func (s *DistinctSet) Values() []interface{} {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]interface{}, len(keys))
	for i, k := range keys {
		result[i] = s.values[k]
	}
	return result
}

// Clone returns a copy of this set
func (s *DistinctSet) Clone() *DistinctSet {
	c := &DistinctSet{values: make(map[string]interface{}, len(s.values))}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Union returns a new set containing the values of both sets
func (s *DistinctSet) Union(o *DistinctSet) *DistinctSet {
	c := s.Clone()
	for k, v := range o.values {
		c.values[k] = v
	}
	return c
}

// LimitedList is a sequence of values, each with a multiplicity, whose total multiplicity never
// exceeds its limit. Values are kept in the order they were added.
type LimitedList struct {
	limit  int64
	total  int64
	values []interface{}
	bulks  []int64
}

// NewLimitedList returns an empty LimitedList. A negative limit is treated as zero.
func NewLimitedList(limit int64) *LimitedList {
	if limit < 0 {
		limit = 0
	}
	return &LimitedList{limit: limit}
}

// Limit returns the maximum total multiplicity of this list
func (l *LimitedList) Limit() int64 {
	return l.limit
}

// Len returns the total multiplicity of the values in this list
func (l *LimitedList) Len() int64 {
	return l.total
}

// Add appends a value with multiplicity bulk, truncated to the space remaining. It returns the
// multiplicity which was accepted, which is 0 once the list is full.
func (l *LimitedList) Add(v interface{}, bulk int64) int64 {
	if remaining := l.limit - l.total; bulk > remaining {
		bulk = remaining
	}
	if bulk <= 0 {
		return 0
	}
	l.values = append(l.values, v)
	l.bulks = append(l.bulks, bulk)
	l.total += bulk
	return bulk
}

// Each calls fn with every value in the list and its multiplicity
func (l *LimitedList) Each(fn func(v interface{}, bulk int64)) {
	for i, v := range l.values {
		fn(v, l.bulks[i])
	}
}

// Clone returns a copy of this list
func (l *LimitedList) Clone() *LimitedList {
	c := &LimitedList{limit: l.limit, total: l.total}
	c.values = append(c.values, l.values...)
	c.bulks = append(c.bulks, l.bulks...)
	return c
}

// Concat returns a new list holding the values of this list followed by as many of the values of
// o as fit
func (l *LimitedList) Concat(o *LimitedList) *LimitedList {
	c := l.Clone()
	o.Each(func(v interface{}, bulk int64) {
		c.Add(v, bulk)
	})
	return c
}
