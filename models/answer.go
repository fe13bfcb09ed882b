package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Answer holds either a single option index (single-choice questions) or a
// set of option indices (multiple-choice questions). It is the decoded form
// of the correct_answer column and of every submitted answer; the JSON
// encoding is a bare number for single answers and an array for multiple
// answers, matching what gets stored.
type Answer struct {
	index   int
	indices []int
	set     bool
	valid   bool
}

func SingleAnswer(index int) Answer {
	return Answer{index: index, valid: true}
}

func MultipleAnswer(indices ...int) Answer {
	return Answer{indices: append([]int(nil), indices...), set: true, valid: true}
}

// IsZero reports whether the answer carries no value at all, e.g. a question
// the user never answered.
func (a Answer) IsZero() bool {
	return !a.valid
}

// IsSet reports whether the answer is an index set rather than a single index.
func (a Answer) IsSet() bool {
	return a.set
}

// Index returns the single option index. ok is false for unanswered values
// and for index sets.
func (a Answer) Index() (int, bool) {
	if !a.valid || a.set {
		return 0, false
	}
	return a.index, true
}

// Indices returns the option index set. ok is false for unanswered values
// and for single indices.
func (a Answer) Indices() ([]int, bool) {
	if !a.valid || !a.set {
		return nil, false
	}
	return a.indices, true
}

// Contains reports whether index is a member of an index-set answer.
func (a Answer) Contains(index int) bool {
	if !a.valid || !a.set {
		return false
	}
	for _, v := range a.indices {
		if v == index {
			return true
		}
	}
	return false
}

// Len returns the number of indices in a set answer, 1 for a single answer
// and 0 for an unanswered value.
func (a Answer) Len() int {
	switch {
	case !a.valid:
		return 0
	case a.set:
		return len(a.indices)
	default:
		return 1
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case !a.valid:
		return []byte("null"), nil
	case a.set:
		return json.Marshal(a.indices)
	default:
		return json.Marshal(a.index)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*a = Answer{}
		return nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("answer index must be an integer: %w", err)
		}
		*a = SingleAnswer(int(n))
		return nil
	case []interface{}:
		indices := make([]int, 0, len(v))
		for _, item := range v {
			num, ok := item.(json.Number)
			if !ok {
				return errors.New("answer set members must be integers")
			}
			n, err := num.Int64()
			if err != nil {
				return fmt.Errorf("answer set member must be an integer: %w", err)
			}
			indices = append(indices, int(n))
		}
		*a = MultipleAnswer(indices...)
		return nil
	default:
		return errors.New("answer must be an index or a list of indices")
	}
}

// Value implements driver.Valuer so answers round-trip through text columns.
func (a Answer) Value() (driver.Value, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (a *Answer) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Answer{}
		return nil
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Answer", src)
	}
}

// AnswerMap maps question ids to submitted answers, stored as a JSON object
// keyed by question id.
type AnswerMap map[uint]Answer

func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		m = AnswerMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *AnswerMap) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = AnswerMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnswerMap", src)
	}
	if len(data) == 0 {
		*m = AnswerMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// StringSlice is a JSON-encoded string array column, used for question
// options.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		s = StringSlice{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = StringSlice{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", src)
	}
	if len(data) == 0 {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(data, s)
}
