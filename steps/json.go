package steps

import (
	"fmt"
	"strings"

	"github.com/go-sif/grouping"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/tidwall/gjson"
)

// documentText returns the JSON text carried by a Traverser
func documentText(name string, t grouping.Traverser) (string, error) {
	switch v := t.Value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("%s requires a JSON document, got %T", name, t.Value)
}

// resultValue converts a gjson.Result to a plain value. Integral numbers become int64, and
// objects and arrays are left as compacted JSON so that they can be selected from again, and
// group together regardless of their original whitespace.
func resultValue(r gjson.Result) interface{} {
	switch r.Type {
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			return r.Int()
		}
		return r.Num
	case gjson.JSON:
		return gjson.Get(r.Raw, "@ugly").Raw
	}
	return r.Value()
}

type fieldStep struct {
	path string
}

func (s *fieldStep) Name() string {
	return "field(" + s.path + ")"
}

func (s *fieldStep) Type() grouping.StepType {
	return grouping.MapStepType
}

func (s *fieldStep) Clone() grouping.Step {
	return &fieldStep{path: s.path}
}

func (s *fieldStep) Map(t grouping.Traverser) (grouping.Traverser, bool, error) {
	doc, err := documentText(s.Name(), t)
	if err != nil {
		return grouping.Traverser{}, false, err
	}
	r := gjson.Get(doc, s.path)
	if !r.Exists() {
		return grouping.Traverser{}, false, nil
	}
	return t.Split(resultValue(r)), true, nil
}

// Field selects a value from a JSON document using a gjson path. Documents without the field are dropped.
func Field(path string) grouping.Step {
	return &fieldStep{path: path}
}

// Has retains only the JSON documents which contain a value at the given gjson path
func Has(path string) grouping.Step {
	name := "has(" + path + ")"
	return &filterStep{name: name, fn: func(t grouping.Traverser) (bool, error) {
		doc, err := documentText(name, t)
		if err != nil {
			return false, err
		}
		return gjson.Get(doc, path).Exists(), nil
	}}
}

type pathStep struct {
	query string
	expr  jp.Expr
	err   error
}

func (s *pathStep) Name() string {
	return "path(" + s.query + ")"
}

func (s *pathStep) Type() grouping.StepType {
	return grouping.FlatMapStepType
}

func (s *pathStep) Clone() grouping.Step {
	return &pathStep{query: s.query, expr: s.expr, err: s.err}
}

func (s *pathStep) FlatMap(t grouping.Traverser) ([]grouping.Traverser, error) {
	if s.err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression %q: %w", s.query, s.err)
	}
	subject := t.Value
	switch v := t.Value.(type) {
	case string:
		parsed, err := oj.ParseString(v)
		if err != nil {
			return nil, err
		}
		subject = parsed
	case []byte:
		parsed, err := oj.Parse(v)
		if err != nil {
			return nil, err
		}
		subject = parsed
	}
	values := s.expr.Get(subject)
	res := make([]grouping.Traverser, len(values))
	for i, v := range values {
		res[i] = t.Split(v)
	}
	return res, nil
}

// Path selects every value matching a JSONPath expression. Strings and byte slices are parsed as
// JSON first; other values (maps, slices) are queried directly.
func Path(query string) grouping.Step {
	expr, err := jp.ParseString(query)
	return &pathStep{query: query, expr: expr, err: err}
}
