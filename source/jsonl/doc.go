// Package jsonl reads elements from JSON Lines data. Each line is validated with
// https://github.com/tidwall/gjson and becomes one element, carrying the raw JSON text, which can
// then be keyed and selected from using gjson paths or JSONPath expressions.
package jsonl
