package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	yaml "gopkg.in/yaml.v2"
)

const people = `{"name": "ada", "team": "compilers", "age": 36, "tags": ["math"]}
{"name": "grace", "team": "compilers", "age": 44, "tags": ["navy", "math"]}
{"name": "linus", "team": "kernels", "age": 27}
{"name": "ken", "team": "kernels", "age": 50, "tags": ["unix"]}
{"name": "dennis", "team": "kernels", "age": 46, "tags": ["unix"]}
`

func execute(t *testing.T, input string, args ...string) (string, error) {
	cmd := newRootCommand()
	var out, logs bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCount(t *testing.T) {
	out, err := execute(t, people, "--key", "team", "--batch", "2")
	require.Nil(t, err)
	require.Equal(t, int64(2), gjson.Get(out, "compilers").Int())
	require.Equal(t, int64(3), gjson.Get(out, "kernels").Int())
}

func TestMean(t *testing.T) {
	out, err := execute(t, people, "--key", "team", "--value", "mean:age", "-p", "3")
	require.Nil(t, err)
	require.Equal(t, 40.0, gjson.Get(out, "compilers").Float())
	require.Equal(t, 41.0, gjson.Get(out, "kernels").Float())
}

func TestJSONPathKey(t *testing.T) {
	out, err := execute(t, people, "--key", "$.team", "--value", "max:age")
	require.Nil(t, err)
	require.Equal(t, int64(44), gjson.Get(out, "compilers").Int())
	require.Equal(t, int64(50), gjson.Get(out, "kernels").Int())
}

func TestHasFilter(t *testing.T) {
	out, err := execute(t, people, "--key", "team", "--has", "tags")
	require.Nil(t, err)
	require.Equal(t, int64(2), gjson.Get(out, "compilers").Int())
	require.Equal(t, int64(2), gjson.Get(out, "kernels").Int())
}

func TestYAMLOutput(t *testing.T) {
	out, err := execute(t, people, "--key", "team", "--value", "sum:age", "--format", "yaml")
	require.Nil(t, err)
	res := map[string]interface{}{}
	require.Nil(t, yaml.Unmarshal([]byte(out), &res))
	require.Equal(t, 80, res["compilers"])
	require.Equal(t, 123, res["kernels"])
}

func TestCollapseDuplicates(t *testing.T) {
	input := strings.Repeat(`{"k": "x", "v": 2}`+"\n", 5)
	out, err := execute(t, input, "--key", "k", "--value", "sum:v", "--collapse")
	require.Nil(t, err)
	require.Equal(t, int64(10), gjson.Get(out, "x").Int())
}

func TestInvalidArguments(t *testing.T) {
	_, err := execute(t, people, "--value", "count")
	require.NotNil(t, err)
	_, err = execute(t, people, "--key", "team", "--value", "median:age")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "median")
	_, err = execute(t, people, "--key", "team", "--value", "sum")
	require.NotNil(t, err)
	_, err = execute(t, people, "--key", "team", "--format", "xml")
	require.NotNil(t, err)
}

func TestInvalidInput(t *testing.T) {
	_, err := execute(t, people+"{not json\n", "--key", "team")
	require.NotNil(t, err)
}

func TestGlobInput(t *testing.T) {
	dir := t.TempDir()
	lines := strings.SplitAfter(strings.TrimSpace(people), "\n")
	require.Nil(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte(strings.Join(lines[:2], "")), 0o600))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "b.jsonl"), []byte(strings.Join(lines[2:], "")), 0o600))
	out, err := execute(t, "", filepath.Join(dir, "*.jsonl"), "--key", "team", "--value", "distinct:name")
	require.Nil(t, err)
	require.Equal(t, []string{"ada", "grace"}, stringArray(gjson.Get(out, "compilers")))
	require.Equal(t, []string{"dennis", "ken", "linus"}, stringArray(gjson.Get(out, "kernels")))
}

func stringArray(r gjson.Result) []string {
	var res []string
	for _, v := range r.Array() {
		res = append(res, v.String())
	}
	return res
}
