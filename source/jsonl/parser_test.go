package jsonl

import (
	"strings"
	"testing"

	"github.com/go-sif/grouping"
	errors "github.com/go-sif/grouping/errors"
	"github.com/stretchr/testify/require"
)

const testData = `# people
{"name": "Sean", "meta": {"index": 1}}
{"name": "Chris", "meta": {"index": 3}}

{"name": "Sean", "meta": {"index": 1}}
{"name": "Phil", "meta": {"index": 2}}`

func TestParse(t *testing.T) {
	parser := CreateParser(&ParserConf{Comment: '#'})
	elements, err := parser.Parse(strings.NewReader(testData))
	require.Nil(t, err)
	require.Len(t, elements, 4)
	require.Equal(t, grouping.NewTraverser(`{"name": "Chris", "meta": {"index": 3}}`), elements[1])
}

func TestCollapseDuplicates(t *testing.T) {
	parser := CreateParser(&ParserConf{HeaderLines: 1, CollapseDuplicates: true})
	elements, err := parser.Parse(strings.NewReader(testData))
	require.Nil(t, err)
	require.Len(t, elements, 3)
	require.Equal(t, int64(2), elements[0].Bulk)
	require.Equal(t, int64(1), elements[2].Bulk)
}

func TestBatches(t *testing.T) {
	parser := CreateParser(&ParserConf{Comment: '#', BatchSize: 3})
	ended := 0
	it, err := parser.Iterate(strings.NewReader(testData), func() { ended++ })
	require.Nil(t, err)
	total := 0
	batches := 0
	for it.HasNextBatch() {
		batch, err := it.NextBatch()
		if _, done := err.(errors.NoMoreElementsError); done {
			break
		}
		require.Nil(t, err)
		require.LessOrEqual(t, len(batch), 3)
		total += len(batch)
		batches++
	}
	require.Equal(t, 4, total)
	require.Equal(t, 2, batches)
	_, err = it.NextBatch()
	require.Equal(t, errors.NoMoreElementsError{}, err)
	require.Equal(t, 1, ended)
}

func TestInvalidLines(t *testing.T) {
	parser := CreateParser(&ParserConf{BatchSize: 2})
	_, err := parser.Parse(strings.NewReader("{\"a\": 1}\n{oops\n{\"b\": 2}\nnope"))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "2 errors occurred")
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "line 4")
}
