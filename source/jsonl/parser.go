package jsonl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-sif/grouping"
	errors "github.com/go-sif/grouping/errors"
	iutil "github.com/go-sif/grouping/internal/util"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
)

// ParserConf configures a JSONL Parser, suitable for JSON lines data
type ParserConf struct {
	BatchSize          int  // The maximum number of lines per batch. Defaults to 128.
	HeaderLines        int  // The number of lines to ignore from the beginning of the data. Defaults to 0.
	Comment            rune // Lines beginning with the comment character are ignored. Defaults to no comment character.
	MaxBufferSize      int  // Maximum size in bytes of the buffer used to read lines
	CollapseDuplicates bool // Iff true, identical lines within a batch become a single element whose bulk is the number of repetitions
}

// Parser produces elements from JSONL data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new JSONL Parser
func CreateParser(conf *ParserConf) *Parser {
	if conf.BatchSize == 0 {
		conf.BatchSize = 128
	}
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser{conf: conf}
}

// BatchSize returns the maximum number of lines in batches produced by this Parser
func (p *Parser) BatchSize() int {
	return p.conf.BatchSize
}

// Iterate begins parsing JSONL data, producing an Iterator over batches of elements
func (p *Parser) Iterate(r io.Reader, onIteratorEnd func()) (grouping.ElementIterator, error) {
	// start parsing by creating a scanner
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), p.conf.MaxBufferSize)
	// ignore header lines, if configured to do so
	for i := 0; i < p.conf.HeaderLines; i++ {
		scanner.Scan()
		if err := scanner.Err(); err != nil {
			if onIteratorEnd != nil {
				onIteratorEnd()
			}
			return nil, err
		}
	}
	return &Iterator{parser: p, scanner: scanner, hasNext: true, onIteratorEnd: onIteratorEnd}, nil
}

// Parse reads all of the JSONL data. Every invalid line is reported.
func (p *Parser) Parse(r io.Reader) ([]grouping.Traverser, error) {
	it, err := p.Iterate(r, nil)
	if err != nil {
		return nil, err
	}
	var res []grouping.Traverser
	var errs *multierror.Error
	for it.HasNextBatch() {
		batch, err := it.NextBatch()
		if _, done := err.(errors.NoMoreElementsError); done {
			break
		} else if merr, ok := err.(*multierror.Error); ok {
			errs = multierror.Append(errs, merr.Errors...)
			continue
		} else if err != nil {
			return nil, err
		}
		res = append(res, batch...)
	}
	if errs != nil {
		errs.ErrorFormat = iutil.FormatMultiError
		return nil, errs
	}
	return res, nil
}

// An Iterator produces batches of elements from JSONL data
type Iterator struct {
	parser        *Parser
	scanner       *bufio.Scanner
	hasNext       bool
	line          int
	lock          sync.Mutex
	onIteratorEnd func()
}

// end marks the Iterator exhausted, notifying whoever is waiting on it
func (it *Iterator) end() {
	it.hasNext = false
	if it.onIteratorEnd != nil {
		it.onIteratorEnd()
		it.onIteratorEnd = nil
	}
}

// HasNextBatch returns true iff this Iterator may produce another batch
func (it *Iterator) HasNextBatch() bool {
	it.lock.Lock()
	defer it.lock.Unlock()
	return it.hasNext
}

// NextBatch returns the next batch of elements, or NoMoreElementsError once the data is exhausted.
// If any line in the batch is not valid JSON, the valid lines are discarded and a
// *multierror.Error describing every invalid line is returned.
func (it *Iterator) NextBatch() ([]grouping.Traverser, error) {
	it.lock.Lock()
	defer it.lock.Unlock()
	if !it.hasNext {
		return nil, errors.NoMoreElementsError{}
	}
	batch := make([]grouping.Traverser, 0, it.parser.conf.BatchSize)
	positions := make(map[string]int)
	var errs *multierror.Error
	lines := 0
	for lines < it.parser.conf.BatchSize {
		// grab another line
		if !it.scanner.Scan() {
			it.end()
			if err := it.scanner.Err(); err != nil {
				return nil, err
			}
			break
		}
		it.line++
		line := it.scanner.Text()
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 || (it.parser.conf.Comment != 0 && strings.HasPrefix(trimmed, string(it.parser.conf.Comment))) {
			continue
		}
		lines++
		if !gjson.Valid(trimmed) {
			errs = multierror.Append(errs, fmt.Errorf("line %d is not valid JSON: %s", it.line, line))
			continue
		}
		if it.parser.conf.CollapseDuplicates {
			if i, seen := positions[trimmed]; seen {
				batch[i].Bulk++
				continue
			}
			positions[trimmed] = len(batch)
		}
		batch = append(batch, grouping.NewTraverser(trimmed))
	}
	if errs != nil {
		errs.ErrorFormat = iutil.FormatMultiError
		return nil, errs
	}
	if len(batch) == 0 && !it.hasNext {
		return nil, errors.NoMoreElementsError{}
	}
	return batch, nil
}
