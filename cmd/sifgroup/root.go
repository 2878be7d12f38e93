package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/aggregate"
	"github.com/go-sif/grouping/bsp"
	"github.com/go-sif/grouping/logging"
	"github.com/go-sif/grouping/pipeline"
	"github.com/go-sif/grouping/source/file"
	"github.com/go-sif/grouping/source/jsonl"
	"github.com/go-sif/grouping/steps"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"
)

type options struct {
	key        string
	value      string
	has        string
	partitions int
	parallel   int
	batchSize  int
	collapse   bool
	format     string
	verbosity  int
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "sifgroup [glob...]",
		Short: "Group JSON Lines data by a key and aggregate each group",
		Long: `Group JSON Lines data by a key and aggregate each group.

Data is read from every file matching the given globs, or from stdin if none are given.
Keys and values are selected with gjson paths, or with JSONPath expressions when they begin with "$".
Values are aggregated with one of:
  count, sum:PATH, min:PATH, max:PATH, mean:PATH, fold:PATH, distinct:PATH, countdistinct:PATH`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.key, "key", "k", "", "path of the group key within each line")
	flags.StringVar(&opts.value, "value", "count", "aggregation applied to each group")
	flags.StringVar(&opts.has, "has", "", "only aggregate lines which have a value at this gjson path")
	flags.IntVarP(&opts.partitions, "partitions", "p", 4, "number of partitions aggregated concurrently")
	flags.IntVar(&opts.parallel, "parallel", 0, "maximum number of partitions aggregated at once (defaults to --partitions)")
	flags.IntVar(&opts.batchSize, "batch", 1024, "number of lines aggregated per superstep")
	flags.BoolVar(&opts.collapse, "collapse", false, "treat identical lines within a batch as one line with a multiplicity")
	flags.StringVarP(&opts.format, "format", "f", "json", "output format (json or yaml)")
	flags.IntVarP(&opts.verbosity, "verbosity", "v", 0, "log verbosity")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// selector creates a step which selects a value using either a gjson path or a JSONPath expression
func selector(path string) grouping.Step {
	if strings.HasPrefix(path, "$") {
		return steps.Path(path)
	}
	return steps.Field(path)
}

// valuePipeline parses an aggregation such as "sum:price" into a value pipeline
func valuePipeline(value, has string) (*pipeline.Pipeline, error) {
	name, path, _ := strings.Cut(value, ":")
	var valueSteps []grouping.Step
	if len(has) > 0 {
		valueSteps = append(valueSteps, steps.Has(has))
	}
	if name == "count" {
		return pipeline.New(append(valueSteps, steps.Counter())...), nil
	} else if len(path) == 0 {
		return nil, fmt.Errorf("aggregation %q requires a path, e.g. %s:field", name, name)
	}
	var barrier grouping.Step
	switch name {
	case "sum":
		barrier = steps.Sum()
	case "min":
		barrier = steps.Min()
	case "max":
		barrier = steps.Max()
	case "mean":
		barrier = steps.Averager()
	case "fold":
		barrier = steps.Folder()
	case "distinct":
		barrier = steps.DistinctValues()
	case "countdistinct":
		barrier = steps.CountDistinct()
	default:
		return nil, fmt.Errorf("unknown aggregation %q", name)
	}
	return pipeline.New(append(valueSteps, selector(path), barrier)...), nil
}

func run(ctx context.Context, opts *options, globs []string, in io.Reader, out io.Writer, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown output format %q", opts.format)
	}
	log := logging.New(logging.LogLevelFromVerbosity(opts.verbosity), logOut)
	group := aggregate.NewGroup(aggregate.WithLogger(log), aggregate.WithName("sifgroup"))
	if err := group.By(pipeline.New(selector(opts.key))); err != nil {
		return err
	}
	value, err := valuePipeline(opts.value, opts.has)
	if err != nil {
		return err
	}
	if err := group.By(value); err != nil {
		return err
	}
	driver, err := bsp.New(group, bsp.WithPartitions(opts.partitions), bsp.WithMaxParallel(opts.parallel), bsp.WithLogger(log))
	if err != nil {
		return err
	}
	parser := jsonl.CreateParser(&jsonl.ParserConf{BatchSize: opts.batchSize, CollapseDuplicates: opts.collapse})
	if len(globs) > 0 {
		err = driver.Consume(ctx, file.CreateSource(log, globs...), parser)
	} else {
		err = drainReader(ctx, driver, parser, in)
	}
	if err != nil {
		return err
	}
	res, err := driver.Result()
	if err != nil {
		return err
	}
	stats := driver.Stats()
	log.V(1).Info("aggregated input", "groups", res.Len(), "supersteps", stats.Supersteps, "runtime", stats.Runtime.String())
	return write(out, opts.format, res.Strings())
}

func drainReader(ctx context.Context, driver *bsp.Driver, parser *jsonl.Parser, in io.Reader) error {
	it, err := parser.Iterate(in, nil)
	if err != nil {
		return err
	}
	return driver.Drain(ctx, it)
}

func write(out io.Writer, format string, res map[string]interface{}) error {
	switch format {
	case "json":
		_, err := fmt.Fprintln(out, oj.JSON(res, &ojg.Options{Sort: true, Indent: 2}))
		return err
	case "yaml":
		buf, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = out.Write(buf)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
