// Package kevalsctl implements the kevalsctl command: importing JSONL files
// into a Solr tracking collection and querying it from the shell.
package kevalsctl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	kevals "github.com/ukwa/kevals.go"
	"github.com/ukwa/kevals.go/pkg/logger"
	"github.com/ukwa/kevals.go/pkg/models"
	"github.com/ukwa/kevals.go/pkg/source"
)

// ErrNotFound is returned by the get command when there is no such record.
var ErrNotFound = errors.New("not found")

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("usage")

const usage = `usage: kevalsctl [flags] <command> [command flags] [args]

commands:
  import [files...]                     import JSONL files (- or none for stdin)
  list [-field f -value v] [-sort s] [-limit n]
  get <id>
  update -field f -value v [-action a] [ids...]   ids from stdin when none given

flags:
`

// Run parses args (without the program name) and executes the command.
// Defaults come from cfg, which callers usually fill with NewConfig and LoadEnv.
func Run(ctx context.Context, cfg *Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("kevalsctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.SolrURL, "solr-url", cfg.SolrURL, "Solr collection URL (env "+EnvSolrURL+")")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "records per update request (env "+EnvBatchSize+")")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	fs.IntVar(&cfg.Parallel, "parallel", cfg.Parallel, "files imported concurrently")
	fs.Float64Var(&cfg.BatchRate, "batch-rate", cfg.BatchRate, "update requests per second per file, 0 for unlimited")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file, stderr when empty")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "log as JSON")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", cfg.S3.Endpoint, "S3 endpoint for s3:// inputs (env "+EnvS3Endpoint+")")
	fs.BoolVar(&cfg.S3.Secure, "s3-secure", cfg.S3.Secure, "use https for S3 (env "+EnvS3Secure+")")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	logData, err := logger.New().
		FromBuffer(stderr).
		FromPath(cfg.LogFile).
		WithLevel(logger.ParseLevel(cfg.LogLevel)).
		Console(!cfg.LogJSON).
		Make()
	if err != nil {
		return err
	}
	defer logData.Close()
	log := logData.Logger

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "import":
		_, err = Import(ctx, cfg, log, stdin, cmdArgs)
		return err
	case "list":
		return runList(ctx, cfg, log, cmdArgs, stdout, stderr)
	case "get":
		return runGet(ctx, cfg, log, cmdArgs, stdout)
	case "update":
		return runUpdate(ctx, cfg, log, cmdArgs, stdin, stderr)
	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// NewClient builds a tracking client from cfg.
func NewClient(cfg *Config, log zerolog.Logger) (*kevals.Client, error) {
	opts := []kevals.Option{
		kevals.WithBatchSize(cfg.BatchSize),
		kevals.WithTimeout(cfg.Timeout),
		kevals.WithLogger(log),
	}
	if cfg.BatchRate > 0 {
		opts = append(opts, kevals.WithBatchRate(rate.Limit(cfg.BatchRate), 1))
	}
	return kevals.New(cfg.SolrURL, opts...)
}

// Import imports every input with its own client, cfg.Parallel at a time.
// The input "-" reads from stdin. The first failure cancels the remaining imports.
func Import(ctx context.Context, cfg *Config, log zerolog.Logger, stdin io.Reader, inputs []string) (kevals.ImportStats, error) {
	if len(inputs) == 0 {
		inputs = []string{source.Stdin}
	}
	if err := checkInputs(inputs); err != nil {
		return kevals.ImportStats{}, err
	}

	var (
		mu    sync.Mutex
		total kevals.ImportStats
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			stats, err := importOne(ctx, cfg, log.With().Str("input", input).Logger(), stdin, input)

			mu.Lock()
			total.Records += stats.Records
			total.Batches += stats.Batches
			mu.Unlock()

			if err != nil {
				return fmt.Errorf("import %s: %w", input, err)
			}
			return nil
		})
	}
	err := g.Wait()

	log.Info().Int("records", total.Records).Int("batches", total.Batches).Int("inputs", len(inputs)).Msg("import done")
	return total, err
}

// checkInputs rejects reading stdin more than once, since concurrent
// imports would split its lines between clients.
func checkInputs(inputs []string) error {
	stdin := 0
	for _, input := range inputs {
		if input == source.Stdin {
			stdin++
		}
	}
	if stdin > 1 {
		return fmt.Errorf("%w: %q given %d times", ErrUsage, source.Stdin, stdin)
	}
	return nil
}

func importOne(ctx context.Context, cfg *Config, log zerolog.Logger, stdin io.Reader, input string) (kevals.ImportStats, error) {
	client, err := NewClient(cfg, log)
	if err != nil {
		return kevals.ImportStats{}, err
	}

	rc, err := source.Open(ctx, input, source.Options{S3: cfg.S3, Stdin: stdin})
	if err != nil {
		return kevals.ImportStats{}, err
	}
	defer rc.Close()

	stats, err := client.ImportJSONL(ctx, rc)
	log.Info().Int("records", stats.Records).Int("batches", stats.Batches).Err(err).Msg("imported")
	return stats, err
}

func runList(ctx context.Context, cfg *Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	field := fs.String("field", "", "filter field")
	value := fs.String("value", models.NoneValue, "filter value, "+models.NoneValue+" for records without the field")
	sort := fs.String("sort", "", "sort clause")
	limit := fs.Int("limit", 0, "maximum records returned")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	opts := &kevals.ListOptions{Sort: *sort, Limit: *limit}
	if *field != "" {
		opts.Filter = models.NewFilter(*field, *value)
	}

	client, err := NewClient(cfg, log)
	if err != nil {
		return err
	}
	docs, err := client.List(ctx, opts)
	if err != nil {
		return err
	}
	return writeJSONLines(stdout, docs...)
}

func runGet(ctx context.Context, cfg *Config, log zerolog.Logger, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get takes exactly one id", ErrUsage)
	}

	client, err := NewClient(cfg, log)
	if err != nil {
		return err
	}
	doc, err := client.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%s: %w", args[0], ErrNotFound)
	}
	return writeJSONLines(stdout, doc)
}

func runUpdate(ctx context.Context, cfg *Config, log zerolog.Logger, args []string, stdin io.Reader, stderr io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(stderr)
	field := fs.String("field", "", "field to update")
	value := fs.String("value", "", "value to apply")
	action := fs.String("action", "", "atomic update operation, add-distinct by default")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *field == "" {
		return fmt.Errorf("%w: update needs -field", ErrUsage)
	}

	ids := fs.Args()
	if len(ids) == 0 {
		var err error
		if ids, err = readLines(stdin); err != nil {
			return err
		}
	}

	client, err := NewClient(cfg, log)
	if err != nil {
		return err
	}
	stats, err := client.Update(ctx, ids, *field, *value, *action)
	log.Info().Int("records", stats.Records).Int("batches", stats.Batches).Msg("updated")
	return err
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeJSONLines(w io.Writer, docs ...models.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}
