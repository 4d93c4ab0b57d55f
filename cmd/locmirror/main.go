package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/locmirror"
	"github.com/fwojciec/locmirror/crawl"
	"github.com/fwojciec/locmirror/fs"
	locmirrorhttp "github.com/fwojciec/locmirror/http"
	"github.com/fwojciec/locmirror/goquery"
	locslog "github.com/fwojciec/locmirror/slog"
	"github.com/fwojciec/locmirror/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// ConfigPaths are YAML files loaded before flags are parsed.
	// Missing files are ignored.
	ConfigPaths []string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{DefaultConfigPath()},
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("locmirror"),
		kong.Description("Mirror a website to local files, resuming from whatever is already saved"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(YAMLConfig, m.ConfigPaths...),
		kong.Vars{"user_agent": locmirrorhttp.DefaultUserAgent},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if err := cli.validate(); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", locmirror.ErrorMessage(err))
		return err
	}

	// Wire dependencies
	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	var fetcher locmirror.Fetcher = locmirrorhttp.NewFetcher(
		locmirrorhttp.WithTimeout(cli.Timeout),
		locmirrorhttp.WithUserAgent(cli.UserAgent),
	)
	if cli.Debug {
		fetcher = locslog.NewLoggingFetcher(fetcher, logger)
	}

	var journal *sqlite.Journal
	if cli.Journal != "" {
		db := sqlite.NewDB(cli.Journal)
		if err := db.Open(); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		defer db.Close()

		journal, err = sqlite.NewJournal(ctx, db, cli.RootURL)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		logger.Info("journal", "path", cli.Journal, "run_id", journal.RunID())
	}

	var observer locmirror.AttemptObserver = locslog.NewAttemptLogger(logger)
	if journal != nil {
		observer = locmirror.MultiObserver(observer, journal)
	}

	deps.Mirror = &crawl.Mirror{
		Scope:      cli.scope(),
		Mapper:     fs.NewMapper(cli.Out),
		Extractor:  goquery.NewLinkExtractor(),
		Store:      fs.NewStore(),
		Fetcher:    fetcher,
		Classifier: crawl.NewSuffixClassifier(cli.throttleOrigin(), cli.AssetOrigin...),
		Limiter:    crawl.NewOriginLimiter(cli.ThrottleInterval),
		Observer:   observer,
		Origin:     cli.throttleOrigin(),
		RetryLimit: cli.RetryLimit,
	}

	cmd := &MirrorCmd{RootURL: cli.RootURL}
	runErr := cmd.Run(deps)

	if journal != nil {
		if err := journal.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("journal: %w", err)
		}
		if n := journal.Discarded(); n > 0 {
			logger.Warn("journal discarded attempts", "count", n)
		}
	}
	return runErr
}

// rootHost returns the lower-cased hostname of rawURL.
func rootHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
