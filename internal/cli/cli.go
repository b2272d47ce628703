// Package cli turns command-line arguments into an upload and renders its
// outcome on the console.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmorgan81/pdup/internal/handler"
	"github.com/dmorgan81/pdup/internal/inject"
	"github.com/dmorgan81/pdup/internal/log"
	"github.com/dmorgan81/pdup/internal/report"
	"github.com/dmorgan81/pdup/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const DefaultSNIHostname = "pixeldrain.net"

// ExitError carries the process exit code for a failed run. Message is
// empty when the failure has already been reported on stdout.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

type flags struct {
	sniHostname string
	apiKeyParam string
	backend     string
	bucket      string
	dir         string
	name        string
	quiet       bool
	logLevel    string
}

// NewCommand builds the pdup root command. getenv supplies environment
// fallbacks; nil means os.Getenv.
func NewCommand(getenv func(string) string) *cobra.Command {
	if getenv == nil {
		getenv = os.Getenv
	}
	envOrDefault := func(key, fallback string) string {
		return lo.Ternary(getenv(key) != "", getenv(key), fallback)
	}

	var f flags
	cmd := &cobra.Command{
		Use:   "pdup FILE [API_KEY]",
		Short: "Upload a local file to pixeldrain",
		Long: `Upload a local file to pixeldrain with API key authentication.

The API key may be passed as the second argument, read from the
PDUP_API_KEY environment variable, or fetched from an SSM parameter.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, getenv)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.sniHostname, "sni-hostname", envOrDefault("PDUP_SNI_HOSTNAME", DefaultSNIHostname),
		"hostname to send in the TLS SNI field")
	fs.StringVar(&f.apiKeyParam, "api-key-param", getenv("PDUP_API_KEY_PARAM"),
		"SSM parameter holding the API key")
	fs.StringVar(&f.backend, "backend", inject.BackendPixeldrain,
		"upload backend: 'pixeldrain', 's3' or 'dir'")
	fs.StringVar(&f.bucket, "bucket", getenv("PDUP_BUCKET"), "bucket for the s3 backend")
	fs.StringVar(&f.dir, "dir", "", "destination directory for the dir backend")
	fs.StringVar(&f.name, "name", "", "upload name (default: base name of FILE)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "do not show a progress bar")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level: 'debug', 'info', 'warn' or 'error'")

	return cmd
}

func run(cmd *cobra.Command, args []string, f flags, getenv func(string) string) error {
	level, err := log.ParseLevel(f.logLevel)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if !lo.Contains([]string{inject.BackendPixeldrain, inject.BackendS3, inject.BackendDir}, f.backend) {
		return &ExitError{Code: 2, Message: fmt.Sprintf("invalid backend %q: must be 'pixeldrain', 's3' or 'dir'", f.backend)}
	}

	apiKey := ""
	if len(args) > 1 {
		apiKey = args[1]
	}

	ctx := log.NewContext(cmd.Context(), log.New(cmd.ErrOrStderr(), level))
	injector := inject.Setup(ctx, inject.Options{
		Backend:     f.backend,
		APIKey:      apiKey,
		APIKeyParam: f.apiKeyParam,
		SNIHostname: f.sniHostname,
		Bucket:      f.bucket,
		Dir:         f.dir,
		Quiet:       f.quiet,
		Progress:    cmd.ErrOrStderr(),
		Lookup: func(key string) (string, bool) {
			v := getenv(key)
			return v, v != ""
		},
	})
	defer func() {
		_ = injector.Shutdown()
	}()

	h := do.MustInvoke[*handler.Handler](injector)
	reporter := do.MustInvoke[*report.Reporter](injector)

	out, err := h.Handle(ctx, handler.Input{File: args[0], Name: f.name})
	if err == nil {
		return reporter.Success(ctx, cmd.OutOrStdout(), report.Success{URL: out.URL})
	}

	if rerr := render(ctx, reporter, cmd.OutOrStdout(), args[0], err); rerr != nil {
		return rerr
	}
	return &ExitError{Code: 1}
}

func render(ctx context.Context, r *report.Reporter, w io.Writer, path string, err error) error {
	var statusErr *store.StatusError
	switch {
	case errors.Is(err, handler.ErrFileNotFound):
		return r.Missing(ctx, w, report.Missing{Path: path})
	case errors.As(err, &statusErr):
		return r.Failure(ctx, w, report.Failure{StatusCode: statusErr.StatusCode, Body: statusErr.Body})
	default:
		return r.Error(ctx, w, report.Error{Err: err})
	}
}
