package inject

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/pdup/internal/handler"
	"github.com/dmorgan81/pdup/internal/log"
	"github.com/dmorgan81/pdup/internal/param"
	"github.com/dmorgan81/pdup/internal/progress"
	"github.com/dmorgan81/pdup/internal/report"
	"github.com/dmorgan81/pdup/internal/store"
	"github.com/dmorgan81/pdup/internal/transport"
	"github.com/samber/do"
)

const (
	BackendPixeldrain = "pixeldrain"
	BackendS3         = "s3"
	BackendDir        = "dir"

	APIKeyEnv = "PDUP_API_KEY"
)

type Options struct {
	Backend     string
	APIKey      string
	APIKeyParam string
	SNIHostname string
	Bucket      string
	Dir         string
	Quiet       bool

	// Progress is where the progress bar is drawn.
	Progress io.Writer

	// Lookup reads environment variables; nil means os.LookupEnv.
	Lookup func(string) (string, bool)
}

func Setup(ctx context.Context, opts Options) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*http.Client](injector, func(i *do.Injector) (*http.Client, error) {
		return transport.New(transport.Options{
			ServerName: do.MustInvokeNamed[string](i, "sni_hostname"),
		}), nil
	})

	do.ProvideNamed[param.Fetcher](injector, "ssm", func(i *do.Injector) (param.Fetcher, error) {
		return param.NewParameterStoreFetcher(i)
	})
	do.ProvideNamedValue[param.Fetcher](injector, "env", &param.EnvFetcher{Lookup: opts.Lookup})

	do.ProvideNamed[string](injector, "api_key", func(i *do.Injector) (string, error) {
		if opts.APIKey != "" {
			return opts.APIKey, nil
		}
		if opts.APIKeyParam != "" {
			return do.MustInvokeNamed[param.Fetcher](i, "ssm").Fetch(ctx, opts.APIKeyParam)
		}
		// a missing key is reported by the uploader, after the file check
		key, _ := do.MustInvokeNamed[param.Fetcher](i, "env").Fetch(ctx, APIKeyEnv)
		return key, nil
	})
	do.ProvideNamedValue[string](injector, "sni_hostname", opts.SNIHostname)
	do.ProvideNamedValue[string](injector, "bucket", opts.Bucket)
	do.ProvideNamedValue[string](injector, "dir", opts.Dir)

	switch opts.Backend {
	case BackendS3:
		do.Provide[store.Uploader](injector, store.NewS3Uploader)
	case BackendDir:
		do.Provide[store.Uploader](injector, store.NewFileUploader)
	default:
		do.Provide[store.Uploader](injector, store.NewPixeldrainUploader)
	}

	do.ProvideValue[handler.NewTracker](injector, func(total int64) progress.Tracker {
		if opts.Quiet || opts.Progress == nil {
			return progress.Discard
		}
		return progress.NewBar(opts.Progress, total)
	})
	do.ProvideValue[*report.Reporter](injector, &report.Reporter{})
	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
