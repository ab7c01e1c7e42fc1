package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/novidanca/go-ouro"
)

// resolveConfig holds parsed resolve command configuration
type resolveConfig struct {
	templatePath string
	outputPath   string
	next         bool
	fold         bool
	submit       bool
	name         string
	concurrency  int
	endpoint     string
	model        string
	apiKey       string
	verbose      bool
	cache        bool
}

func runResolve(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseResolveFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	logger := newLogger(cfg.verbose, stderr)
	defer func() { _ = logger.Sync() }()

	clientOpts := []ouro.Option{
		ouro.WithCompletionService(newCompletionService(cfg, logger)),
		ouro.WithConcurrency(cfg.concurrency),
		ouro.WithLogger(logger),
	}
	if cfg.cache {
		clientOpts = append(clientOpts, ouro.WithCompletionCache(ouro.DefaultCompletionCacheConfig()))
	}

	client, err := ouro.New(clientOpts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgResolveFailed, err)
		return ExitCodeError
	}

	doc, err := client.CreateDocument(string(source))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidDocument, err)
		return ExitCodeValidationError
	}

	opts := &ouro.ResolveOptions{
		SubmitResultForCompletion: cfg.submit,
		NewElementName:            cfg.name,
		HaltAfterFirstComplete:    cfg.next,
		Concurrency:               cfg.concurrency,
	}
	if err := doc.Resolve(context.Background(), opts); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgResolveFailed, err)
		return ExitCodeError
	}

	if cfg.fold {
		doc.Fold()
	}

	if err := writeOutput(cfg.outputPath, []byte(doc.String()), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseResolveFlags(args []string) (*resolveConfig, error) {
	fs := flag.NewFlagSet(CmdNameResolve, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &resolveConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.BoolVar(&cfg.next, FlagNext, false, "")
	fs.BoolVar(&cfg.fold, FlagFold, false, "")
	fs.BoolVar(&cfg.submit, FlagSubmit, false, "")
	fs.StringVar(&cfg.name, FlagName, "", "")
	fs.StringVar(&cfg.name, FlagNameShort, "", "")
	fs.IntVar(&cfg.concurrency, FlagConcurrency, FlagDefaultConcurrency, "")
	fs.IntVar(&cfg.concurrency, FlagConcurrencyShort, FlagDefaultConcurrency, "")
	fs.StringVar(&cfg.endpoint, FlagEndpoint, "", "")
	fs.StringVar(&cfg.model, FlagModel, "", "")
	fs.StringVar(&cfg.apiKey, FlagAPIKey, "", "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")
	fs.BoolVar(&cfg.cache, FlagCache, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	if cfg.concurrency < 1 {
		return nil, errors.New(ErrMsgInvalidConcurrency)
	}
	return cfg, nil
}

// newCompletionService builds the HTTP adapter from the environment,
// letting explicit flags win.
func newCompletionService(cfg *resolveConfig, logger *zap.Logger) *ouro.OpenAICompletionService {
	oc := ouro.OpenAIConfigFromEnv()
	if cfg.endpoint != "" {
		oc.BaseURL = cfg.endpoint
	}
	if cfg.model != "" {
		oc.Model = cfg.model
	}
	if cfg.apiKey != "" {
		oc.APIKey = cfg.apiKey
	}
	oc.Logger = logger
	return ouro.NewOpenAICompletionService(oc)
}

// newLogger returns a console logger on w when verbose, else a nop logger
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel))
}
