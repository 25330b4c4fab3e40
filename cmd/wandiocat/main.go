// Command wandiocat concatenates inputs into a single, optionally
// compressed, output. Compressed inputs are detected and decompressed.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/absfs/absfs"
	"github.com/absfs/osfs"
	"github.com/absfs/wandio"
	"github.com/spf13/cobra"
)

// env holds the process resources the command works against.
type env struct {
	filer  absfs.Filer
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type options struct {
	output      string
	method      string
	level       int
	userSources bool
	configPath  string
	preset      string
	buffered    bool
	blockSize   int
	verbose     bool
}

func main() {
	host, err := osfs.NewFS()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cmd := newRootCmd(env{
		filer:  host,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(e env) *cobra.Command {
	var opts options

	methods := make([]string, 0, len(wandio.Methods))
	for _, m := range wandio.Methods {
		methods = append(methods, string(m))
	}

	cmd := &cobra.Command{
		Use:   "wandiocat [flags] [input...]",
		Short: "Concatenate files into a single compressed file",
		Long: "wandiocat reads every input in order, decompressing any it recognises,\n" +
			"and writes their concatenation to one output, optionally compressed.\n" +
			"An input that cannot be opened is reported and skipped.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, e, opts)
		},
	}
	cmd.SetIn(e.stdin)
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", wandio.StdioName, "Output file, '-' for standard output")
	flags.StringVarP(&opts.method, "method", "Z", string(wandio.MethodNone), "Compression method: "+strings.Join(methods, ", "))
	flags.IntVarP(&opts.level, "level", "z", 0, "Compression level, 0 (uncompressed) to 9 (max compression)")
	flags.BoolVarP(&opts.userSources, "user", "u", false, "Register the .user filter and user:// protocol sources")
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	flags.StringVar(&opts.preset, "preset", "", "Start from a preset: default, fastest, compatible, recommended, best")
	flags.BoolVar(&opts.buffered, "buffered", false, "Buffer writes to the output")
	flags.IntVar(&opts.blockSize, "block-size", wandio.DefaultBlockSize, "Copy block size in bytes")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug output")

	return cmd
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command, opts options) (*wandio.Config, error) {
	cfg := wandio.DefaultConfig()
	if opts.preset != "" {
		p, err := wandio.Preset(opts.preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if opts.configPath != "" {
		if err := cfg.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("method") {
		m, err := wandio.LookupMethod(opts.method)
		if err != nil {
			return nil, fmt.Errorf("unable to lookup compression type %q: %w", opts.method, err)
		}
		cfg.Method = m
	}
	if flags.Changed("level") {
		cfg.Level = opts.level
	}
	if flags.Changed("user") {
		cfg.UserSources = opts.userSources
	}
	if flags.Changed("buffered") {
		cfg.Buffered = opts.buffered
	}
	if flags.Changed("block-size") {
		cfg.BlockSize = opts.blockSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string, e env, opts options) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))

	opener := wandio.NewFileOpener(e.filer,
		wandio.WithStdio(e.stdin, e.stdout),
		wandio.WithAutoDetect(cfg.AutoDetect),
	)

	reg := wandio.NewRegistry()
	if cfg.UserSources {
		if err := wandio.RegisterUserSources(reg, opener); err != nil {
			panic(fmt.Sprintf("unable to create user io sources: %v", err))
		}
	}

	d, err := wandio.NewDriver(wandio.NewResolver(reg, opener),
		wandio.WithLogger(logger),
		wandio.WithBlockSize(cfg.BlockSize),
	)
	if err != nil {
		return err
	}

	if err := d.Run(cfg.Output, cfg.WriteOptions(), args); err != nil {
		return err
	}

	stats := d.GetStats()
	logger.Debug("finished",
		"inputs", stats.InputsOpened,
		"failed", stats.InputsFailed,
		"bytes", stats.BytesWritten,
		"method", cfg.Method,
		"level", cfg.Level,
	)
	return nil
}
