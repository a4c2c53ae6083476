// FILE: lixenwraith/dotenv/cmd/dotenv/main.go
// dotenv CLI - parse, validate and export dotenv configuration
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/dotenv"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// cliOptions holds flags shared by the subcommands
type cliOptions struct {
	verbose  bool
	format   string
	sources  []string
	cacheTTL time.Duration
	stderr   io.Writer
}

func (o *cliOptions) logger() *slog.Logger {
	if !o.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{stderr: stderr}

	root := &cobra.Command{
		Use:           "dotenv",
		Short:         "Parse, validate and export dotenv configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log loading details to stderr")

	root.AddCommand(
		newParseCmd(opts),
		newCheckCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func newParseCmd(opts *cliOptions) *cobra.Command {
	var tokens bool

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse dotenv files and print the resolved entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			merged := dotenv.NewMap()
			for _, path := range args {
				if tokens {
					data, err := dotenv.OSReader{}.ReadFile(path)
					if err != nil {
						return err
					}
					for _, tok := range dotenv.Lex(string(data)) {
						fmt.Fprintf(out, "%d %s %q\n", tok.Line, tok.Kind, tok.Text)
					}
					continue
				}
				m, err := dotenv.ParseFile(path)
				if err != nil {
					return err
				}
				merged.Merge(m)
			}
			if tokens {
				return nil
			}
			return dotenv.Export(out, merged, opts.format)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", dotenv.FormatDotenv, "Output format: dotenv, json, yaml, toml")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "Print the token stream instead of entries")
	return cmd
}

// ruleFlags collects the rule flags of the check command
type ruleFlags struct {
	required  []string
	ifPresent []string
	ints      []string
	floats    []string
	bools     []string
	strs      []string
	notEmpty  []string
	dateTimes []string
	allowed   []string // KEY=A|B
	exprs     []string // KEY=EXPRESSION
}

// apply registers the collected rules. Keys named by type flags without a
// presence flag are treated as optional.
func (f *ruleFlags) apply(s *dotenv.Store) error {
	required := make(map[string]bool)
	for _, k := range f.required {
		required[k] = true
	}
	s.Required(f.required...)
	s.IfPresent(f.ifPresent...)

	selectKey := func(key string) dotenv.Selection {
		if required[key] {
			return s.Required(key)
		}
		return s.IfPresent(key)
	}

	for _, k := range f.ints {
		selectKey(k).IsInteger()
	}
	for _, k := range f.floats {
		selectKey(k).IsFloat()
	}
	for _, k := range f.bools {
		selectKey(k).IsBoolean()
	}
	for _, k := range f.strs {
		selectKey(k).IsString()
	}
	for _, k := range f.notEmpty {
		selectKey(k).NotEmpty()
	}
	for _, k := range f.dateTimes {
		selectKey(k).IsDateTime()
	}
	for _, arg := range f.allowed {
		key, set, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --allowed %q, want KEY=A|B", arg)
		}
		values := make([]any, 0)
		for _, raw := range strings.Split(set, "|") {
			values = append(values, dotenv.Coerce(raw))
		}
		selectKey(key).AllowedValues(values...)
	}
	for _, arg := range f.exprs {
		key, expression, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --expr %q, want KEY=EXPRESSION", arg)
		}
		selectKey(key).Expr(expression)
	}
	return nil
}

// loadStore reads dir and the extra sources into a new store
func loadStore(ctx context.Context, opts *cliOptions, dir string, rules *ruleFlags) (*dotenv.Store, error) {
	s := dotenv.NewStore(dotenv.WithLogger(opts.logger()))
	if err := s.SetWorkDir(dir); err != nil {
		return nil, err
	}
	if rules != nil {
		if err := rules.apply(s); err != nil {
			return nil, err
		}
	}
	if err := s.ReadEnv(ctx, opts.cacheTTL, opts.sources...); err != nil {
		return nil, err
	}
	return s, nil
}

func newCheckCmd(opts *cliOptions) *cobra.Command {
	rules := &ruleFlags{}

	cmd := &cobra.Command{
		Use:   "check DIR",
		Short: "Load the env files of DIR and validate them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(cmd.Context(), opts, args[0], rules)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d keys\n", s.Len())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.sources, "source", nil, "Extra env directory or file")
	f.StringSliceVar(&rules.required, "require", nil, "Required key")
	f.StringSliceVar(&rules.ifPresent, "if-present", nil, "Optional key")
	f.StringSliceVar(&rules.ints, "int", nil, "Key holding an integer")
	f.StringSliceVar(&rules.floats, "float", nil, "Key holding a float")
	f.StringSliceVar(&rules.bools, "bool", nil, "Key holding a boolean")
	f.StringSliceVar(&rules.strs, "string", nil, "Key holding a string")
	f.StringSliceVar(&rules.notEmpty, "not-empty", nil, "Key that must not be empty")
	f.StringSliceVar(&rules.dateTimes, "datetime", nil, "Key holding a date/time")
	f.StringArrayVar(&rules.allowed, "allowed", nil, "Allowed values, KEY=A|B")
	f.StringArrayVar(&rules.exprs, "expr", nil, "Boolean expression, KEY=EXPRESSION")
	return cmd
}

func newExportCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export DIR",
		Short: "Load the env files of DIR and print them in another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(cmd.Context(), opts, args[0], nil)
			if err != nil {
				return err
			}
			return s.Export(cmd.OutOrStdout(), opts.format)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", dotenv.FormatDotenv, "Output format: dotenv, json, yaml, toml")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Extra env directory or file")
	cmd.Flags().DurationVar(&opts.cacheTTL, "cache", 0, "Cache lifetime, 0 disables the cache")
	return cmd
}
