package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/localrivet/grepkit"
	"github.com/localrivet/grepkit/internal/config"
	"github.com/localrivet/grepkit/internal/log"
	"github.com/localrivet/grepkit/internal/mcpserver"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

// errNoMatch makes the process exit with status 1 without printing anything.
var errNoMatch = errors.New("no match")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errNoMatch) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// cliFlags holds every flag value. Flags the user did not set are filled from
// the config file before use.
type cliFlags struct {
	configPath string
	verbose    bool

	ignoreCase bool
	multiline  bool
	context    int
	maxCount   int
	offset     int
	maxColumns int
	count      bool
	glob       string
	fileType   string
	hidden     bool
	gitignore  bool
	searchZip  bool
	encoding   string
	workers    int
	timeout    time.Duration

	jsonOutput bool
	stats      bool
	color      string

	findHidden     bool
	findGitignore  bool
	findMaxResults int
	ranked         bool
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "grepkit [flags] PATTERN [PATH...]",
		Short: "Regex search over files and text",
		Long: `grepkit searches file trees for a regular expression. It honors .gitignore,
filters by glob and file type, shows context lines and pages through results
with --offset and --max-count.

BASIC USAGE:
  grepkit "hello world"                        # Search the working directory
  grepkit -i "TODO|FIXME" src/                 # Case-insensitive search in src/
  grepkit -t go "func [A-Z]" .                 # Only Go files
  grepkit -g "**/*.{ts,tsx}" "useState" .      # Glob filter on relative paths
  grepkit -C 2 "panic" .                       # Two lines of context
  grepkit --offset 20 -m 20 "error" logs/      # Second page of 20 matches
  grepkit -c "import" .                        # Per-file match counts
  grepkit -z "ERROR" logs/                     # Also search .gz, .bz2, .zst and .xz files
  grepkit --json "pattern" .                   # JSON output

Defaults can be set in .grepkit.toml or .grepkit.yaml in the working directory
or the home directory. Flags always win.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(f.configPath)
			if err != nil {
				return err
			}
			applyConfig(cmd, f, cfg)
			if f.verbose {
				log.SetLevel(log.LevelDebug)
			} else if level, err := cfg.Level(); err == nil {
				log.SetLevel(level)
			}
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runGrep(cmd, f, args[0], args[1:])
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Read defaults from this config file")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log debug information to stderr")
	pf.BoolVar(&f.jsonOutput, "json", false, "Output results in JSON format")
	pf.StringVar(&f.color, "color", "auto", "Colorize output: auto, always or never")

	flags := root.Flags()
	addPatternFlags(root, f)
	flags.IntVarP(&f.context, "context", "C", 0, "Show NUM lines before and after each match")
	flags.IntVarP(&f.maxCount, "max-count", "m", 0, "Stop after NUM matches (0 = unlimited)")
	flags.IntVar(&f.offset, "offset", 0, "Skip the first NUM matches")
	flags.IntVarP(&f.maxColumns, "max-columns", "M", 0, "Truncate lines longer than NUM bytes (0 = never)")
	flags.BoolVarP(&f.count, "count", "c", false, "Only print the number of matches per file")
	flags.StringVarP(&f.glob, "glob", "g", "", "Only search files whose relative path matches this glob")
	flags.StringVarP(&f.fileType, "type", "t", "", "Only search files of this type (e.g. go, py, ts)")
	flags.BoolVar(&f.hidden, "hidden", true, "Include hidden files and directories")
	flags.BoolVar(&f.gitignore, "gitignore", true, "Respect .gitignore files")
	flags.BoolVarP(&f.searchZip, "search-zip", "z", false, "Search inside compressed files")
	flags.StringVar(&f.encoding, "encoding", "", "Text encoding of the files (default utf-8)")
	flags.IntVar(&f.workers, "workers", 0, "Number of concurrent workers (0 = one per CPU)")
	flags.DurationVar(&f.timeout, "timeout", 0, "Abort the search after this long (0 = never)")
	flags.BoolVar(&f.stats, "stats", false, "Print search statistics to stderr")

	root.AddCommand(newSearchCmd(f))
	root.AddCommand(newHasMatchCmd(f))
	root.AddCommand(newFindCmd(f))
	root.AddCommand(newMCPCmd(func() *config.Config { return cfg }))
	root.AddCommand(newVersionCmd())
	return root
}

func addPatternFlags(cmd *cobra.Command, f *cliFlags) {
	cmd.Flags().BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Case-insensitive search")
	cmd.Flags().BoolVarP(&f.multiline, "multiline", "U", false, "Make ^ and $ match at line boundaries")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(".")
	}
	cfg := config.Default()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConfig copies config values into flags the user left unset.
func applyConfig(cmd *cobra.Command, f *cliFlags, cfg *config.Config) {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if !changed("ignore-case") {
		f.ignoreCase = cfg.IgnoreCase
	}
	if !changed("context") {
		f.context = cfg.Context
	}
	if !changed("max-columns") {
		f.maxColumns = cfg.MaxColumns
	}
	if !changed("max-count") {
		f.maxCount = cfg.MaxCount
	}
	if !changed("hidden") {
		f.hidden = cfg.Hidden
	}
	if !changed("gitignore") {
		f.gitignore = cfg.Gitignore
	}
	if !changed("glob") {
		f.glob = cfg.Glob
	}
	if !changed("type") {
		f.fileType = cfg.Type
	}
	if !changed("workers") {
		f.workers = cfg.Workers
	}
	if !changed("search-zip") {
		f.searchZip = cfg.SearchZip
	}
	if !changed("encoding") {
		f.encoding = cfg.Encoding
	}
	if !changed("color") && cfg.Color != "" {
		f.color = cfg.Color
	}
	if !changed("find-hidden") {
		f.findHidden = cfg.Find.Hidden
	}
	if !changed("find-gitignore") {
		f.findGitignore = cfg.Find.Gitignore
	}
	if !changed("max-results") {
		f.findMaxResults = cfg.Find.MaxResults
	}
}

func (f *cliFlags) grepOptions() []grepkit.Option {
	opts := []grepkit.Option{
		grepkit.WithContextLines(f.context),
		grepkit.WithMaxCount(f.maxCount),
		grepkit.WithOffset(f.offset),
		grepkit.WithMaxColumns(f.maxColumns),
		grepkit.WithGlob(f.glob),
		grepkit.WithType(f.fileType),
		grepkit.WithHidden(f.hidden),
		grepkit.WithGitignore(f.gitignore),
		grepkit.WithSearchZip(f.searchZip),
	}
	if f.ignoreCase {
		opts = append(opts, grepkit.WithIgnoreCase())
	}
	if f.multiline {
		opts = append(opts, grepkit.WithMultiline())
	}
	if f.count {
		opts = append(opts, grepkit.WithMode(grepkit.ModeCount))
	}
	if f.encoding != "" {
		opts = append(opts, grepkit.WithEncoding(f.encoding))
	}
	if f.workers > 0 {
		opts = append(opts, grepkit.WithWorkers(f.workers))
	}
	if f.timeout > 0 {
		opts = append(opts, grepkit.WithTimeout(f.timeout))
	}
	return opts
}

func runGrep(cmd *cobra.Command, f *cliFlags, pattern string, paths []string) error {
	if pattern == "" {
		return grepkit.ErrEmptyPattern
	}
	if len(paths) == 0 {
		paths = []string{""}
	}

	p, err := grepkit.Compile(pattern, f.ignoreCase, f.multiline)
	if err != nil {
		return err
	}
	out := newPrinter(cmd.OutOrStdout(), f.color, p)

	start := time.Now()
	merged := &grepkit.GrepResult{Matches: []grepkit.GrepMatch{}}
	var total grepkit.Stats
	for _, path := range paths {
		var stats grepkit.Stats
		opts := append(f.grepOptions(), grepkit.WithStats(&stats))
		res, err := grepkit.Grep(cmd.Context(), pattern, path, opts...)
		if err != nil {
			if path == "" {
				return fmt.Errorf("search failed: %w", err)
			}
			return fmt.Errorf("search failed for path %s: %w", path, err)
		}
		if len(paths) > 1 {
			prefixPaths(res, path)
		}
		merged.Matches = append(merged.Matches, res.Matches...)
		merged.TotalMatches += res.TotalMatches
		merged.FilesWithMatches += res.FilesWithMatches
		merged.FilesSearched += res.FilesSearched
		merged.LimitReached = merged.LimitReached || res.LimitReached

		total.FilesScanned += stats.FilesScanned
		total.BytesScanned += stats.BytesScanned
		total.MatchesFound += stats.MatchesFound
	}
	elapsed := time.Since(start)

	if f.jsonOutput {
		if f.stats {
			err = writeJSON(cmd.OutOrStdout(), struct {
				*grepkit.GrepResult
				Stats grepkit.Stats `json:"stats"`
			}{merged, total})
		} else {
			err = writeJSON(cmd.OutOrStdout(), merged)
		}
	} else {
		err = out.grepResult(merged)
	}
	if err != nil {
		return err
	}

	if f.stats {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nFound %d matches in %d files (searched %d files, %d bytes in %v)\n",
			merged.TotalMatches, merged.FilesWithMatches, merged.FilesSearched, total.BytesScanned, elapsed.Round(time.Microsecond))
	}
	if !merged.HasMatches() && !f.jsonOutput {
		return errNoMatch
	}
	return nil
}

// prefixPaths makes record paths relative to the working directory when
// several roots are searched at once.
func prefixPaths(res *grepkit.GrepResult, root string) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	for i := range res.Matches {
		res.Matches[i].Path = prefix + res.Matches[i].Path
	}
}

func newSearchCmd(f *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [flags] PATTERN [FILE]",
		Short: "Search text read from FILE or stdin",
		Long: `Search reads the whole input into memory and reports matching lines.
Unlike the default command it never walks directories and reports an invalid
pattern as a result error rather than a failure.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}

			opts := []grepkit.Option{
				grepkit.WithContextLines(f.context),
				grepkit.WithMaxCount(f.maxCount),
				grepkit.WithOffset(f.offset),
				grepkit.WithMaxColumns(f.maxColumns),
			}
			if f.ignoreCase {
				opts = append(opts, grepkit.WithIgnoreCase())
			}
			if f.multiline {
				opts = append(opts, grepkit.WithMultiline())
			}
			if f.encoding != "" {
				opts = append(opts, grepkit.WithEncoding(f.encoding))
			}

			res := grepkit.Search(content, args[0], opts...)
			if f.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			p, _ := grepkit.Compile(args[0], f.ignoreCase, f.multiline)
			if err := newPrinter(cmd.OutOrStdout(), f.color, p).searchResult(res); err != nil {
				return err
			}
			if !res.HasMatches() {
				return errNoMatch
			}
			return nil
		},
	}
	addPatternFlags(cmd, f)
	cmd.Flags().IntVarP(&f.context, "context", "C", 0, "Show NUM lines before and after each match")
	cmd.Flags().IntVarP(&f.maxCount, "max-count", "m", 0, "Stop after NUM matches (0 = unlimited)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Skip the first NUM matches")
	cmd.Flags().IntVarP(&f.maxColumns, "max-columns", "M", 0, "Truncate lines longer than NUM bytes (0 = never)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Text encoding of the input (default utf-8)")
	return cmd
}

func newHasMatchCmd(f *cliFlags) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "has-match [flags] PATTERN [FILE]",
		Short: "Exit 0 if the input contains a match, 1 otherwise",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			ok, err := grepkit.HasMatch(content, args[0], f.ignoreCase, f.multiline)
			if err != nil {
				return err
			}
			if f.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), map[string]bool{"matched": ok}); err != nil {
					return err
				}
			} else if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), ok)
			}
			if !ok {
				return errNoMatch
			}
			return nil
		},
	}
	addPatternFlags(cmd, f)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing, only set the exit status")
	return cmd
}

func newFindCmd(f *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [flags] QUERY [DIR]",
		Short: "List files and directories whose path contains QUERY",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 1 {
				dir = args[1]
			}
			opts := []grepkit.FindOption{
				grepkit.FindHidden(f.findHidden),
				grepkit.FindGitignore(f.findGitignore),
				grepkit.FindMaxResults(f.findMaxResults),
			}
			if f.ranked {
				opts = append(opts, grepkit.FindRanked())
			}

			res, err := grepkit.FuzzyFind(cmd.Context(), args[0], dir, opts...)
			if err != nil {
				return err
			}
			if f.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if err := newPrinter(cmd.OutOrStdout(), f.color, nil).fuzzyResult(res); err != nil {
				return err
			}
			if res.TotalMatches > len(res.Matches) {
				fmt.Fprintf(cmd.ErrOrStderr(), "... %d more (raise --max-results)\n", res.TotalMatches-len(res.Matches))
			}
			if len(res.Matches) == 0 {
				return errNoMatch
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.findHidden, "find-hidden", false, "Include hidden entries")
	cmd.Flags().BoolVar(&f.findGitignore, "find-gitignore", true, "Respect .gitignore files")
	cmd.Flags().IntVarP(&f.findMaxResults, "max-results", "n", grepkit.DefaultFindResults, "Print at most NUM paths")
	cmd.Flags().BoolVarP(&f.ranked, "ranked", "r", false, "Order by fuzzy score; query characters may be spread out")
	return cmd
}

func newMCPCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			srv := mcpserver.New(version, mcpserver.Defaults{
				IgnoreCase:     c.IgnoreCase,
				Context:        c.Context,
				MaxColumns:     c.MaxColumns,
				Hidden:         c.Hidden,
				Gitignore:      c.Gitignore,
				Workers:        c.Workers,
				SearchZip:      c.SearchZip,
				FindHidden:     c.Find.Hidden,
				FindGitignore:  c.Find.Gitignore,
				FindMaxResults: c.Find.MaxResults,
			})
			return srv.Run(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "grepkit %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "compression: %s\n", strings.Join(compressionNames(), ", "))
		},
	}
}

func compressionNames() []string {
	var names []string
	for _, c := range grepkit.SupportedCompression() {
		names = append(names, c.String())
	}
	return names
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}
