package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmltools/mmlcov/cover"
	"github.com/mmltools/mmlcov/mml"
)

const instrumentLongDescription = `Instrument MiniML sources for coverage analysis.

Instrumented copies and .mmp point artifacts are written to the output
directory, mirroring the input layout. Point kinds can be toggled with
single-character codes:

  b binding      s sequence     f for          i if-then
  t try          w while        m match        c class-expr
  d class-init   e class-meth   v class-val    p toplevel-expr
  l lazy-operator

` + pathArgsHelp

var modeFlag string
var enableFlags []string
var disableFlags []string
var diffFlag bool
var cacheDirFlag string
var cacheMemFlag int

// instrumentCmd represents the instrument command.
var instrumentCmd = newInstrumentCmd()

func newInstrumentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instrument [paths...]",
		Short: "Instrument MiniML sources",
		Long:  instrumentLongDescription,
		RunE:  runInstrument,
	}
}

func init() {
	configureInstrumentFlags(instrumentCmd)
	rootCmd.AddCommand(instrumentCmd)
}

func configureInstrumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&modeFlag, modeFlagName, "m", viper.GetString(modeConfigKey), "instrumentation mode: safe, fast or faster")
	bindFlagToConfig(cmd.Flags().Lookup(modeFlagName), modeConfigKey)

	cmd.Flags().StringArrayVar(&enableFlags, enableFlagName, viper.GetStringSlice(enableConfigKey), "enable point kinds by code (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(enableFlagName), enableConfigKey)

	cmd.Flags().StringArrayVar(&disableFlags, disableFlagName, viper.GetStringSlice(disableConfigKey), "disable point kinds by code (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(disableFlagName), disableConfigKey)

	cmd.Flags().StringVar(&cacheDirFlag, cacheDirFlagName, viper.GetString(cacheDirConfigKey), "instrumentation cache directory")
	bindFlagToConfig(cmd.Flags().Lookup(cacheDirFlagName), cacheDirConfigKey)

	cmd.Flags().IntVar(&cacheMemFlag, cacheMemFlagName, viper.GetInt(cacheMemConfigKey), "cache memory budget in MB")
	bindFlagToConfig(cmd.Flags().Lookup(cacheMemFlagName), cacheMemConfigKey)

	cmd.Flags().BoolVar(&diffFlag, diffFlagName, false, "print a unified diff of the changes instead of writing files")
}

// parsedSource pairs a source file with its bytes and parse tree.
type parsedSource struct {
	src  cover.SourceFile
	data []byte
	tree *mml.File
}

// instrumentResult is the per-file outcome of the session phase,
// carried into the parallel emit phase.
type instrumentResult struct {
	src      cover.SourceFile
	input    []byte
	output   []byte
	points   []cover.Point
	cacheKey string
	cached   bool
}

func runInstrument(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if len(args) == 0 {
		args = []string{"."}
	}

	mode, err := cover.ParseMode(viper.GetString(modeConfigKey))
	if err != nil {
		return err
	}
	reg := cover.NewKindRegistry()
	// Disables apply before enables so an explicit --enable overrides
	// a config-file disable.
	for _, codes := range viper.GetStringSlice(disableConfigKey) {
		if err := reg.Apply(codes, false); err != nil {
			return err
		}
	}
	for _, codes := range viper.GetStringSlice(enableConfigKey) {
		if err := reg.Apply(codes, true); err != nil {
			return err
		}
	}

	sources, err := cover.FindSourceFiles(args)
	if err != nil {
		return err
	} else if len(sources) == 0 {
		return fmt.Errorf("no %s files found under %s", cover.SourceExt, strings.Join(args, " "))
	}
	names := make(map[string]string, len(sources))
	for _, sf := range sources {
		if prev, dup := names[sf.Rel]; dup {
			return fmt.Errorf("duplicate source name %s (%s and %s)", sf.Rel, prev, sf.Path)
		}
		names[sf.Rel] = sf.Path
	}

	parsed, err := parseSources(sources)
	if err != nil {
		return err
	}

	var cache *cover.ResultCache
	if !viper.GetBool(noCacheFlagName) && !diffFlag {
		if cache = openCache(); cache != nil {
			defer cache.Close()
		}
	}

	// The session phase is sequential so point indices stay stable in
	// sorted file order.
	session := cover.NewSession(mode, reg)
	disabled := reg.DisabledCodes()
	results := make([]instrumentResult, len(parsed))
	cacheHits := 0
	for i, p := range parsed {
		r := instrumentResult{src: p.src, input: p.data}
		if cache != nil {
			r.cacheKey = cover.CacheKey(p.data, mode, disabled)
			if output, points, ok := cache.Get(r.cacheKey); ok {
				if err := session.RestoreFile(p.src.Rel, points); err != nil {
					slog.Warn("discarding cached result", "file", p.src.Rel, "error", err)
				} else {
					r.output, r.points, r.cached = output, points, true
					results[i] = r
					cacheHits++
					continue
				}
			}
		}
		session.InstrumentFile(p.src.Rel, p.tree)
		r.output = mml.Print(p.tree)
		r.points = session.Points(p.src.Rel)
		results[i] = r
	}

	if diffFlag {
		for _, r := range results {
			text, err := cover.UnifiedDiff(r.src.Rel, r.input, r.output)
			if err != nil {
				return err
			}
			cmd.Print(text)
		}
		return nil
	}

	outDir := viper.GetString(outputFlagName)
	group := cover.ErrGroupLimitCPU()
	for _, r := range results {
		group.Go(func() error {
			dest := filepath.Join(outDir, filepath.FromSlash(r.src.Rel))
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := cover.WriteFileAtomic(dest, r.output, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			if cache != nil && !r.cached {
				if err := cache.Put(r.cacheKey, r.output, r.points); err != nil {
					slog.Warn("cache store failed", "file", r.src.Rel, "error", err)
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	writer := &cover.FilePointsWriter{PathFor: func(file string) string {
		return cover.PointsPath(filepath.Join(outDir, filepath.FromSlash(file)))
	}}
	if err := session.Finalize(writer); err != nil {
		return err
	}

	totalPoints := 0
	for _, file := range session.Files() {
		totalPoints += len(session.Points(file))
	}
	slog.Info("instrumentation complete",
		"files", len(results), "points", totalPoints,
		"cache_hits", cacheHits, "elapsed", time.Since(start))
	cmd.Printf("instrumented %d files (%d points) into %s\n", len(results), totalPoints, outDir)
	return nil
}

// parseSources reads and parses every source concurrently, bounded by
// the CPU count. Results keep the caller's ordering.
func parseSources(sources []cover.SourceFile) ([]parsedSource, error) {
	parsed := make([]parsedSource, len(sources))
	group := cover.ErrGroupLimitCPU()
	for i, sf := range sources {
		group.Go(func() error {
			data, err := os.ReadFile(sf.Path)
			if err != nil {
				return err
			}
			tree, err := mml.Parse(data, sf.Rel)
			if err != nil {
				return err
			}
			parsed[i] = parsedSource{src: sf, data: data, tree: tree}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// openCache opens the badger-backed result cache, returning nil when
// it is unavailable so instrumentation proceeds uncached.
func openCache() *cover.ResultCache {
	dir := viper.GetString(cacheDirConfigKey)
	memMB := viper.GetInt(cacheMemConfigKey)
	store, err := cover.NewBadgerStore(dir, memMB)
	if err != nil {
		slog.Warn("instrumentation cache unavailable", "dir", dir, "error", err)
		return nil
	}
	cache, err := cover.NewResultCache(store, memMB)
	if err != nil {
		store.Close()
		slog.Warn("instrumentation cache unavailable", "dir", dir, "error", err)
		return nil
	}
	return cache
}
