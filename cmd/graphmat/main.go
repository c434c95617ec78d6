// Command graphmat matches the call graphs of two object files and writes
// the recovered address correspondence as a CSV mapping.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/beliefprop"
	"github.com/binref/graphmat/heuristic"
	"github.com/binref/graphmat/objfile"
	"github.com/binref/graphmat/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("graphmat", flag.ContinueOnError)
	first := fs.String("first", "", "first object file to compare")
	second := fs.String("second", "", "second object file to compare")
	seedsPath := fs.String("seeds", "", "optional seed file of known-good address pairs")
	output := fs.String("output", "", "path to write the CSV mapping to")
	verbose := fs.Bool("v", false, "enable verbose (debug) logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *first == "" || *second == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "graphmat: -first, -second and -output are required")
		fs.Usage()
		return 2
	}

	log := newLogger(*verbose)
	defer log.Sync() //nolint:errcheck

	if err := runMatch(log, *first, *second, *seedsPath, *output); err != nil {
		log.Error("match failed", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		// zap's own construction cannot fail with this config; fall back
		// to a logger that is at least not nil.
		return zap.NewNop()
	}
	return log
}

func runMatch(log *zap.Logger, firstPath, secondPath, seedsPath, outputPath string) error {
	lhsObj, err := objfile.Load(firstPath, log)
	if err != nil {
		return fmt.Errorf("load %s: %w", firstPath, err)
	}
	rhsObj, err := objfile.Load(secondPath, log)
	if err != nil {
		return fmt.Errorf("load %s: %w", secondPath, err)
	}

	seeds, err := loadSeeds(seedsPath, lhsObj, rhsObj)
	if err != nil {
		return err
	}

	lhsSeedRoots := make([]graphmat.Address, len(seeds))
	rhsSeedRoots := make([]graphmat.Address, len(seeds))
	for i, s := range seeds {
		lhsSeedRoots[i] = s.Lhs
		rhsSeedRoots[i] = s.Rhs
	}

	lhs := lhsObj.CodeMetadata(lhsSeedRoots...)
	rhs := rhsObj.CodeMetadata(rhsSeedRoots...)

	roots := append([]graphmat.Pair{{Lhs: lhs.Entry(), Rhs: rhs.Entry()}}, seeds...)
	h := heuristic.Combined{First: heuristic.RelativeCodeSize{}, Second: heuristic.CallOrder{}}

	mapping := beliefprop.Match(lhs, rhs, roots, h)
	log.Info("match complete", zap.Int("pairs", len(mapping.Pairs())))

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer out.Close()

	if err := report.WriteCSV(out, mapping); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}

func loadSeeds(path string, lhsObj, rhsObj *objfile.Object) ([]graphmat.Pair, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seeds %s: %w", path, err)
	}
	defer f.Close()

	seeds, err := report.ReadSeeds(f,
		lhsObj.CodeMetadata().TextBase(), rhsObj.CodeMetadata().TextBase(),
		lhsObj.TextSize(), rhsObj.TextSize())
	if err != nil {
		return nil, fmt.Errorf("parse seeds %s: %w", path, err)
	}
	return seeds, nil
}
