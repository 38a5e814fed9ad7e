// rownoisemodel fits the row noise model on a stack of dark frames and writes
// the weights for the correction stage as YAML to stdout.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"cloud.google.com/go/storage"
	"github.com/apertus-open-source-cinema/darkcal"
	_ "github.com/apertus-open-source-cinema/darkcal/compileinfoprint"
	"github.com/apertus-open-source-cinema/darkcal/rawframe"
	"github.com/apertus-open-source-cinema/darkcal/rownoise"
)

// Safe for concurrent use by multiple goroutines
var client *storage.Client

const (
	defaultGreenDiffLags = 3
	defaultDarkColRows   = 2
)

type config struct {
	count         int
	greenDiffLags int
	darkColRows   int
	darkColMean   bool
	combined      bool
	meanPath      string
	residualsPath string
	concurrency   int
}

func (c config) params() rownoise.ModelParameters {
	return rownoise.ModelParameters{
		NumGreenLags:   c.greenDiffLags,
		NumDarkColRows: c.darkColRows,
		HasDarkColumn:  c.darkColMean,
	}
}

func newFlagSet(name string, cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <darkframe_stack>\n\n", name)
		fmt.Fprintln(fs.Output(), "darkframe_stack is a folder of 16-bit PNG or TIFF frames, or a packed 12-bit raw stream (optionally compressed, local or gs://).")
		fmt.Fprintf(fs.Output(), "Without model flags, %d green difference lags and %d dark column row lags are fitted. Set both to 0 and leave -dark-column-mean off to get a configuration error.\n\n", defaultGreenDiffLags, defaultDarkColRows)
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.count, "count", 0, "Number of frames to use. 0 uses the count from the stream header, or all frames.")
	fs.IntVar(&cfg.greenDiffLags, "green-diff-lags", defaultGreenDiffLags, "Number of green difference lags (0 disables green differences).")
	fs.IntVar(&cfg.darkColRows, "dark-column-rows", defaultDarkColRows, "Number of dark column row lags (0 disables dark column rows).")
	fs.BoolVar(&cfg.darkColMean, "dark-column-mean", false, "Add the per-frame dark column means as features.")
	fs.BoolVar(&cfg.combined, "combined-model", false, "Fit one model for even and odd rows instead of one per row parity.")
	fs.StringVar(&cfg.meanPath, "mean", "", "Optional. Path to a float32 mean frame (see darkframemean). Defaults to the mean of the stack.")
	fs.StringVar(&cfg.residualsPath, "residuals", "", "Optional. Path to write a tab delimited table of per-row residuals.")
	fs.IntVar(&cfg.concurrency, "concurrency", runtime.NumCPU(), "Number of frames to process at once.")

	return fs
}

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	var cfg config
	fs := newFlagSet(os.Args[0], &cfg)
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	stackPath := fs.Arg(0)
	meanPath := cfg.meanPath
	params := cfg.params()

	// Refuse an unusable configuration before spending time on the frames.
	if err := params.Validate(); err != nil {
		log.Fatalln(err)
	}

	if darkcal.IsGoogleStoragePath(stackPath) || darkcal.IsGoogleStoragePath(meanPath) {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	mode := rownoise.SplitParity
	if cfg.combined {
		mode = rownoise.Combined
	}

	if err := run(stackPath, meanPath, cfg.residualsPath, cfg.count, params, mode, cfg.concurrency); err != nil {
		log.Fatalln(err)
	}
}

func run(stackPath, meanPath, residualsPath string, count int, params rownoise.ModelParameters, mode rownoise.FitMode, concurrency int) error {
	log.Println("Loading darkframes")
	frames, err := loadFrames(stackPath, count)
	if err != nil {
		return err
	}
	if len(frames) < 1 {
		return fmt.Errorf("No dark frames were found in %s", stackPath)
	}
	log.Printf("Loaded %d darkframes of %dx%d\n", len(frames), frames[0].Width, frames[0].Height)

	var mean *rawframe.MeanFrame
	if meanPath != "" {
		m, err := loadMean(meanPath, frames[0].Width, frames[0].Height)
		if err != nil {
			return err
		}
		mean = &m
	}

	ds, err := rownoise.BuildDataset(frames, mean, params, rownoise.BuildOptions{Concurrency: concurrency})
	if err != nil {
		return err
	}

	log.Printf("Fitting %d parameters (%s) on %d rows\n", params.NParams(), mode, ds.Len())
	weights, evals, err := rownoise.Fit(ds, mode)
	if err != nil {
		return err
	}
	for _, e := range evals {
		log.Printf("%s rows: n=%d rms before=%.4f after=%.4f p99 |residual|=%.4f\n", e.Rows, e.N, e.Before, e.After, e.P99AbsResidual)
	}

	if residualsPath != "" {
		if err := writeResiduals(residualsPath, ds, weights); err != nil {
			return err
		}
	}

	return weights.Serialize(os.Stdout)
}

func loadFrames(path string, count int) ([]rawframe.Frame, error) {
	if !darkcal.IsGoogleStoragePath(path) {
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			return rawframe.LoadDirectory(path, count)
		}
	}

	f, size, err := darkcal.OpenPath(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	log.Printf("Reading %s (%d bytes)\n", path, size)

	frames, geometry, err := rawframe.ReadFrames(bufio.NewReaderSize(f, 1<<20), count)
	if err != nil {
		return nil, err
	}
	log.Printf("Detected %s at offset %d (fallback: %t)\n", geometry.Resolution, geometry.Offset, geometry.Fallback)

	return frames, nil
}

func loadMean(path string, width, height int) (rawframe.MeanFrame, error) {
	f, _, err := darkcal.OpenPath(path, client)
	if err != nil {
		return rawframe.MeanFrame{}, err
	}
	defer f.Close()

	return rawframe.ReadMean(bufio.NewReader(f), width, height)
}

func writeResiduals(path string, ds *rownoise.Dataset, weights rownoise.ModelWeights) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := rownoise.WriteResiduals(bw, ds, weights); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	return f.Close()
}
