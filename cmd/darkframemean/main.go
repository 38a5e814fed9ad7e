// darkframemean averages a packed raw dark frame stream into the flat
// float32 mean frame that rownoisemodel accepts with -mean.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/apertus-open-source-cinema/darkcal"
	_ "github.com/apertus-open-source-cinema/darkcal/compileinfoprint"
	"github.com/apertus-open-source-cinema/darkcal/rawframe"
)

// Safe for concurrent use by multiple goroutines
var client *storage.Client

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	var input, output string
	var count int

	flag.StringVar(&input, "input", "", "Path to a packed raw stream, optionally compressed. May be a gs:// path.")
	flag.StringVar(&output, "output", "", "Path to write the float32 mean frame to.")
	flag.IntVar(&count, "count", 0, "Number of frames to average. 0 averages the whole stream.")
	flag.Parse()

	if input == "" || output == "" {
		flag.Usage()
		os.Exit(1)
	}

	if darkcal.IsGoogleStoragePath(input) {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	if err := run(input, output, count); err != nil {
		log.Fatalln(err)
	}
}

func run(input, output string, count int) error {
	f, _, err := darkcal.OpenPath(input, client)
	if err != nil {
		return err
	}
	defer f.Close()

	mean, err := streamMean(bufio.NewReaderSize(f, 1<<20), count)
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := rawframe.WriteMean(out, mean); err != nil {
		return err
	}
	log.Printf("Wrote %dx%d mean frame to %s\n", mean.Width, mean.Height, output)

	return out.Close()
}

func streamMean(r io.Reader, count int, opts ...rawframe.Option) (rawframe.MeanFrame, error) {
	rdr, err := rawframe.NewReader(r, opts...)
	if err != nil {
		return rawframe.MeanFrame{}, err
	}
	defer rdr.Close()

	g := rdr.Geometry()
	log.Printf("Detected %s %s stream\n", g.Resolution, rdr.DataType())

	acc := rawframe.NewMeanAccumulator(g.Width, g.Height)
	for count <= 0 || acc.Count() < count {
		frame, err := rdr.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return rawframe.MeanFrame{}, err
		}

		if err := acc.Add(frame); err != nil {
			return rawframe.MeanFrame{}, err
		}

		if acc.Count()%100 == 0 {
			log.Printf("Averaged %d frames\n", acc.Count())
		}
	}

	if acc.Count() == 0 {
		return rawframe.MeanFrame{}, fmt.Errorf("No frames were found")
	}
	log.Printf("Averaged %d frames\n", acc.Count())

	return acc.Mean(), nil
}
