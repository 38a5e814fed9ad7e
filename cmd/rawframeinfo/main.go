// rawframeinfo prints the detected geometry of a packed raw stream and the
// corner markers of each of its frames as a tab delimited table.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/apertus-open-source-cinema/darkcal"
	_ "github.com/apertus-open-source-cinema/darkcal/compileinfoprint"
	"github.com/apertus-open-source-cinema/darkcal/rawframe"
)

// Safe for concurrent use by multiple goroutines
var client *storage.Client

func main() {
	var input string
	var count int

	flag.StringVar(&input, "input", "", "Path to a packed raw stream, optionally compressed. May be a gs:// path.")
	flag.IntVar(&count, "count", 0, "Number of frames to inspect. 0 inspects the whole stream.")
	flag.Parse()

	if input == "" {
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

	f, _, err := darkcal.OpenPath(input, client)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()

	bw := bufio.NewWriter(os.Stdout)
	defer bw.Flush()

	if err := inspect(bufio.NewReaderSize(f, 1<<20), bw, count); err != nil {
		bw.Flush()
		log.Fatalln(err)
	}
}

func inspect(r io.Reader, w io.Writer, count int, opts ...rawframe.Option) error {
	rdr, err := rawframe.NewReader(r, opts...)
	if err != nil {
		return err
	}
	defer rdr.Close()

	g := rdr.Geometry()
	fmt.Fprintf(w, "# compression\t%s\n", rdr.DataType())
	fmt.Fprintf(w, "# resolution\t%s\n", g.Resolution)
	fmt.Fprintf(w, "# offset\t%d\n", g.Offset)
	fmt.Fprintf(w, "# fallback\t%t\n", g.Fallback)
	if n, ok := rdr.FrameCount(); ok {
		fmt.Fprintf(w, "# frames\t%d\n", n)
	}

	fmt.Fprintln(w, strings.Join([]string{"frame", "valid", "half", "corner", "frame_number", "wrsel", "marker"}, "\t"))

	names := [4]string{"top_left", "top_right", "bottom_left", "bottom_right"}
	for frame := 0; count <= 0 || frame < count; frame++ {
		packed, err := rdr.NextPacked()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		corners, ok := rawframe.ReadCorners(packed, g.Resolution)
		if !ok {
			return fmt.Errorf("frame %d is too short for %s", frame, g.Resolution)
		}
		valid := corners.Valid()

		for _, half := range []struct {
			name    string
			markers [4]rawframe.CornerMarker
		}{{"even", corners.Even}, {"odd", corners.Odd}} {
			for i, m := range half.markers {
				fmt.Fprintf(w, "%d\t%t\t%s\t%s\t%d\t%d\t0x%02X\n", frame, valid, half.name, names[i], m.FrameNumber, m.WriteSelect, m.Marker)
			}
		}
	}

	return nil
}
