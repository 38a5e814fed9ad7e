package rawframe

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	_ "golang.org/x/image/tiff"
)

// FrameSuffixes are the file extensions LoadDirectory picks up.
var FrameSuffixes = []string{".png", ".tif", ".tiff"}

// ListFrameFiles returns the frame files in folder, sorted by name.
func ListFrameFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, pfx.Err(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		lower := strings.ToLower(entry.Name())
		for _, suffix := range FrameSuffixes {
			if strings.HasSuffix(lower, suffix) {
				names = append(names, filepath.Join(folder, entry.Name()))
				break
			}
		}
	}
	sort.Strings(names)

	return names, nil
}

// LoadDirectory loads up to count individually decoded frames (16-bit
// grayscale PNG or TIFF) from folder. A non-positive count loads all of
// them. All frames must have the same size.
func LoadDirectory(folder string, count int) ([]Frame, error) {
	names, err := ListFrameFiles(folder)
	if err != nil {
		return nil, err
	}
	if len(names) < 1 {
		return nil, fmt.Errorf("No frames were found in %s", folder)
	}
	if count > 0 && count < len(names) {
		names = names[:count]
	}

	frames := make([]Frame, 0, len(names))
	for _, name := range names {
		frame, err := LoadFrameFile(name)
		if err != nil {
			return nil, err
		}

		if len(frames) > 0 && (frame.Width != frames[0].Width || frame.Height != frames[0].Height) {
			return nil, fmt.Errorf("%s is %dx%d, but %s is %dx%d", name, frame.Width, frame.Height, names[0], frames[0].Width, frames[0].Height)
		}

		frames = append(frames, frame)
	}

	return frames, nil
}

// LoadFrameFile decodes a single grayscale image into a Frame.
func LoadFrameFile(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, pfx.Err(err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return Frame{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	frame, err := FrameFromImage(img)
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w", path, err)
	}

	return frame, nil
}

// FrameFromImage converts an image to a Frame via its 16-bit gray value.
func FrameFromImage(img image.Image) (Frame, error) {
	b := img.Bounds()
	out := NewFrame(b.Dx(), b.Dy())

	gray16, isGray16 := img.(*image.Gray16)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			var v uint16
			if isGray16 {
				v = gray16.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			} else {
				v = color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y
			}

			if v > math.MaxInt16 {
				return Frame{}, fmt.Errorf("sample %d at (%d, %d) does not fit a raw sample", v, x, y)
			}
			out.Pix[y*out.Width+x] = int16(v)
		}
	}

	return out, nil
}
