package rownoise

import (
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"

	"github.com/apertus-open-source-cinema/darkcal/rawframe"
	"gonum.org/v1/gonum/mat"
)

// BuildOptions tune how a Dataset is computed. They do not change its
// contents.
type BuildOptions struct {
	// Concurrency bounds the number of frames processed at once. Values below
	// 1 mean runtime.NumCPU().
	Concurrency int
}

func (o BuildOptions) concurrency() int {
	if o.Concurrency < 1 {
		return runtime.NumCPU()
	}
	return o.Concurrency
}

// Dataset is the feature matrix and regression target for a stack of dark
// frames. It holds every sensor row of every frame, including the rows near
// the frame edges whose lagged features wrapped around; those are excluded
// only when training data is requested.
type Dataset struct {
	Params      ModelParameters
	NumFrames   int
	FrameHeight int

	// Features has one row per sensor row, frame after frame, and
	// Params.NumFeatures() columns.
	Features *mat.Dense

	// RowMeans is the black level corrected mean of the light sensitive
	// columns of each sensor row.
	RowMeans []float64
}

// Len is the number of rows in the dataset.
func (d *Dataset) Len() int {
	return len(d.RowMeans)
}

// SensorRow maps a dataset row to the row of its frame.
func (d *Dataset) SensorRow(i int) int {
	return i % d.FrameHeight
}

// Frame maps a dataset row to the index of its frame.
func (d *Dataset) Frame(i int) int {
	return i / d.FrameHeight
}

// Correctable reports whether all lagged features of dataset row i come from
// within its own frame.
func (d *Dataset) Correctable(i int) bool {
	u := d.Params.NumUncorrectable()
	row := d.SensorRow(i)
	return row >= u && row < d.FrameHeight-u
}

// TrainingRows returns the correctable dataset rows whose sensor row is
// accepted by sel, in order.
func (d *Dataset) TrainingRows(sel RowSelector) []int {
	out := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		if d.Correctable(i) && sel(d.SensorRow(i)) {
			out = append(out, i)
		}
	}
	return out
}

// Training gathers the feature rows and targets selected by TrainingRows.
func (d *Dataset) Training(sel RowSelector) (*mat.Dense, []float64) {
	rows := d.TrainingRows(sel)
	if len(rows) == 0 {
		return nil, nil
	}

	nfeat := d.Params.NumFeatures()
	x := mat.NewDense(len(rows), nfeat, nil)
	y := make([]float64, len(rows))
	for j, i := range rows {
		x.SetRow(j, d.Features.RawRowView(i))
		y[j] = d.RowMeans[i]
	}

	return x, y
}

// BuildDataset turns a stack of dark frames into a Dataset. If mean is nil,
// the mean of the stack itself is used as the reference.
//
// BuildDataset takes ownership of frames: their sample buffers are
// overwritten with the mean subtracted values and released from the slice
// once the feature matrix has been built.
func BuildDataset(frames []rawframe.Frame, mean *rawframe.MeanFrame, params ModelParameters, opts BuildOptions) (*Dataset, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(frames) < 1 {
		return nil, fmt.Errorf("No dark frames were provided")
	}

	if mean == nil {
		log.Println("Calculating darkframe mean")
		m, err := rawframe.ComputeMean(frames)
		if err != nil {
			return nil, err
		}
		mean = &m
	}
	if err := mean.CheckSize(frames); err != nil {
		return nil, err
	}

	width, height := mean.Width, mean.Height
	if width <= 2*NumDarkCols || width%2 != 0 {
		return nil, fmt.Errorf("frame width %d must be even and larger than %d dark columns", width, 2*NumDarkCols)
	}
	if height%2 != 0 {
		return nil, fmt.Errorf("frame height %d must be even", height)
	}
	if u := params.NumUncorrectable(); height <= 2*u || height <= params.NumGreenLags {
		return nil, fmt.Errorf("frame height %d leaves no correctable rows with %d uncorrectable rows at each edge", height, u)
	}

	b := &builder{
		params:      params,
		frames:      frames,
		width:       width,
		height:      height,
		concurrency: opts.concurrency(),
	}

	log.Println("Subtracting mean")
	b.subtractMean(*mean)

	log.Println("Calculating row means")
	rowMeans := b.rowMeans()

	log.Println("Getting dark cols")
	b.darkColumns()

	log.Println("Calculating green diffs")
	b.computeGreenDiffs()

	// Everything below only needs the derived series.
	for i := range frames {
		frames[i] = rawframe.Frame{}
	}
	b.frames = nil

	features := b.pack()

	return &Dataset{
		Params:      params,
		NumFrames:   len(frames),
		FrameHeight: height,
		Features:    features,
		RowMeans:    rowMeans,
	}, nil
}

type builder struct {
	params        ModelParameters
	frames        []rawframe.Frame
	width, height int
	concurrency   int

	// darkCols holds, per dataset row, the NumDarkCols leftmost and
	// NumDarkCols rightmost samples minus the black level.
	darkCols [][darkColBlock]float64

	// darkColMeans holds, per frame, the mean of darkCols over all rows of
	// the frame.
	darkColMeans [][darkColBlock]float64

	// greenDiffs[lag-1][i] is the median green difference between dataset
	// row i and the row lag rows below it.
	greenDiffs [][]float64
}

func (b *builder) rows() int {
	return len(b.frames) * b.height
}

// eachFrame runs fn once per frame on a bounded number of goroutines. fn must
// only write to storage owned by its frame.
func (b *builder) eachFrame(fn func(frame int)) {
	semaphore := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for frame := range b.frames {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(frame int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			fn(frame)
		}(frame)
	}

	wg.Wait()
}

// subtractMean replaces each sample v by round(v + BlackLevel - mean).
func (b *builder) subtractMean(mean rawframe.MeanFrame) {
	b.eachFrame(func(frame int) {
		pix := b.frames[frame].Pix
		for i, v := range pix {
			corrected := math.RoundToEven(float64(v) + BlackLevel - float64(mean.Pix[i]))
			pix[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, corrected)))
		}
	})
}

func (b *builder) rowMeans() []float64 {
	out := make([]float64, b.rows())
	n := float64(b.width - 2*NumDarkCols)

	for frame, f := range b.frames {
		for row := 0; row < b.height; row++ {
			sum := 0.0
			for _, v := range f.Row(row)[NumDarkCols : b.width-NumDarkCols] {
				sum += float64(v)
			}
			out[frame*b.height+row] = sum/n - BlackLevel
		}
	}

	return out
}

func (b *builder) darkColumns() {
	b.darkCols = make([][darkColBlock]float64, b.rows())
	b.darkColMeans = make([][darkColBlock]float64, len(b.frames))

	for frame, f := range b.frames {
		means := &b.darkColMeans[frame]
		for row := 0; row < b.height; row++ {
			samples := f.Row(row)
			block := &b.darkCols[frame*b.height+row]
			for col := 0; col < NumDarkCols; col++ {
				block[col] = float64(samples[col]) - BlackLevel
				block[NumDarkCols+col] = float64(samples[b.width-NumDarkCols+col]) - BlackLevel
			}
			for col, v := range block {
				means[col] += v
			}
		}
		for col := range means {
			means[col] /= float64(b.height)
		}
	}
}

// computeGreenDiffs computes, for every lag and row, the median over the green
// pixels of the row minus the green pixels of the row lag rows below. With
// green at (0, 0), green sits in the even columns of even rows and in the odd
// columns of odd rows. The last NumGreenLags rows of each frame have no
// partner and stay 0.
func (b *builder) computeGreenDiffs() {
	maxLag := b.params.NumGreenLags
	b.greenDiffs = make([][]float64, maxLag)
	for lag := range b.greenDiffs {
		b.greenDiffs[lag] = make([]float64, b.rows())
	}
	if maxLag == 0 {
		return
	}

	b.eachFrame(func(frame int) {
		f := b.frames[frame]
		scratch := make([]int32, b.width/2)

		for lag := 1; lag <= maxLag; lag++ {
			out := b.greenDiffs[lag-1][frame*b.height : (frame+1)*b.height]
			for row := 0; row < b.height-maxLag; row++ {
				this := f.Row(row)[row%2:]
				other := f.Row(row + lag)[(row+lag)%2:]
				for k := range scratch {
					scratch[k] = int32(this[2*k]) - int32(other[2*k])
				}
				out[row] = float64(medianInPlace(scratch))
			}
		}
	})
}

// pack lays out the feature rows. The column order is part of the exported
// weight layout and must match Pack and Unpack:
//
//   - per green lag: minus the difference to the row lag rows above, then the
//     difference to the row lag rows below
//   - dark column row pair blocks for lag 0, -1, +1, -2, +2, ... (in pairs of
//     rows)
//   - the per-frame dark column means, if enabled
//
// Shifted series wrap around the whole stack; the affected rows are not
// correctable.
func (b *builder) pack() *mat.Dense {
	n := len(b.darkCols)
	out := mat.NewDense(n, b.params.NumFeatures(), nil)

	wrap := func(i int) int {
		return ((i % n) + n) % n
	}

	putPair := func(dst []float64, i int) {
		even := i - i%2
		copy(dst, b.darkCols[wrap(even)][:])
		copy(dst[darkColBlock:], b.darkCols[wrap(even+1)][:])
	}

	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		col := 0

		for lag := 0; lag < b.params.NumGreenLags; lag++ {
			diffs := b.greenDiffs[lag]
			row[col] = -diffs[wrap(i-(lag+1))]
			row[col+1] = diffs[i]
			col += 2
		}

		for lag := 0; lag < b.params.NumDarkColRows; lag++ {
			if lag == 0 {
				putPair(row[col:], i)
				col += 2 * darkColBlock
				continue
			}

			putPair(row[col:], wrap(i-2*lag))
			col += 2 * darkColBlock
			putPair(row[col:], wrap(i+2*lag))
			col += 2 * darkColBlock
		}

		if b.params.HasDarkColumn {
			copy(row[col:], b.darkColMeans[i/b.height][:])
		}
	}

	return out
}
