package rownoise

import (
	"log"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Evaluation summarizes how well a fit explains its training rows. It is
// advisory only.
type Evaluation struct {
	Rows string
	N    int

	// Before is the RMS of the targets, After the RMS of the residuals.
	Before float64
	After  float64

	// P99AbsResidual is the 99th percentile of the absolute residuals.
	P99AbsResidual float64
}

// Evaluate computes the RMS row deviation before and after applying coef to
// x.
func Evaluate(x *mat.Dense, y []float64, coef []float64) Evaluation {
	out := Evaluation{N: len(y)}
	if len(y) == 0 {
		return out
	}

	var before, after float64
	abs := make(stats.Float64Data, len(y))
	for i, target := range y {
		residual := target - predictRow(x.RawRowView(i), coef)
		before += target * target
		after += residual * residual
		abs[i] = math.Abs(residual)
	}

	out.Before = math.Sqrt(before / float64(len(y)))
	out.After = math.Sqrt(after / float64(len(y)))
	p99, err := stats.Percentile(abs, 99)
	if err != nil {
		log.Printf("Could not compute the 99th percentile of %d residuals: %v\n", len(abs), err)
		p99 = math.NaN()
	}
	out.P99AbsResidual = p99

	return out
}
