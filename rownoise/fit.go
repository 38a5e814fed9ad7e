package rownoise

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RowSelector picks the sensor rows a model is fitted on.
type RowSelector func(sensorRow int) bool

func AllRows(int) bool { return true }

func EvenRows(row int) bool { return row%2 == 0 }

func OddRows(row int) bool { return row%2 == 1 }

// FitMode selects between one model per row parity and one shared model.
type FitMode int

const (
	SplitParity FitMode = iota
	Combined
)

func (m FitMode) String() string {
	if m == Combined {
		return "combined"
	}
	return "split-parity"
}

// rankTolerance is the relative singular value cutoff of the least squares
// solve. Directions below it (constant or duplicated features) get no
// weight.
const rankTolerance = 1e-10

// Fit fits the model on the correctable rows of ds.
func Fit(ds *Dataset, mode FitMode) (ModelWeights, []Evaluation, error) {
	if mode == Combined {
		log.Println("Creating combined even odd model")
		half, eval, err := fitHalf(ds, AllRows, "all")
		if err != nil {
			return ModelWeights{}, nil, err
		}
		return ModelWeights{WeightsEven: half, WeightsOdd: half}, []Evaluation{eval}, nil
	}

	log.Println("Creating even model")
	even, evalEven, err := fitHalf(ds, EvenRows, "even")
	if err != nil {
		return ModelWeights{}, nil, err
	}

	log.Println("Creating odd model")
	odd, evalOdd, err := fitHalf(ds, OddRows, "odd")
	if err != nil {
		return ModelWeights{}, nil, err
	}

	return ModelWeights{WeightsEven: even, WeightsOdd: odd}, []Evaluation{evalEven, evalOdd}, nil
}

func fitHalf(ds *Dataset, sel RowSelector, name string) (ModelHalfWeights, Evaluation, error) {
	coef, eval, err := FitRows(ds, sel)
	if err != nil {
		return ModelHalfWeights{}, eval, &FitError{Rows: name, Err: err}
	}
	eval.Rows = name
	log.Printf("Average quadratic row deviation of %s rows before correction: %v, after: %v\n", name, eval.Before, eval.After)

	half, err := ds.Params.Unpack(coef)
	if err != nil {
		return ModelHalfWeights{}, eval, &FitError{Rows: name, Err: err}
	}

	return half, eval, nil
}

// FitRows fits targets ~ features . w + offset on the training rows selected
// by sel and returns the packed coefficients (w followed by the offset).
func FitRows(ds *Dataset, sel RowSelector) ([]float64, Evaluation, error) {
	x, y := ds.Training(sel)
	if len(y) == 0 {
		return nil, Evaluation{}, errors.New("no training rows were selected")
	}

	coef, err := solveLeastSquares(x, y)
	if err != nil {
		return nil, Evaluation{}, err
	}

	return coef, Evaluate(x, y, coef), nil
}

// solveLeastSquares returns the minimum norm solution of
// min |y - (x w + offset)|^2 as (w..., offset). Starting a Gauss-Newton
// iteration at zero on this linear residual lands on the same point.
func solveLeastSquares(x *mat.Dense, y []float64) ([]float64, error) {
	m, p := x.Dims()
	if floats.HasNaN(y) || floats.HasNaN(x.RawMatrix().Data) {
		return nil, errors.New("training data contains NaN")
	}
	if math.IsInf(floats.Sum(y), 0) {
		return nil, errors.New("training targets are not finite")
	}

	a := mat.NewDense(m, p+1, nil)
	a.Slice(0, m, 0, p).(*mat.Dense).Copy(x)
	for i := 0; i < m; i++ {
		a.Set(i, p, 1)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("singular value decomposition did not converge")
	}

	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		return nil, fmt.Errorf("design matrix of %d rows has rank 0", m)
	}

	var w mat.VecDense
	svd.SolveVecTo(&w, mat.NewVecDense(m, y), rank)

	coef := make([]float64, p+1)
	for i := range coef {
		coef[i] = w.AtVec(i)
	}
	if floats.HasNaN(coef) {
		return nil, errors.New("solution is not finite")
	}

	return coef, nil
}

// Predict applies the model to every row of ds, including the rows that are
// not correctable, and returns the predicted row means.
func Predict(ds *Dataset, weights ModelWeights) ([]float64, error) {
	even, odd := weights.WeightsEven.Pack(), weights.WeightsOdd.Pack()
	if n := ds.Params.NParams(); len(even) != n || len(odd) != n {
		return nil, fmt.Errorf("weights have %d/%d coefficients, but the dataset needs %d", len(even), len(odd), n)
	}

	out := make([]float64, ds.Len())
	for i := range out {
		coef := even
		if ds.SensorRow(i)%2 == 1 {
			coef = odd
		}
		out[i] = predictRow(ds.Features.RawRowView(i), coef)
	}

	return out, nil
}

func predictRow(features, coef []float64) float64 {
	return floats.Dot(features, coef[:len(coef)-1]) + coef[len(coef)-1]
}
