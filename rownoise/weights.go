package rownoise

import "fmt"

// SchemaVersion identifies the coefficient layout shared with the correction
// stage. Any change to the order or the set of fields in Pack, Unpack or the
// YAML form needs a new version.
const SchemaVersion = 1

// ModelHalfWeights are the fitted coefficients for one row parity.
type ModelHalfWeights struct {
	// GreenDiffWeights has one pair per green lag: the weight for the
	// difference to the row above, then to the row below.
	GreenDiffWeights [][2]float64

	// DarkColRowWeights has one block per dark column row lag, in the order
	// 0, -1, +1, -2, +2, ... Each block holds the weights for the even row
	// and the odd row of a row pair.
	DarkColRowWeights [][2][darkColBlock]float64

	// DarkColMeanWeights is empty unless the dark column mean is enabled.
	DarkColMeanWeights []float64

	Offset float64
}

// ModelWeights is the complete model handed to the correction stage.
type ModelWeights struct {
	WeightsEven ModelHalfWeights `yaml:"weights_even"`
	WeightsOdd  ModelHalfWeights `yaml:"weights_odd"`
}

// Parameters derives the hyperparameters the weights were fitted with.
func (w ModelHalfWeights) Parameters() ModelParameters {
	out := ModelParameters{
		NumGreenLags:  len(w.GreenDiffWeights),
		HasDarkColumn: len(w.DarkColMeanWeights) > 0,
	}
	if n := len(w.DarkColRowWeights); n > 0 {
		out.NumDarkColRows = (n + 1) / 2
	}

	return out
}

// Pack flattens the weights into the solver's coefficient order: green
// difference pairs, dark column row blocks, dark column mean weights and the
// offset.
func (w ModelHalfWeights) Pack() []float64 {
	out := make([]float64, 0, 2*len(w.GreenDiffWeights)+2*darkColBlock*len(w.DarkColRowWeights)+len(w.DarkColMeanWeights)+1)

	for _, pair := range w.GreenDiffWeights {
		out = append(out, pair[:]...)
	}
	for _, block := range w.DarkColRowWeights {
		out = append(out, block[0][:]...)
		out = append(out, block[1][:]...)
	}
	out = append(out, w.DarkColMeanWeights...)

	return append(out, w.Offset)
}

// Unpack is the inverse of Pack for weights fitted with p.
func (p ModelParameters) Unpack(weights []float64) (ModelHalfWeights, error) {
	var out ModelHalfWeights

	if len(weights) != p.NParams() {
		return out, fmt.Errorf("got %d coefficients, but the parameters %+v need %d", len(weights), p, p.NParams())
	}

	pos := 0

	if p.NumGreenLags > 0 {
		out.GreenDiffWeights = make([][2]float64, p.NumGreenLags)
		for i := range out.GreenDiffWeights {
			copy(out.GreenDiffWeights[i][:], weights[pos:pos+2])
			pos += 2
		}
	}

	if n := p.numDarkColRowBlocks(); n > 0 {
		out.DarkColRowWeights = make([][2][darkColBlock]float64, n)
		for i := range out.DarkColRowWeights {
			for half := 0; half < 2; half++ {
				copy(out.DarkColRowWeights[i][half][:], weights[pos:pos+darkColBlock])
				pos += darkColBlock
			}
		}
	}

	if n := p.nparamsDarkColMean(); n > 0 {
		out.DarkColMeanWeights = append([]float64(nil), weights[pos:pos+n]...)
		pos += n
	}

	out.Offset = weights[pos]

	return out, nil
}

// Parameters derives the hyperparameters from the even half. It returns an
// error if the two halves disagree.
func (m ModelWeights) Parameters() (ModelParameters, error) {
	even, odd := m.WeightsEven.Parameters(), m.WeightsOdd.Parameters()
	if even != odd {
		return even, fmt.Errorf("even weights imply %+v, but odd weights imply %+v", even, odd)
	}

	return even, nil
}
