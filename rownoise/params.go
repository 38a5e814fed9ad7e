// Package rownoise fits the per-row noise model used by the recorder's row
// noise removal. Dark frames are turned into one feature row per sensor row
// (lagged green differences and dark column samples), a linear model is fitted
// separately for even and odd rows, and the fitted weights are exported in the
// layout the correction stage reads.
package rownoise

const (
	// NumDarkCols is the number of light-shielded columns on each side of the
	// sensor.
	NumDarkCols = 8

	// BlackLevel is the sensor output at zero light.
	BlackLevel = 128

	// darkColBlock is the number of dark column samples per sensor row.
	darkColBlock = 2 * NumDarkCols
)

// ModelParameters are the hyperparameters of the model. They fix the layout of
// a feature row and the number of fitted coefficients.
type ModelParameters struct {
	// NumGreenLags is the number of green difference lags. 0 disables green
	// differences.
	NumGreenLags int

	// NumDarkColRows selects 2*NumDarkColRows-1 dark column row pairs around
	// each row. 0 disables dark column rows.
	NumDarkColRows int

	// HasDarkColumn adds the per-frame mean of each dark column.
	HasDarkColumn bool
}

// NParams is the number of fitted coefficients, including the offset.
func (p ModelParameters) NParams() int {
	return p.nparamsGreenDiffs() + p.nparamsDarkColRows() + p.nparamsDarkColMean() + 1
}

// NumFeatures is the length of a feature row.
func (p ModelParameters) NumFeatures() int {
	return p.NParams() - 1
}

func (p ModelParameters) nparamsGreenDiffs() int {
	return p.NumGreenLags * 2
}

// numDarkColRowBlocks is the number of row-pair blocks: lag 0, then -1 and +1,
// then -2 and +2, and so on.
func (p ModelParameters) numDarkColRowBlocks() int {
	if p.NumDarkColRows == 0 {
		return 0
	}
	return p.NumDarkColRows*2 - 1
}

func (p ModelParameters) nparamsDarkColRows() int {
	return p.numDarkColRowBlocks() * 2 * darkColBlock
}

func (p ModelParameters) nparamsDarkColMean() int {
	if p.HasDarkColumn {
		return darkColBlock
	}
	return 0
}

// NumUncorrectable is the number of rows at the top and at the bottom of each
// frame whose lagged features would reach outside the frame.
func (p ModelParameters) NumUncorrectable() int {
	return max(p.NumGreenLags, (p.NumDarkColRows-1)*2, 0)
}

// Validate returns a *ConfigError unless the parameters describe at least one
// feature.
func (p ModelParameters) Validate() error {
	if p.NumGreenLags < 0 || p.NumDarkColRows < 0 {
		return &ConfigError{Params: p, Reason: "lag counts must not be negative"}
	}
	if p.NumFeatures() == 0 {
		return &ConfigError{Params: p, Reason: "green lags, dark column rows and the dark column mean are all disabled, cannot fit a model with zero parameters"}
	}

	return nil
}
