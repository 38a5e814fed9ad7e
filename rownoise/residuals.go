package rownoise

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// ResidualRow is one line of the residual table.
type ResidualRow struct {
	Frame       int     `csv:"frame"`
	Row         int     `csv:"row"`
	Parity      string  `csv:"parity"`
	Correctable bool    `csv:"correctable"`
	Target      float64 `csv:"target"`
	Fitted      float64 `csv:"fitted"`
	Residual    float64 `csv:"residual"`
}

// Residuals applies weights to every row of ds.
func Residuals(ds *Dataset, weights ModelWeights) ([]*ResidualRow, error) {
	fitted, err := Predict(ds, weights)
	if err != nil {
		return nil, err
	}

	out := make([]*ResidualRow, 0, ds.Len())
	for i, target := range ds.RowMeans {
		parity := "even"
		if ds.SensorRow(i)%2 == 1 {
			parity = "odd"
		}
		out = append(out, &ResidualRow{
			Frame:       ds.Frame(i),
			Row:         ds.SensorRow(i),
			Parity:      parity,
			Correctable: ds.Correctable(i),
			Target:      target,
			Fitted:      fitted[i],
			Residual:    target - fitted[i],
		})
	}

	return out, nil
}

// WriteResiduals writes the residual table as tab delimited text with a
// header line.
func WriteResiduals(w io.Writer, ds *Dataset, weights ModelWeights) error {
	rows, err := Residuals(ds, weights)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw))
}

