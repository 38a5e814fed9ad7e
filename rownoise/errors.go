package rownoise

import "fmt"

// ConfigError reports model parameters that do not describe a usable model.
type ConfigError struct {
	Params ModelParameters
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rownoise: invalid model parameters %+v: %s", e.Params, e.Reason)
}

// FitError reports that the least squares solve for one set of rows failed.
type FitError struct {
	Rows string
	Err  error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("rownoise: fitting %s rows: %v", e.Rows, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }
