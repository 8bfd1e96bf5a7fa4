package errors

import (
	stderrs "errors"
	"fmt"
)

// LowValueError reports a computed quantity that fell under its configured minimum
type LowValueError struct {
	Metric    string
	Value     float64
	Threshold float64
}

func (e *LowValueError) Error() string {
	return fmt.Sprintf("%s %g is lower than minimum %g", e.Metric, e.Value, e.Threshold)
}

// LowValue returns an *Error with ErrorCodeLowValue whose field is the metric name
func LowValue(metric string, value, threshold float64) error {
	return &Error{
		code:  ErrorCodeLowValue,
		msg:   "low value",
		field: metric,
		orig:  &LowValueError{Metric: metric, Value: value, Threshold: threshold},
	}
}

// AsLowValue extracts the low value details from err
func AsLowValue(err error) (*LowValueError, bool) {
	var lv *LowValueError
	if stderrs.As(err, &lv) {
		return lv, true
	}
	return nil, false
}
