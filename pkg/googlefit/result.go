package googlefit

import "strconv"

const noDataMessage = "no data found"

// Result is either a number or "no data". Callers must check HasData
// (or the second return of Value) before doing arithmetic with it.
type Result struct {
	value float64
	found bool
}

func NewResult(value float64) Result {
	return Result{value: value, found: true}
}

func NoData() Result {
	return Result{}
}

func (r Result) Value() (float64, bool) {
	return r.value, r.found
}

func (r Result) HasData() bool {
	return r.found
}

// divide keeps "no data" as is.
func (r Result) divide(n int) Result {
	if !r.found {
		return r
	}
	return NewResult(r.value / float64(n))
}

func (r Result) String() string {
	if !r.found {
		return noDataMessage
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}
