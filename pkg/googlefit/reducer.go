package googlefit

import (
	"errors"
	"fmt"

	"google.golang.org/api/fitness/v1"
)

var ErrMalformedResponse = errors.New("malformed aggregate response")

// ExtractPoints returns the points of the first dataset in the first bucket.
func ExtractPoints(resp *fitness.AggregateResponse) ([]*fitness.DataPoint, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrMalformedResponse)
	}
	if len(resp.Bucket) == 0 || resp.Bucket[0] == nil {
		return nil, fmt.Errorf("%w: no bucket", ErrMalformedResponse)
	}
	bucket := resp.Bucket[0]
	if len(bucket.Dataset) == 0 || bucket.Dataset[0] == nil {
		return nil, fmt.Errorf("%w: no dataset in bucket", ErrMalformedResponse)
	}
	return bucket.Dataset[0].Point, nil
}

// Reduce folds the response points into one number: the mean for Weight,
// the sum for Steps. An empty point list is NoData, not an error.
func Reduce(dataType DataType, resp *fitness.AggregateResponse) (Result, error) {
	info, err := dataType.info()
	if err != nil {
		return Result{}, err
	}

	points, err := ExtractPoints(resp)
	if err != nil {
		return Result{}, err
	}
	if len(points) == 0 {
		return NoData(), nil
	}

	var sum float64
	for i, p := range points {
		if p == nil || len(p.Value) == 0 || p.Value[0] == nil {
			return Result{}, fmt.Errorf("%w: point %d has no value", ErrMalformedResponse, i)
		}
		v, err := info.numericValue(p.Value[0])
		if err != nil {
			return Result{}, err
		}
		sum += v
	}

	switch dataType {
	case Weight:
		return NewResult(sum / float64(len(points))), nil
	case Steps:
		return NewResult(sum), nil
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownDataType, dataType)
	}
}
