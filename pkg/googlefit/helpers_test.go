package googlefit_test

import (
	"testing"

	"go.uber.org/goleak"
	"google.golang.org/api/fitness/v1"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func aggregateResponse(values ...*fitness.Value) *fitness.AggregateResponse {
	points := make([]*fitness.DataPoint, 0, len(values))
	for _, v := range values {
		points = append(points, &fitness.DataPoint{
			Value: []*fitness.Value{v},
		})
	}
	return &fitness.AggregateResponse{
		Bucket: []*fitness.AggregateBucket{
			{Dataset: []*fitness.Dataset{{Point: points}}},
		},
	}
}

func weightResponse(kilos ...float64) *fitness.AggregateResponse {
	values := make([]*fitness.Value, 0, len(kilos))
	for _, k := range kilos {
		values = append(values, &fitness.Value{FpVal: k})
	}
	return aggregateResponse(values...)
}

func stepsResponse(steps ...int64) *fitness.AggregateResponse {
	values := make([]*fitness.Value, 0, len(steps))
	for _, s := range steps {
		values = append(values, &fitness.Value{IntVal: s})
	}
	return aggregateResponse(values...)
}
