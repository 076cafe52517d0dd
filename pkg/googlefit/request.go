package googlefit

import (
	"time"

	"google.golang.org/api/fitness/v1"
)

// BuildRequest makes an aggregate request for a single data type over [start, end).
// The fitness client encodes the millis as decimal strings on the wire.
// start is expected to be before end, it is not checked here.
func BuildRequest(dataTypeName string, start, end time.Time) *fitness.AggregateRequest {
	return &fitness.AggregateRequest{
		AggregateBy: []*fitness.AggregateBy{
			{DataTypeName: dataTypeName},
		},
		StartTimeMillis: toEpochMillis(start),
		EndTimeMillis:   toEpochMillis(end),
	}
}

// toEpochMillis drops sub-second precision before scaling to millis
func toEpochMillis(t time.Time) int64 {
	return t.Unix() * 1000
}
