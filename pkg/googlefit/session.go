package googlefit

import (
	"context"
	"fmt"

	"google.golang.org/api/fitness/v1"
)

// userID is the implicit authenticated user
const userID = "me"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=googlefit_test

// Session executes aggregate queries against the remote service on behalf of one user.
type Session interface {
	Aggregate(ctx context.Context, req *fitness.AggregateRequest) (*fitness.AggregateResponse, error)
}

type fitnessSession struct {
	service *fitness.Service
}

func newFitnessSession(service *fitness.Service) *fitnessSession {
	return &fitnessSession{
		service: service,
	}
}

func (s *fitnessSession) Aggregate(ctx context.Context, req *fitness.AggregateRequest) (*fitness.AggregateResponse, error) {
	resp, err := s.service.Users.Dataset.
		Aggregate(userID, req).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("aggregate dataset: %w", err)
	}
	return resp, nil
}
