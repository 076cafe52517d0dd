package googlefit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/fitstats/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/fitness/v1"
)

// minCacheSize is the smallest size freecache accepts
const minCacheSize = 512 * 1024

// cachedSession keeps responses for windows that are already over.
// Windows reaching into the current day always go to the remote service.
type cachedSession struct {
	next    Session
	cache   *freecache.Cache
	metrics *metrics.Manager
	// cutoffMillis returns the current local midnight in epoch millis
	cutoffMillis func() int64
}

func newCachedSession(next Session, cache *freecache.Cache, m *metrics.Manager, cutoffMillis func() int64) *cachedSession {
	return &cachedSession{
		next:         next,
		cache:        cache,
		metrics:      m,
		cutoffMillis: cutoffMillis,
	}
}

func responseCacheKey(req *fitness.AggregateRequest) []byte {
	var typeName string
	if len(req.AggregateBy) > 0 && req.AggregateBy[0] != nil {
		typeName = req.AggregateBy[0].DataTypeName
	}
	return []byte(fmt.Sprintf("%s::%d::%d", typeName, req.StartTimeMillis, req.EndTimeMillis))
}

func (s *cachedSession) Aggregate(ctx context.Context, req *fitness.AggregateRequest) (*fitness.AggregateResponse, error) {
	if req.EndTimeMillis > s.cutoffMillis() {
		return s.next.Aggregate(ctx, req)
	}

	cacheKey := responseCacheKey(req)
	if respBytes, err := s.cache.Get(cacheKey); err == nil {
		resp := &fitness.AggregateResponse{}
		if err := json.Unmarshal(respBytes, resp); err == nil {
			log.Tracef("aggregate response for %s found in cache", cacheKey)
			s.metrics.CounterCacheHits.Inc()
			return resp, nil
		} else {
			log.Errorf("failed to unmarshal cached aggregate response %s: %s", cacheKey, err)
		}
	}

	resp, err := s.next.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal aggregate response for cache %s: %s", cacheKey, err)
		return resp, nil
	}
	// no expiry, the window is closed
	if err := s.cache.Set(cacheKey, respBytes, 0); err != nil {
		log.Errorf("failed to cache aggregate response %s: %s", cacheKey, err)
	} else {
		log.Debugf("aggregate response cached: %s", cacheKey)
	}

	return resp, nil
}
