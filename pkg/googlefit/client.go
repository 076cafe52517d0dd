// Package googlefit computes daily averages and totals of Google Fit data
// (body weight, step counts) through the aggregate dataset endpoint.
//
// Day boundaries are local midnights of the client's location, time.Local by
// default. The remote service is queried with absolute timestamps derived from
// those midnights, so the same call gives different windows in different time zones.
package googlefit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/2beens/fitstats/internal/telemetry/metrics"
	"github.com/2beens/fitstats/internal/telemetry/tracing"
	"github.com/2beens/fitstats/pkg/googlefit/auth"

	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/fitness/v1"
	"google.golang.org/api/option"
)

const (
	DefaultCredentialsFile = ".google_fit_credentials"
	DefaultRollingDays     = 7
	DefaultDaysAgo         = 1

	metricsSubsystem = "googlefit"
)

var ErrNotAuthenticated = errors.New("not authenticated, call Authenticate first")

// DefaultScopes returns the read scopes for body, activity and nutrition data.
// A new slice is returned on every call.
func DefaultScopes() []string {
	return []string{
		fitness.FitnessBodyReadScope,
		fitness.FitnessActivityReadScope,
		fitness.FitnessNutritionReadScope,
	}
}

type Client struct {
	clientID     string
	clientSecret string

	mutex   sync.Mutex
	session Session

	now            func() time.Time
	location       *time.Location
	metrics        *metrics.Manager
	cache          *freecache.Cache
	flow           auth.Flow
	httpClient     *http.Client
	serviceOptions []option.ClientOption
}

type ClientOption func(c *Client)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithLocation sets the location whose midnights delimit days.
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) {
		c.location = loc
	}
}

// WithMetrics registers the client metrics with reg under the given namespace.
func WithMetrics(reg prometheus.Registerer, namespace string) ClientOption {
	return func(c *Client) {
		c.metrics = metrics.NewManager(namespace, metricsSubsystem, reg)
	}
}

// WithResponseCache keeps responses of windows that ended before today in memory.
// sizeBytes below freecache's minimum is raised to it; 0 disables the cache.
func WithResponseCache(sizeBytes int) ClientOption {
	return func(c *Client) {
		if sizeBytes <= 0 {
			c.cache = nil
			return
		}
		if sizeBytes < minCacheSize {
			sizeBytes = minCacheSize
		}
		c.cache = freecache.NewCache(sizeBytes)
	}
}

// WithFlow sets the interactive flow run when no stored token can be used.
func WithFlow(flow auth.Flow) ClientOption {
	return func(c *Client) {
		c.flow = flow
	}
}

// WithHTTPClient sets the client used for token requests and as the base
// of the authorized transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithServiceOptions are passed on to fitness.NewService, e.g. option.WithEndpoint.
func WithServiceOptions(opts ...option.ClientOption) ClientOption {
	return func(c *Client) {
		c.serviceOptions = append(c.serviceOptions, opts...)
	}
}

// WithSession uses an already authorized session, skipping Authenticate.
func WithSession(session Session) ClientOption {
	return func(c *Client) {
		c.session = session
	}
}

func NewClient(clientID, clientSecret string, opts ...ClientOption) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
		location:     time.Local,
		flow:         auth.NewLoopbackFlow(auth.DefaultCallbackAddr, os.Stdout),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewManager("fitstats", metricsSubsystem, prometheus.NewRegistry())
	}
	// a session given up front gets the same caching as one from Authenticate
	if c.session != nil {
		c.session = c.wrapSession(c.session)
	}
	return c
}

type AuthParams struct {
	// Scopes default to DefaultScopes()
	Scopes []string
	// CredentialsFile defaults to DefaultCredentialsFile
	CredentialsFile string
}

// Authenticate establishes the session used by all queries. A stored token
// is reused when possible, otherwise the interactive flow runs and the new
// token is stored in the credentials file.
func (c *Client) Authenticate(ctx context.Context, params AuthParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googlefit.authenticate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	scopes := params.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	credentialsFile := params.CredentialsFile
	if credentialsFile == "" {
		credentialsFile = DefaultCredentialsFile
	}

	authenticator := auth.NewAuthenticator(auth.Params{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Scopes:       scopes,
		Store:        auth.NewFileTokenStore(credentialsFile),
		Flow:         c.flow,
		HTTPClient:   c.httpClient,
	})

	httpClient, err := authenticator.Client(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	serviceOptions := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.serviceOptions...)
	service, err := fitness.NewService(ctx, serviceOptions...)
	if err != nil {
		return fmt.Errorf("unable to create fitness service: %w", err)
	}

	c.mutex.Lock()
	c.session = c.wrapSession(newFitnessSession(service))
	c.mutex.Unlock()

	log.Debugf("authenticated, credentials file: %s", credentialsFile)
	return nil
}

func (c *Client) wrapSession(session Session) Session {
	if c.cache == nil {
		return session
	}
	return newCachedSession(session, c.cache, c.metrics, func() int64 {
		return toEpochMillis(startOfDay(c.now(), c.location))
	})
}

func (c *Client) getSession() (Session, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.session == nil {
		return nil, ErrNotAuthenticated
	}
	return c.session, nil
}

// AverageToday covers the current local day, from midnight to the next midnight.
func (c *Client) AverageToday(ctx context.Context, dataType DataType) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googlefit.averageToday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	window := DayWindow(c.now(), c.location)
	return c.averageForWindow(ctx, dataType, window)
}

// AverageForDate covers the local calendar day of date; time of day is ignored.
func (c *Client) AverageForDate(ctx context.Context, dataType DataType, date time.Time) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googlefit.averageForDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	window := DayWindow(date, c.location)
	return c.averageForWindow(ctx, dataType, window)
}

// RollingDailyAverage covers the n full days before today, today excluded.
// Steps are summed over the window and divided by n. Weight is already a mean
// over the window points and is returned as is.
func (c *Client) RollingDailyAverage(ctx context.Context, dataType DataType, n int) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googlefit.rollingDailyAverage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if n < 1 {
		return Result{}, fmt.Errorf("rolling average needs at least one day, got %d", n)
	}

	window := TrailingDaysWindow(c.now(), n, c.location)
	res, err := c.averageForWindow(ctx, dataType, window)
	if err != nil {
		return Result{}, err
	}

	if dataType == Steps {
		return res.divide(n), nil
	}
	return res, nil
}

// AverageForNDaysAgo is AverageForDate for the day n days before now.
func (c *Client) AverageForNDaysAgo(ctx context.Context, dataType DataType, n int) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googlefit.averageForNDaysAgo")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return c.AverageForDate(ctx, dataType, DaysAgo(c.now(), n, c.location))
}

func (c *Client) averageForWindow(ctx context.Context, dataType DataType, window Window) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "googlefit.averageForWindow")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	info, err := dataType.info()
	if err != nil {
		return Result{}, err
	}

	session, err := c.getSession()
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("data_type", info.name),
		attribute.String("window_start", window.Start.Format(time.RFC3339)),
		attribute.String("window_end", window.End.Format(time.RFC3339)),
	)

	start := time.Now()
	status := metrics.StatusError
	defer func() {
		c.metrics.ObserveQuery(info.label, status, time.Since(start).Seconds())
	}()

	log.Tracef("aggregate %s for [%s, %s)", info.name, window.Start, window.End)
	resp, err := session.Aggregate(ctx, BuildRequest(info.name, window.Start, window.End))
	if err != nil {
		return Result{}, err
	}

	res, err := Reduce(dataType, resp)
	if err != nil {
		return Result{}, err
	}

	if res.HasData() {
		status = metrics.StatusOK
	} else {
		status = metrics.StatusNoData
		log.Debugf("no %s data found for [%s, %s)", info.label, window.Start, window.End)
	}

	return res, nil
}
