package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/fitstats/internal/config"
	"github.com/2beens/fitstats/internal/logging"
	"github.com/2beens/fitstats/internal/telemetry/metrics"
	"github.com/2beens/fitstats/internal/telemetry/tracing"
	"github.com/2beens/fitstats/pkg/googlefit"
	"github.com/2beens/fitstats/pkg/googlefit/auth"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type queryParams struct {
	dataType string
	query    string
	date     string
	days     int
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	dataTypeName := flag.String("type", "steps", "data type [steps | weight]")
	query := flag.String("query", "today", "query [today | date | rolling | ago]")
	date := flag.String("date", "", "date for the date query, YYYY-MM-DD")
	days := flag.Int("days", 0, "number of days for the rolling and ago queries (defaults: rolling from config, ago 1)")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		ServiceName:   "fitstats",
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,

		Environment:      *env,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "fitstats",
	})

	err = run(cfg, queryParams{
		dataType: *dataTypeName,
		query:    *query,
		date:     *date,
		days:     *days,
	}, os.Getenv, os.Stdout)
	if err != nil {
		log.Errorf("%s", err)
	}

	// events from the error hook are sent asynchronously
	if cfg.SentryEnabled {
		sentry.Flush(2 * time.Second)
	}
	if err != nil {
		os.Exit(1)
	}
}

// run returns instead of exiting, so its deferred shutdowns always run.
func run(cfg *config.Config, params queryParams, getenv func(string) string, out io.Writer) error {
	dataType, err := googlefit.ParseDataType(params.dataType)
	if err != nil {
		return err
	}

	clientID := getenv("FITSTATS_CLIENT_ID")
	if clientID == "" {
		return errors.New("google client id not set, use FITSTATS_CLIENT_ID")
	}
	clientSecret := getenv("FITSTATS_CLIENT_SECRET")
	if clientSecret == "" {
		return errors.New("google client secret not set, use FITSTATS_CLIENT_SECRET")
	}

	otelShutdown, err := tracing.HoneycombSetup(cfg.HoneycombEnabled, "fitstats")
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer otelShutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	promRegistry := metrics.SetupPrometheus()
	client := googlefit.NewClient(
		clientID,
		clientSecret,
		googlefit.WithFlow(auth.NewLoopbackFlow(cfg.CallbackAddr, out)),
		googlefit.WithResponseCache(cfg.ResponseCacheSize),
		googlefit.WithMetrics(promRegistry, cfg.MetricsNamespace),
	)

	if err := client.Authenticate(ctx, googlefit.AuthParams{
		Scopes:          cfg.AuthScopes,
		CredentialsFile: cfg.CredentialsFile,
	}); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	res, err := runQuery(ctx, client, dataType, params.query, params.date, params.days, cfg.RollingDays)

	if cfg.MetricsTextfile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsTextfile, promRegistry); mErr != nil {
			log.Errorf("%s", mErr)
		}
	}

	if err != nil {
		return fmt.Errorf("%s %s: %w", params.query, dataType, err)
	}

	fmt.Fprintln(out, res)
	return nil
}

func runQuery(
	ctx context.Context,
	client *googlefit.Client,
	dataType googlefit.DataType,
	query, date string,
	days, rollingDays int,
) (googlefit.Result, error) {
	switch query {
	case "today":
		return client.AverageToday(ctx, dataType)
	case "date":
		// parsed in local time, midnights are local
		t, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return googlefit.Result{}, fmt.Errorf("invalid date %q, expected %s: %w", date, dateLayout, err)
		}
		return client.AverageForDate(ctx, dataType, t)
	case "rolling":
		if days <= 0 {
			days = rollingDays
		}
		return client.RollingDailyAverage(ctx, dataType, days)
	case "ago":
		if days <= 0 {
			days = googlefit.DefaultDaysAgo
		}
		return client.AverageForNDaysAgo(ctx, dataType, days)
	default:
		return googlefit.Result{}, fmt.Errorf("unknown query: %s", query)
	}
}
