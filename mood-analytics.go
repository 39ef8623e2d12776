// @title Mood-Analytics API
// @version 1.0.0
// @description Mood analytics and correlation API: dashboard, trends, correlations and exports of mood entries
// @license.name BSD 2-Clause "Simplified" License
// @BasePath /analytics
// @accept json
// @produce json
// @schemes https
// @contact.name Diabeloop
// @contact.email platforms@diabeloop.fr

// @securityDefinitions.apikey Auth0
// @in header
// @name Authorization
package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mdblp/go-common/clients/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/tidepool-org/go-common"
	"github.com/tidepool-org/go-common/clients"
	"github.com/tidepool-org/go-common/clients/disc"
	"github.com/tidepool-org/go-common/clients/mongo"
	"github.com/tidepool-org/go-common/clients/opa"
	muxprom "gitlab.com/msvechla/mux-prometheus/pkg/middleware"

	"github.com/mdblp/mood-analytics/api"
	common2 "github.com/mdblp/mood-analytics/common"
	"github.com/mdblp/mood-analytics/infrastructure"
	"github.com/mdblp/mood-analytics/usecase"
)

type (
	// MoodConfig holds the configuration for the `mood-analytics` service
	MoodConfig struct {
		clients.Config
		Service disc.ServiceListing `json:"service"`
		Mongo   mongo.Config        `json:"mongo"`
	}
)

const serviceName = "mood-analytics"

// newS3Client the endpoint url is only set for local stacks (minio, localstack)
func newS3Client(ctx context.Context, logger zerolog.Logger, analyticsConfig *common2.AnalyticsConfig) (*s3.Client, error) {
	url := analyticsConfig.S3EndpointURL
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if url != "" {
			return aws.Endpoint{
				PartitionID:       "aws",
				URL:               url,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})
	if url != "" {
		logger.Info().Str("endpoint", url).Msg("using custom s3 endpoint")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, config.WithEndpointResolverWithOptions(customResolver), config.WithRegion(analyticsConfig.AWSRegion))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsConfig), nil
}

func main() {
	var moodConfig MoodConfig
	logger := common2.NewLogger(serviceName)

	if err := common.LoadEnvironmentConfig(
		[]string{"TIDEPOOL_MOOD_ANALYTICS_SERVICE", "TIDEPOOL_MOOD_ANALYTICS_ENV"},
		&moodConfig,
	); err != nil {
		logger.Fatal().Err(err).Msg("problem loading config")
	}
	analyticsConfig, err := common2.LoadAnalyticsConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("problem loading analytics config")
	}
	moodConfig.Mongo.FromEnv()

	authClient, err := auth.NewClient(analyticsConfig.APISecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth client")
	}
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	httpClient := &http.Client{Transport: tr}
	permsClient := opa.NewClientFromEnv(httpClient)

	/*
	 * Instrumentation setup
	 */
	instrumentation := muxprom.NewCustomInstrumentation(true, "mood", "analytics", prometheus.DefBuckets, nil, prometheus.DefaultRegisterer)

	moodRepository, err := infrastructure.NewMoodMongoRepository(&moodConfig.Mongo, logger, common2.StdLogger(logger, "mongo"))
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo repository")
	}
	defer moodRepository.Close()
	moodRepository.Start()

	rtr := mux.NewRouter()
	rtr.Use(instrumentation.Middleware)
	rtr.Path("/metrics").Handler(promhttp.Handler())

	analytics := usecase.NewMoodAnalytics(logger, moodRepository, analyticsConfig)

	// The asynchronous export needs a bucket, the route answers export_disabled without one
	var exporter api.ExporterUseCase
	if analyticsConfig.ExportBucket != "" {
		s3Client, err := newS3Client(context.Background(), logger, analyticsConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("aws configuration")
		}
		uploader, err := infrastructure.NewS3Uploader(s3Client, analyticsConfig.ExportBucket, serviceName)
		if err != nil {
			logger.Fatal().Err(err).Msg("s3 uploader")
		}
		exporter = usecase.NewExporter(logger, analytics, uploader)
	} else {
		logger.Warn().Msg("MOOD_ANALYTICS_EXPORT_BUCKET is empty, export to S3 disabled")
	}
	exportController := api.NewExportController(logger, exporter, analytics)

	moodAPI := api.InitAPI(exportController, analytics, moodRepository, authClient, permsClient, logger)
	moodAPI.SetHandlers("", rtr)

	// gzip/deflate responses when the client accepts it, exports can be large
	gzipHandler := handlers.CompressHandler(rtr)

	done := make(chan bool)
	server := common.NewServer(&http.Server{
		Addr:     moodConfig.Service.GetPort(),
		Handler:  gzipHandler,
		ErrorLog: common2.StdLogger(logger, "http"),
	})

	var start func() error
	if moodConfig.Service.Scheme == "https" {
		sslSpec := moodConfig.Service.GetSSLSpec()
		start = func() error { return server.ListenAndServeTLS(sslSpec.CertFile, sslSpec.KeyFile) }
	} else {
		start = func() error { return server.ListenAndServe() }
	}
	if err := start(); err != nil {
		logger.Fatal().Err(err).Msg("server start")
	}
	logger.Info().Str("addr", moodConfig.Service.GetPort()).Str("timezone", analyticsConfig.Timezone).Msg("mood-analytics started")

	// Wait for SIGINT (Ctrl+C) or SIGTERM to stop the service
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-sigc
			moodRepository.Close()
			server.Close()
			done <- true
		}
	}()

	<-done
}
