package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/config"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/http"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	zerolog.SetGlobalLevel(config.LogLevel())

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	svcs := service.New(db, cloudOptions(context.Background())...)
	app := fiber.New()

	httpHandlers.Register(app, svcs)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Bool("cloud", config.UseCloudServices()).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}

// cloudOptions wires the S3 archive and SNS alerts when cloud services are on.
// A client that fails to initialise is left out and the API runs without it.
func cloudOptions(ctx context.Context) []service.Option {
	if !config.UseCloudServices() {
		log.Info().Msg("cloud services disabled")
		return nil
	}

	var opts []service.Option
	if s3c, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket()); err != nil {
		log.Warn().Err(err).Msg("s3 archive unavailable")
	} else {
		opts = append(opts, service.WithArchiver(s3c))
	}

	if arn := config.SNSTopicArn(); arn == "" {
		log.Warn().Msg("AWS_SNS_TOPIC_ARN not set; alerts disabled")
	} else if snsc, err := cloud.NewSNSClient(ctx, config.AWSRegion(), arn); err != nil {
		log.Warn().Err(err).Msg("sns alerts unavailable")
	} else {
		opts = append(opts, service.WithNotifier(snsc))
	}
	return opts
}
