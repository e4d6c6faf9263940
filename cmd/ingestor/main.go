package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/cloud"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/config"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/database"
	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/service"
)

func main() {
	review := flag.String("review", "", "run the daily over-limit review for `YYYY-MM-DD` and exit")
	resync := flag.String("resync", "", "copy a `meter`'s stored segments to DynamoDB and exit")
	restore := flag.String("restore", "", "restore a `meter`'s missing segments from DynamoDB and exit")
	since := flag.Duration("since", 24*time.Hour, "window for -resync and -restore")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs := service.New(db, cloudOptions(ctx)...)

	switch {
	case *review != "":
		day, err := time.Parse(time.DateOnly, *review)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -review day")
		}
		over, err := svcs.Samples.ReviewDay(ctx, day)
		if err != nil {
			log.Fatal().Err(err).Msg("review failed")
		}
		for _, r := range over {
			log.Info().Str("meter", r.MeterID).Float64("lex", r.Exposure.LEX).Msg("over limit")
		}
		return
	case *resync != "":
		n, err := svcs.Samples.ResyncMirror(ctx, *resync, time.Now().Add(-*since))
		if err != nil {
			log.Fatal().Err(err).Msg("resync failed")
		}
		log.Info().Str("meter", *resync).Int("segments", n).Msg("mirror resynced")
		return
	case *restore != "":
		n, err := svcs.Samples.RestoreFromMirror(ctx, *restore, time.Now().Add(-*since))
		if err != nil {
			log.Fatal().Err(err).Msg("restore failed")
		}
		log.Info().Str("meter", *restore).Int("segments", n).Msg("segments restored")
		return
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID("noise-ingestor-" + uuid.NewString()).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := svcs.Samples.FromMQTT(ctx, msg.Topic(), msg.Payload()); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
		}
	}

	topic := config.MQTTTopic() + "/#"
	if token := client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", topic).Msg("ingestor running; Ctrl+C to stop")
	reviewDaily(ctx, svcs.Samples)
	log.Info().Msg("ingestor stopped")
}

// reviewDaily reviews the previous UTC day shortly after each midnight until
// ctx is done.
func reviewDaily(ctx context.Context, samples *service.SampleService) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 5, 0, 0, time.UTC)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := samples.ReviewDay(ctx, next.AddDate(0, 0, -1)); err != nil {
				log.Error().Err(err).Msg("daily review failed")
			}
		}
	}
}

// cloudOptions wires the DynamoDB segment mirror and SNS alerts when cloud
// services are on.
func cloudOptions(ctx context.Context) []service.Option {
	if !config.UseCloudServices() {
		return nil
	}

	var opts []service.Option
	if ddb, err := cloud.NewDynamoDBClient(ctx, config.AWSRegion(), config.DynamoDBTable()); err != nil {
		log.Warn().Err(err).Msg("dynamodb mirror unavailable")
	} else {
		opts = append(opts, service.WithSegmentMirror(ddb))
	}

	if arn := config.SNSTopicArn(); arn != "" {
		if snsc, err := cloud.NewSNSClient(ctx, config.AWSRegion(), arn); err != nil {
			log.Warn().Err(err).Msg("sns alerts unavailable")
		} else {
			opts = append(opts, service.WithNotifier(snsc))
		}
	}
	return opts
}
