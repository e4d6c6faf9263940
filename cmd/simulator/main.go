package main

import (
	"encoding/json"
	"flag"
	"math/rand/v2"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/config"
)

type Segment struct {
	MeterID   string    `json:"meter_id"`
	Activity  string    `json:"activity"`
	StartedAt time.Time `json:"started_at"`
	LEQ       float64   `json:"leq"`
	Minutes   float64   `json:"minutes"`
	Peak      float64   `json:"peak"`
}

// typical LEQ ranges in dB(A) for a metalworking shop
var activities = []struct {
	name     string
	min, max float64
}{
	{"Angle grinding", 92, 100},
	{"Lathe turning", 82, 88},
	{"Sheet metal press", 88, 95},
	{"Assembly", 74, 80},
	{"Forklift driving", 78, 84},
	{"Office work", 55, 65},
}

func main() {
	meters := flag.String("meters", "slm-01,slm-02,slm-03", "comma separated meter ids")
	shift := flag.Duration("shift", 8*time.Hour, "length of the simulated shift")
	delay := flag.Duration("delay", 200*time.Millisecond, "pause between published segments")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID("noise-simulator-" + uuid.NewString())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, time.UTC)
	published := 0

	for _, meter := range strings.Split(*meters, ",") {
		meter = strings.TrimSpace(meter)
		if meter == "" {
			continue
		}
		for _, seg := range shiftSegments(meter, start, *shift) {
			payload, err := json.Marshal(seg)
			if err != nil {
				log.Fatal().Err(err).Msg("encode segment")
			}
			token := client.Publish(config.MQTTTopic()+"/"+meter, 1, false, payload)
			if token.Wait() && token.Error() != nil {
				log.Error().Err(token.Error()).Str("meter", meter).Msg("publish failed")
				continue
			}
			published++
			time.Sleep(*delay)
		}
	}
	log.Info().Int("segments", published).Msg("simulation done")
}

// shiftSegments splits a shift into 15-90 minute activity segments.
func shiftSegments(meter string, start time.Time, shift time.Duration) []Segment {
	var out []Segment
	total := shift.Minutes()
	for elapsed := 0.0; elapsed < total; {
		minutes := min(float64(15+rand.IntN(76)), total-elapsed)
		a := activities[rand.IntN(len(activities))]
		leq := a.min + rand.Float64()*(a.max-a.min)
		out = append(out, Segment{
			MeterID:   meter,
			Activity:  a.name,
			StartedAt: start.Add(time.Duration(elapsed) * time.Minute),
			LEQ:       float64(int(leq*10)) / 10,
			Minutes:   minutes,
			Peak:      float64(int((leq+25+rand.Float64()*15)*10)) / 10,
		})
		elapsed += minutes
	}
	return out
}
