package game

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/dualnback/internal/generator"
	"github.com/verte-zerg/dualnback/internal/model"
)

// Simulate plays a full session with a player who presses each match key
// with probability pressProb, and returns the finished record. The record
// is stamped as if it ended at endedAt.
func Simulate(gen *generator.Generator, rnd *rand.Rand, settings model.Settings, audioSymbols []string, pressProb float64, endedAt time.Time) (model.SessionRecord, error) {
	s := NewSession()
	duration := time.Duration(ClampLength(settings.SessionLength)*settings.SpeedMs) * time.Millisecond
	s.now = func() time.Time { return endedAt.Add(-duration) }
	if err := s.Start(gen, settings, audioSymbols); err != nil {
		return model.SessionRecord{}, err
	}
	s.now = func() time.Time { return endedAt }
	for s.State() == StateRunning {
		s.ProcessResponse(model.Response{
			VisualMatch: rnd.Float64() < pressProb,
			AudioMatch:  rnd.Float64() < pressProb,
		})
	}
	return s.Record()
}

// RandomSettings draws settings in the ranges used for generated history.
func RandomSettings(rnd *rand.Rand, audioSet string) model.Settings {
	return model.Settings{
		NLevel:        2 + rnd.Intn(3),
		SpeedMs:       2000 + rnd.Intn(1001),
		SessionLength: 20 + rnd.Intn(11),
		AudioSet:      audioSet,
	}
}
