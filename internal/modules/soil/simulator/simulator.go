// Package simulator produces plausible soil readings for exercising the
// ingest path without field hardware.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"soilmon/internal/modules/soil/types"
)

type bounds struct{ min, max, step float64 }

var (
	nitrogenBounds   = bounds{min: 5, max: 200, step: 3}
	phosphorusBounds = bounds{min: 5, max: 150, step: 2}
	potassiumBounds  = bounds{min: 10, max: 300, step: 4}
	phBounds         = bounds{min: 4, max: 9, step: 0.3}
)

// Walker is a bounded random walk over the four soil fields. It never emits
// a zero value, which the validator would treat as missing.
type Walker struct {
	rng  *rand.Rand
	last types.Sample
}

func NewWalker(seed uint64) *Walker {
	return &Walker{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		last: types.Sample{Nitrogen: 40, Phosphorus: 25, Potassium: 120, PH: 6.5},
	}
}

// Next advances every field by a random step and returns the new reading.
func (w *Walker) Next() types.Sample {
	w.last = types.Sample{
		Nitrogen:   w.step(w.last.Nitrogen, nitrogenBounds),
		Phosphorus: w.step(w.last.Phosphorus, phosphorusBounds),
		Potassium:  w.step(w.last.Potassium, potassiumBounds),
		PH:         w.step(w.last.PH, phBounds),
	}
	return w.last
}

func (w *Walker) step(v float64, b bounds) float64 {
	v += (w.rng.Float64()*2 - 1) * b.step
	v = math.Min(math.Max(v, b.min), b.max)
	return math.Round(v*100) / 100
}

// Publisher is satisfied by the MQTT publisher.
type Publisher interface {
	Publish(payload []byte) error
}

// Run publishes count readings (forever when count <= 0) every interval
// until ctx is done. Publish errors are logged and the loop continues.
func Run(ctx context.Context, pub Publisher, w *Walker, interval time.Duration, count int, logger *slog.Logger) (int, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for count <= 0 || sent < count {
		s := w.Next()
		payload, err := json.Marshal(s)
		if err != nil {
			return sent, fmt.Errorf("marshal reading: %w", err)
		}
		if err := pub.Publish(payload); err != nil {
			logger.Warn("publish reading failed", "error", err)
		} else {
			sent++
			logger.Info("published reading",
				"nitrogen", s.Nitrogen,
				"phosphorus", s.Phosphorus,
				"potassium", s.Potassium,
				"ph", s.PH,
			)
		}
		if count > 0 && sent >= count {
			break
		}

		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-ticker.C:
		}
	}
	return sent, nil
}
