// Package correlation measures how crisis events line up with moves in
// crypto price series around the event date.
package correlation

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"p2p-crisis-collector/internal/logging"
	"p2p-crisis-collector/internal/models"
)

// DefaultWindowDays is the half-width of the analysis window.
const DefaultWindowDays = 30

// Engine computes pre/post window statistics for event and series
// pairings. All date comparisons happen in UTC; series points are
// normalized to UTC midnights on ingest.
type Engine struct {
	log        zerolog.Logger
	windowDays int
}

func NewEngine(log zerolog.Logger, windowDays int) *Engine {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Engine{
		log:        logging.WithOperation(log, "correlation"),
		windowDays: windowDays,
	}
}

// Correlate produces one result per (event, instrument) pair. Pairs
// where either window side has no observations are skipped and logged,
// never emitted as zero rows.
func (e *Engine) Correlate(events []models.CrisisEvent, seriesByInstrument map[string][]models.PricePoint) []models.CorrelationResult {
	var results []models.CorrelationResult

	instruments := make([]string, 0, len(seriesByInstrument))
	for name := range seriesByInstrument {
		instruments = append(instruments, name)
	}
	sort.Strings(instruments)

	for _, ev := range events {
		eventDay := ev.Date.UTC().Truncate(24 * time.Hour)

		for _, instrument := range instruments {
			series := normalize(seriesByInstrument[instrument])
			pre, post := split(series, eventDay, e.windowDays)

			if len(pre) == 0 || len(post) == 0 {
				e.log.Debug().
					Str("event", ev.Title).
					Str("instrument", instrument).
					Int("pre_points", len(pre)).
					Int("post_points", len(post)).
					Msg("window side empty, skipping pair")
				continue
			}

			preMean := mean(pre)
			postMean := mean(post)
			preVol := volatility(pre)
			postVol := volatility(post)

			priceChange := 0.0
			if preMean != 0 {
				priceChange = (postMean - preMean) / preMean * 100
			}
			volChange := 0.0
			if preVol != 0 {
				volChange = (postVol - preVol) / preVol * 100
			}

			results = append(results, models.CorrelationResult{
				EventDate:           ev.Date,
				CountryCode:         ev.CountryCode,
				EventType:           ev.EventType,
				EventTitle:          ev.Title,
				ImpactSeverity:      ev.ImpactSeverity,
				Instrument:          instrument,
				PreMean:             preMean,
				PostMean:            postMean,
				PriceChangePct:      priceChange,
				PreVolatility:       preVol,
				PostVolatility:      postVol,
				VolatilityChangePct: volChange,
				PrePoints:           len(pre),
				PostPoints:          len(post),
			})
		}
	}
	return results
}

// normalize forces every point's date onto a UTC midnight and sorts by
// date. Mixed-zone inputs would otherwise make the window split
// order-dependent.
func normalize(series []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, len(series))
	copy(out, series)
	for i := range out {
		out[i].Date = models.Date{Time: out[i].Date.UTC().Truncate(24 * time.Hour)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// split partitions the window [event-w, event+w] into closes strictly
// before the event day and closes on or after it.
func split(series []models.PricePoint, eventDay time.Time, windowDays int) (pre, post []float64) {
	w := time.Duration(windowDays) * 24 * time.Hour
	lo := eventDay.Add(-w)
	hi := eventDay.Add(w)

	for _, p := range series {
		d := p.Date.Time
		if d.Before(lo) || d.After(hi) {
			continue
		}
		if d.Before(eventDay) {
			pre = append(pre, p.Close)
		} else {
			post = append(post, p.Close)
		}
	}
	return pre, post
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// volatility is the coefficient of variation in percent: population
// standard deviation over mean, times 100. A flat series has zero.
func volatility(xs []float64) float64 {
	m := mean(xs)
	if m == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(xs)))
	return sd / m * 100
}
