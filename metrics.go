/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package bpstrong

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// selectorDecisionsTotal counts Select calls by result.
	// Labels: result (branched, cutoff, nocandidate, didnotrun)
	selectorDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bpstrong",
		Subsystem: "selector",
		Name:      "decisions_total",
		Help:      "Total branching decisions by result",
	}, []string{"result"})

	// selectorSurvivors observes the number of candidates kept per phase.
	// Labels: phase (0, 1, 2)
	selectorSurvivors = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bpstrong",
		Subsystem: "selector",
		Name:      "survivors",
		Help:      "Number of candidates surviving each phase",
		Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
	}, []string{"phase"})

	// probingProbesTotal counts probes of a single branching direction.
	// Labels: direction (down, up), pricing (true, false)
	probingProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bpstrong",
		Subsystem: "probing",
		Name:      "probes_total",
		Help:      "Total probes by direction and pricing",
	}, []string{"direction", "pricing"})

	// probingOutcomesTotal counts probe results.
	// Labels: outcome (valid, unsolved, infeasible, cutoff, error)
	probingOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bpstrong",
		Subsystem: "probing",
		Name:      "outcomes_total",
		Help:      "Total probe outcomes",
	}, []string{"outcome"})

	probingCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bpstrong",
		Subsystem: "probing",
		Name:      "cache_hits_total",
		Help:      "Total strong branching scores reused instead of probing",
	})
)

func recordDecision(r Result) {
	selectorDecisionsTotal.WithLabelValues(r.String()).Inc()
}

func recordSurvivors(phase, n int) {
	selectorSurvivors.WithLabelValues(strconv.Itoa(phase)).Observe(float64(n))
}

func recordProbe(dir direction, usePricing bool, outcome string) {
	probingProbesTotal.WithLabelValues(dir.String(), strconv.FormatBool(usePricing)).Inc()
	probingOutcomesTotal.WithLabelValues(outcome).Inc()
}

func recordCacheHit() {
	probingCacheHitsTotal.Inc()
}
