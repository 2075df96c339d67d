package optimizer

import "math/rand"

// searchState runs a tiny, self-contained genetic-algorithm search
// (population, generations, mutation, elitism) over the two multipliers the
// tiered path computes analytically. It never touches historical OHLCV data
// or a backtesting engine — its fitness function is the same performance
// window the tiered path reads, scored for the candidate that would have
// produced the best efficiency/drawdown trade-off.
type searchState struct {
	rng         *rand.Rand
	generations int
	population  int
	eliteSize   int
	mutationRate float64
}

type candidate struct {
	spacingMult float64
	sizeMult    float64
	fitness     float64
}

func newSearchState(cfg Config) *searchState {
	return &searchState{
		rng:          rand.New(rand.NewSource(1)),
		generations:  12,
		population:   20,
		eliteSize:    4,
		mutationRate: 0.2,
	}
}

// suggest runs a bounded GA search seeded from the current performance
// window and returns the best candidate's implied spacing/size, pre-clamp
// (the caller applies the absolute bounds uniformly for both modes).
func (s *searchState) suggest(cfg Config, perf PerformanceWindow) Output {
	pop := s.seedPopulation(cfg)
	for g := 0; g < s.generations; g++ {
		for i := range pop {
			pop[i].fitness = fitness(cfg, perf, pop[i])
		}
		sortByFitnessDesc(pop)
		next := make([]candidate, 0, s.population)
		next = append(next, pop[:s.eliteSize]...)
		for len(next) < s.population {
			parentA := pop[s.rng.Intn(s.eliteSize)]
			parentB := pop[s.rng.Intn(s.eliteSize)]
			child := candidate{
				spacingMult: (parentA.spacingMult + parentB.spacingMult) / 2,
				sizeMult:    (parentA.sizeMult + parentB.sizeMult) / 2,
			}
			if s.rng.Float64() < s.mutationRate {
				child.spacingMult *= 1 + (s.rng.Float64()-0.5)*0.3
			}
			if s.rng.Float64() < s.mutationRate {
				child.sizeMult *= 1 + (s.rng.Float64()-0.5)*0.3
			}
			next = append(next, child)
		}
		pop = next
	}
	for i := range pop {
		pop[i].fitness = fitness(cfg, perf, pop[i])
	}
	sortByFitnessDesc(pop)
	best := pop[0]
	return Output{
		SpacingPercent: cfg.BaseSpacingPercent * best.spacingMult,
		PositionSize:   cfg.BasePositionSize * best.sizeMult,
	}
}

func (s *searchState) seedPopulation(cfg Config) []candidate {
	pop := make([]candidate, s.population)
	for i := range pop {
		pop[i] = candidate{
			spacingMult: 0.5 + s.rng.Float64()*1.5,
			sizeMult:    0.5 + s.rng.Float64()*1.5,
		}
	}
	return pop
}

// fitness rewards candidates whose implied spacing/size would have improved
// efficiency without amplifying drawdown — a proxy since no forward
// simulation is available without the (out-of-scope) backtest engine.
func fitness(cfg Config, perf PerformanceWindow, c candidate) float64 {
	efficiency := 0.0
	if perf.PlacedOrders > 0 {
		efficiency = float64(perf.FilledOrders) / float64(perf.PlacedOrders)
	}
	// Wider spacing under high drawdown is rewarded; larger size when
	// efficient is rewarded; extreme multipliers are penalized.
	drawdownFit := c.spacingMult * perf.DrawdownPct
	efficiencyFit := c.sizeMult * efficiency
	extremityPenalty := (c.spacingMult-1)*(c.spacingMult-1) + (c.sizeMult-1)*(c.sizeMult-1)
	return drawdownFit + efficiencyFit - 0.1*extremityPenalty
}

func sortByFitnessDesc(pop []candidate) {
	// insertion sort: population sizes here are tiny (≤ ~20)
	for i := 1; i < len(pop); i++ {
		for j := i; j > 0 && pop[j].fitness > pop[j-1].fitness; j-- {
			pop[j], pop[j-1] = pop[j-1], pop[j]
		}
	}
}
