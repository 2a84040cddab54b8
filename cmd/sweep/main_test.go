package main

import (
	"testing"

	"cells/internal/sims/excitable"
)

func TestRunScenarioIsDeterministic(t *testing.T) {
	cfg := excitable.DefaultConfig()
	cfg.Width, cfg.Height = 12, 12
	p := paramSet{recovery: 0.5, reexcite: true, chances: [4]float64{0.1, 0.2, 0.3, 0.4}}

	a := runScenario(cfg, p, 20)
	b := runScenario(cfg, p, 20)
	if a != b {
		t.Fatalf("same seed gave %+v and %+v", a, b)
	}
	if a.meanExcited < 0 || a.meanExcited > 1 {
		t.Fatalf("meanExcited out of range: %v", a.meanExcited)
	}
	if a.lastActive > 20 {
		t.Fatalf("lastActive = %d beyond the run", a.lastActive)
	}
}

func TestSortResults(t *testing.T) {
	all := []scenarioResult{
		{params: paramSet{recovery: 0.25}, lastActive: 5, meanExcited: 0.3},
		{params: paramSet{recovery: 0.5}, lastActive: 9, meanExcited: 0.1},
		{params: paramSet{recovery: 0.75}, lastActive: 9, meanExcited: 0.2},
	}
	sortResults(all)
	if all[0].params.recovery != 0.75 || all[1].params.recovery != 0.5 || all[2].params.recovery != 0.25 {
		t.Fatalf("unexpected order %+v", all)
	}
}
