package main

import (
	"flag"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"cells/internal/sims/excitable"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type paramSet struct {
	recovery float64
	reexcite bool
	chances  [4]float64
}

func (p paramSet) String() string {
	if !p.reexcite {
		return fmt.Sprintf("recovery=%.2f reexcite=off", p.recovery)
	}
	return fmt.Sprintf("recovery=%.2f reexcite=%.2f/%.2f/%.2f/%.2f",
		p.recovery, p.chances[0], p.chances[1], p.chances[2], p.chances[3])
}

type scenarioResult struct {
	params      paramSet
	lastActive  int
	meanExcited float64
	peakExcited int
}

func main() {
	steps := flag.Int("steps", 200, "generations to simulate per scenario")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	width := flag.Int("w", 64, "grid width")
	height := flag.Int("h", 64, "grid height")
	seed := flag.Int64("seed", 1337, "seed used for every scenario")
	top := flag.Int("top", 5, "results to print")
	var overrides kvList
	flag.Var(&overrides, "set", "base config override in key=value form (repeatable)")
	flag.Parse()

	base := map[string]string{
		"w":    strconv.Itoa(*width),
		"h":    strconv.Itoa(*height),
		"seed": strconv.FormatInt(*seed, 10),
	}
	for _, kv := range overrides {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		base[parts[0]] = parts[1]
	}
	baseCfg := excitable.FromMap(base)

	recoveryOptions := []float64{0.25, 0.5, 0.75, 1.0}
	chanceOptions := [][4]float64{
		{0.1, 0.2, 0.3, 0.4},
		{0.05, 0.1, 0.15, 0.2},
		{0.2, 0.4, 0.6, 0.8},
	}

	var sets []paramSet
	for _, rec := range recoveryOptions {
		sets = append(sets, paramSet{recovery: rec, chances: baseCfg.Params.ReexciteChance})
		for _, ch := range chanceOptions {
			sets = append(sets, paramSet{recovery: rec, reexcite: true, chances: ch})
		}
	}

	fmt.Printf("Sweeping %d parameter sets (%d workers, %d steps, %dx%d)\n", len(sets), *workers, *steps, baseCfg.Width, baseCfg.Height)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runScenario(baseCfg, params, *steps)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	for res := range results {
		all = append(all, res)
	}
	sortResults(all)
	elapsed := time.Since(start)

	fmt.Printf("\nTop %d results (elapsed %s):\n", *top, elapsed.Round(time.Millisecond))
	for i := 0; i < len(all) && i < *top; i++ {
		res := all[i]
		fmt.Printf("%2d) lastActive=%d meanExcited=%.4f peak=%d params=%s\n",
			i+1, res.lastActive, res.meanExcited, res.peakExcited, res.params)
	}
}

// sortResults ranks longer-lived activity first, then denser activity.
func sortResults(all []scenarioResult) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].lastActive != all[j].lastActive {
			return all[i].lastActive > all[j].lastActive
		}
		if all[i].meanExcited != all[j].meanExcited {
			return all[i].meanExcited > all[j].meanExcited
		}
		return all[i].params.String() < all[j].params.String()
	})
}

func runScenario(base excitable.Config, params paramSet, steps int) scenarioResult {
	cfg := base
	cfg.Params.RecoveryChance = params.recovery
	cfg.Params.Reexcite = params.reexcite
	cfg.Params.ReexciteChance = params.chances

	m := excitable.NewWithConfig(cfg)
	m.Reset(cfg.Seed)

	cells := float64(len(m.Grid().Cells()))
	res := scenarioResult{params: params}
	var total float64
	for step := 1; step <= steps; step++ {
		m.Step()
		excited := m.Grid().Histogram()[excitable.StateExcited]
		if excited > 0 {
			res.lastActive = step
		}
		if excited > res.peakExcited {
			res.peakExcited = excited
		}
		total += float64(excited) / cells
	}
	if steps > 0 {
		res.meanExcited = total / float64(steps)
	}
	return res
}
