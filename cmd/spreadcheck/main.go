// Command spreadcheck compares bid/ask spreads for a set of pairs across the
// maker and hedge venues and prints them sorted by spread difference. A large
// positive difference means the maker venue's book is wide relative to the
// hedge venue's, which is where resting quotes earn the most.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"arbbot-go/internal/config"
	"arbbot-go/internal/util"
	"arbbot-go/internal/venue"
)

// row is one pair's spread comparison. Spreads are (ask-bid)/mid.
type row struct {
	Pair        string
	MakerSpread float64
	HedgeSpread float64
	Diff        float64
}

// compareSpreads fetches both venues' books for every pair with a bounded
// worker pool and returns rows sorted by descending spread difference. Pairs
// whose book is unavailable or unusable on either venue are skipped.
func compareSpreads(ctx context.Context, pairs []string, maker, hedge venue.BookSource, workers int) []row {
	if workers <= 0 {
		workers = 8
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var out []row

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobs {
				r, ok := comparePair(ctx, pair, maker, hedge)
				if !ok {
					continue
				}
				mu.Lock()
				out = append(out, r)
				mu.Unlock()
			}
		}()
	}

	for _, pair := range pairs {
		select {
		case jobs <- pair:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Diff > out[j].Diff })
	return out
}

func comparePair(ctx context.Context, pair string, maker, hedge venue.BookSource) (row, bool) {
	makerSnap, err := maker.OrderBook(ctx, pair)
	if err != nil {
		return row{}, false
	}
	hedgeSnap, err := hedge.OrderBook(ctx, pair)
	if err != nil {
		return row{}, false
	}
	makerSpread, ok := makerSnap.SpreadPct()
	if !ok {
		return row{}, false
	}
	hedgeSpread, ok := hedgeSnap.SpreadPct()
	if !ok {
		return row{}, false
	}
	return row{
		Pair:        pair,
		MakerSpread: makerSpread,
		HedgeSpread: hedgeSpread,
		Diff:        makerSpread - hedgeSpread,
	}, true
}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	pairsFlag := flag.String("pairs", "", "comma-separated pairs to compare (defaults to the configured pair)")
	workers := flag.Int("workers", 8, "concurrent book fetches")
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	pairs := []string{cfg.Maker.Pair}
	if *pairsFlag != "" {
		pairs = pairs[:0]
		for _, p := range strings.Split(*pairsFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pairs = append(pairs, p)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maker := venue.NewSimMaker(1.01, 0.02)
	hedge := venue.NewSimHedge(1.011, 0.002, 1)

	rows := compareSpreads(ctx, pairs, maker, hedge, *workers)
	if len(rows) == 0 {
		log.Warn().Msg("no comparable pairs")
		os.Exit(1)
	}

	fmt.Printf("%-12s %-14s %-14s %s\n", "Pair", "Maker Spread", "Hedge Spread", "Difference")
	for _, r := range rows {
		fmt.Printf("%-12s %.8f     %.8f     %+.8f\n", r.Pair, r.MakerSpread, r.HedgeSpread, r.Diff)
	}
	fmt.Printf("\n%d pairs compared\n", len(rows))
}
