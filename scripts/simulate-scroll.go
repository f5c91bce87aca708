package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	apiURL      = flag.String("api", "http://localhost:8080", "dealview-tracker HTTP base URL")
	redisURL    = flag.String("redis", "localhost:6379", "Redis URL (host:port) for reading counters")
	redisPass   = flag.String("password", "", "Redis password")
	numUsers    = flag.Int("users", 50, "Number of concurrent scrolling users")
	numDeals    = flag.Int("deals", 30, "Number of distinct deals on the page")
	cardsPerRun = flag.Int("cards", 12, "Cards each user scrolls past")
	scrollDelay = flag.Duration("scroll-delay", 150*time.Millisecond, "Time between visibility reports")
	settle      = flag.Duration("settle", 3*time.Second, "Wait after scrolling before reading counters")
	topN        = flag.Int64("top", 10, "Leaderboard entries to print")
)

type mountResp struct {
	InstanceID string `json:"instance_id"`
}

type visibilityResp struct {
	Fired bool `json:"fired"`
}

type stats struct {
	mounted atomic.Int64
	fired   atomic.Int64
	failed  atomic.Int64
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := resty.New().
		SetBaseURL(*apiURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")

	if resp, err := cli.R().SetContext(ctx).Get("/health"); err != nil || resp.IsError() {
		fmt.Printf("Service at %s is not healthy: %v\n", *apiURL, err)
		os.Exit(1)
	}
	fmt.Printf("Connected to %s\n", *apiURL)

	var st stats
	start := time.Now()

	var wg sync.WaitGroup
	for u := 0; u < *numUsers; u++ {
		wg.Go(func() {
			scroll(ctx, cli, &st, rand.New(rand.NewSource(int64(u)+time.Now().UnixNano())))
		})
	}
	wg.Wait()

	fmt.Printf("\nScrolled %d users in %v\n", *numUsers, time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Cards mounted: %d\n", st.mounted.Load())
	fmt.Printf("   Views fired:   %d\n", st.fired.Load())
	fmt.Printf("   Failed calls:  %d\n", st.failed.Load())

	fmt.Printf("\nWaiting %v for the batcher to flush...\n", *settle)
	select {
	case <-time.After(*settle):
	case <-ctx.Done():
		return
	}

	printLeaderboard(ctx)
}

// scroll mounts a run of cards, scrolls each into view and past it, then
// unmounts it the way a browser would.
func scroll(ctx context.Context, cli *resty.Client, st *stats, rng *rand.Rand) {
	for i := 0; i < *cardsPerRun; i++ {
		if ctx.Err() != nil {
			return
		}

		dealID := fmt.Sprintf("demo-deal-%d", rng.Intn(*numDeals)+1)

		var mounted mountResp
		resp, err := cli.R().
			SetContext(ctx).
			SetBody(map[string]string{"instance_id": uuid.NewString(), "deal_id": dealID}).
			SetResult(&mounted).
			Post("/api/v1/impressions")
		if err != nil || resp.IsError() {
			st.failed.Add(1)
			continue
		}
		st.mounted.Add(1)

		// Partially visible, fully visible, scrolled away. Some cards never
		// get past the partial stage.
		ratios := []float64{0.2, 0.8, 0.1}
		if rng.Float64() < 0.25 {
			ratios = []float64{0.2, 0.3}
		}

		for _, ratio := range ratios {
			var vis visibilityResp
			resp, err := cli.R().
				SetContext(ctx).
				SetBody(map[string]float64{"ratio": ratio}).
				SetResult(&vis).
				Post("/api/v1/impressions/" + mounted.InstanceID + "/visibility")
			if err != nil || resp.IsError() {
				st.failed.Add(1)
				break
			}
			if vis.Fired {
				st.fired.Add(1)
			}
			time.Sleep(*scrollDelay)
		}

		if resp, err := cli.R().SetContext(ctx).Delete("/api/v1/impressions/" + mounted.InstanceID); err != nil || resp.IsError() {
			st.failed.Add(1)
		}
	}
}

func printLeaderboard(ctx context.Context) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     *redisURL,
		Password: *redisPass,
	})
	defer rdb.Close()

	top, err := rdb.ZRevRangeWithScores(ctx, "dealview:leaderboard", 0, *topN-1).Result()
	if err != nil {
		fmt.Printf("Failed to read leaderboard: %v\n", err)
		return
	}

	fmt.Printf("\nTop %d deals:\n", len(top))
	for i, z := range top {
		fmt.Printf("   %2d. %-16v %6.0f views\n", i+1, z.Member, z.Score)
	}
}
