package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authtoken"
	"github.com/MrEthical07/authtoken/repository/redisrepo"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type benchEntity struct {
	ID string `json:"id"`
}

func runBench(args []string, stdout io.Writer, logger logrus.FieldLogger) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	var (
		entities    = fs.Int("entities", 10000, "number of entities to seed")
		concurrency = fs.Int("concurrency", 64, "number of concurrent workers")
		ops         = fs.Int("ops", 100000, "operations per phase")
		redisAddr   = fs.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = fs.String("prefix", "authtoken-bench", "repository key prefix")
		envFile     = fs.String("env-file", "", "dotenv file to load")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *entities <= 0 || *concurrency <= 0 || *ops <= 0 {
		return fmt.Errorf("entities, concurrency, and ops must be > 0")
	}

	engine, err := newEngine(*envFile, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Fprintf(stdout, "using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Fprintf(stdout, "using redis at %s\n", addr)
	}
	defer cleanup()

	store := redisrepo.New[benchEntity](client, *prefix)
	resolver := authtoken.NewResolver[benchEntity](store)

	tokens := make([]string, *entities)
	fmt.Fprintf(stdout, "seeding %d entities...\n", *entities)
	startSeed := time.Now()
	for i := 0; i < *entities; i++ {
		id := fmt.Sprintf("e-%d", i)
		if err := store.Put(ctx, id, benchEntity{ID: id}); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		tok, err := engine.Issue("bench", authtoken.Claims{authtoken.ClaimSubject: id})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		tokens[i] = tok.Token()
	}
	fmt.Fprintf(stdout, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	issueStats := runPhase(*ops, *concurrency, func(i int) error {
		_, err := engine.Issue("bench", authtoken.Claims{authtoken.ClaimSubject: fmt.Sprintf("e-%d", i%*entities)})
		return err
	})
	verifyStats := runPhase(*ops, *concurrency, func(i int) error {
		_, err := engine.Verify(tokens[i%len(tokens)], "bench")
		return err
	})
	resolveStats := runPhase(*ops, *concurrency, func(i int) error {
		tok, err := engine.Verify(tokens[i%len(tokens)], "bench")
		if err != nil {
			return err
		}
		_, err = authtoken.ResolveEntity(ctx, tok, resolver)
		return err
	})

	fmt.Fprintln(stdout, "---- results ----")
	printStats(stdout, "issue", issueStats)
	printStats(stdout, "verify", verifyStats)
	printStats(stdout, "verify+resolve", resolveStats)
	return nil
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
