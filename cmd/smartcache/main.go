// Command smartcache replays a small context-tagging scenario against a store
// (-mode=demo) or runs a concurrent workload against a SyncStore
// (-mode=load), with optional Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/smartcache/cache"
	pmet "github.com/IvanBrykalov/smartcache/metrics/prom"
	asyncobs "github.com/IvanBrykalov/smartcache/observe/async"
	logrusobs "github.com/IvanBrykalov/smartcache/observe/logrus"
	slogobs "github.com/IvanBrykalov/smartcache/observe/slog"
	zapobs "github.com/IvanBrykalov/smartcache/observe/zap"
	"github.com/IvanBrykalov/smartcache/policy"
)

func main() {
	// ---- Flags ----
	var (
		mode       = flag.String("mode", "demo", "demo | load")
		policyName = flag.String("policy", "lru", "declared expire policy: none | max_age | lru")
		maxAge     = flag.Duration("max_age", time.Minute, "age limit for -policy=max_age")
		maxEntries = flag.Int("max_entries", 0, "declared entry limit (0 = unlimited)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines (load)")
		duration = flag.Duration("duration", 5*time.Second, "workload duration (load)")
		keys     = flag.Int("keys", 100_000, "keyspace size (load)")
		readPct  = flag.Int("reads", 80, "read percentage [0..100] (load)")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed (load)")

		metricsAddr = flag.String("http", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
		verbose     = flag.Bool("v", false, "log every store event")
		events      = flag.String("events", "zap", "event log backend: zap | logrus | slog")
	)
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	pol, err := parsePolicy(*policyName, *maxAge)
	if err != nil {
		logger.Fatal("bad -policy", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("metrics: serving", zap.String("addr", *metricsAddr))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	evlog, err := eventLogger(*events, logger, *verbose)
	if err != nil {
		logger.Fatal("bad -events", zap.Error(err))
	}
	observers := cache.Observers{
		evlog,
		pmet.New(reg, "smartcache", *mode, nil),
	}

	switch *mode {
	case "demo":
		err = runDemo(logger, cache.Options[string, any]{
			Name:       "mycache",
			MaxEntries: *maxEntries,
			Policy:     pol,
			Observer:   observers,
		})
	case "load":
		// Keep event logging off the workers' critical section.
		ao := asyncobs.New(observers, 1, 4096)
		err = runLoad(logger, reg, loadConfig{
			workers:  *workers,
			duration: *duration,
			keys:     *keys,
			readPct:  *readPct,
			seed:     *seed,
		}, cache.Options[string, string]{
			Name:       "load",
			MaxEntries: *maxEntries,
			Policy:     pol,
			Observer:   ao,
			Sizer:      func(v string) int64 { return int64(len(v)) },
		})
		ao.Close()
		if n := ao.Dropped(); n > 0 {
			logger.Info("events dropped", zap.Uint64("dropped", n))
		}
	default:
		err = fmt.Errorf("unknown mode %q (use demo or load)", *mode)
	}
	if err != nil {
		logger.Fatal("smartcache", zap.String("mode", *mode), zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// eventLogger picks the backend that receives one log line per store event.
func eventLogger(name string, logger *zap.Logger, verbose bool) (cache.Observer, error) {
	switch name {
	case "zap":
		return zapobs.New(logger.Named("events")), nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(os.Stderr)
		if verbose {
			l.SetLevel(logrus.DebugLevel)
		}
		return logrusobs.New(logrus.NewEntry(l).WithField("component", "events")), nil
	case "slog":
		lvl := slog.LevelInfo
		if verbose {
			lvl = slog.LevelDebug
		}
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
		return slogobs.New(slog.New(h).With("component", "events")), nil
	default:
		return nil, fmt.Errorf("unknown event backend %q", name)
	}
}

func parsePolicy(name string, maxAge time.Duration) (policy.Policy, error) {
	k, err := policy.ParseKind(name)
	if err != nil {
		return policy.Policy{}, err
	}
	switch k {
	case policy.MaxAge:
		return policy.Age(maxAge), nil
	case policy.LRU:
		return policy.Recency(), nil
	default:
		return policy.None(), nil
	}
}

// runDemo inserts a few values, reads them back, tags inserts with nested
// and manual contexts, then dumps the contents and counters.
func runDemo(logger *zap.Logger, opt cache.Options[string, any]) error {
	s, err := cache.New(opt)
	if err != nil {
		return err
	}
	logger.Info("store created", zap.Stringer("store", s))

	if err := s.Set("first", "abc 123"); err != nil {
		return err
	}
	time.Sleep(14 * time.Millisecond)
	if err := s.Set("second", 234.0); err != nil {
		return err
	}
	time.Sleep(29 * time.Millisecond)

	logger.Info("get with default", zap.Any("first3", s.Get("first3", 2245)))
	if v, err := s.GetRequired("first"); err == nil {
		logger.Info("get required", zap.Any("first", v))
	}
	if v, ok := s.Pop("second"); ok {
		logger.Info("popped", zap.String("key", "second"), zap.Any("value", v))
	}
	logger.Info("keys", zap.Strings("keys", s.Keys()))
	logger.Info("contains", zap.Bool("first", s.Contains("first")))

	err = s.WithContext("read-user", func() error {
		if err := s.Set("three", "THREE(read user)"); err != nil {
			return err
		}
		if err := s.Set("four", "FOUR(read user)"); err != nil {
			return err
		}
		return s.WithContext("write-user", func() error {
			return s.Set("five", "FIVE(write-user)")
		})
	})
	if err != nil {
		return err
	}

	if err := s.PushContext("manual-ctx"); err != nil {
		return err
	}
	_ = s.Set("six", "SIX(manual)")
	_ = s.Set("seven", "SEVEN(manual)")
	if _, err := s.PopContext(); err != nil {
		return err
	}

	if err := s.Update(map[string]any{"eight": 8}); err != nil {
		logger.Info("bulk update rejected", zap.Error(err))
	}

	for k, v := range s.All() {
		fmt.Printf("%s = %v\n", k, v)
	}
	for _, e := range s.Entries() {
		fmt.Println(e.String())
	}
	fmt.Println("contexts:", s.ContextCounts())
	fmt.Println("stats:", s.Stats().Map())
	fmt.Println("len:", s.Len())
	fmt.Println(s)
	return nil
}

type loadConfig struct {
	workers  int
	duration time.Duration
	keys     int
	readPct  int
	seed     int64
}

// runLoad drives a SyncStore from cfg.workers goroutines, each through its
// own Scope tagged "worker-N".
func runLoad(logger *zap.Logger, reg *prometheus.Registry, cfg loadConfig, opt cache.Options[string, string]) error {
	s, err := cache.NewSync(opt)
	if err != nil {
		return err
	}
	reg.MustRegister(pmet.NewStatsCollector(s, "smartcache", "load"))

	workersN := cfg.workers
	if workersN <= 0 {
		workersN = 1
	}
	keysN := cfg.keys
	if keysN <= 0 {
		keysN = 1
	}

	var reads, writes, hits, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			sc := s.Scope()
			return sc.WithContext("worker-"+strconv.Itoa(w), func() error {
				// rand.Rand is not goroutine-safe.
				r := rand.New(rand.NewSource(cfg.seed + int64(w)*9973))
				for {
					select {
					case <-ctx.Done():
						return nil
					default:
					}
					total.Add(1)
					k := "k:" + strconv.Itoa(r.Intn(keysN))
					if r.Intn(100) < cfg.readPct {
						reads.Add(1)
						if sc.Contains(k) {
							hits.Add(1)
							sc.Get(k, "")
						}
						continue
					}
					writes.Add(1)
					if err := sc.Set(k, "v"+strconv.Itoa(r.Int())); err != nil {
						return err
					}
				}
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	hitRate := 0.0
	if n := reads.Load(); n > 0 {
		hitRate = float64(hits.Load()) / float64(n) * 100
	}
	logger.Info("load done",
		zap.Int("workers", workersN),
		zap.Duration("elapsed", elapsed),
		zap.Uint64("ops", total.Load()),
		zap.Float64("ops_per_sec", float64(total.Load())/elapsed.Seconds()),
		zap.Uint64("reads", reads.Load()),
		zap.Uint64("writes", writes.Load()),
		zap.Float64("hit_rate_pct", hitRate),
		zap.Int("len", s.Len()),
		zap.Int64("bytes", s.Bytes()),
		zap.Any("stats", s.Stats().Map()),
	)
	return nil
}
