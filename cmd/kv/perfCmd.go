package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finchkv/finch/cmd/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for finch servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfLargeValueSizeKB = 100
	perfDuration         = 10 * time.Second
	perfBatchSize        = 10
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "duration"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("How long to run each benchmark (in seconds)"))
	key = "batch"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("How many keys per request for the batch benchmarks"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfKeySpread = viper.GetInt("keys")
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfDuration = time.Duration(viper.GetInt("duration")) * time.Second
	perfBatchSize = viper.GetInt("batch")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfResult holds the latency measurements of one benchmark
type perfResult struct {
	name   string
	count  int64
	errors int64
	rate   float64
	mean   time.Duration
	p50    time.Duration
	p95    time.Duration
	p99    time.Duration
	max    time.Duration
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for finch servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Keys: %d, Duration: %s\n", perfNumThreads, perfKeySpread, perfDuration)
	fmt.Println()

	fmt.Println("starting tests...")
	fmt.Println()

	value := []byte("test")
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	// getKey spreads the benchmark load over perfKeySpread keys
	getKey := func(test string, i int) string {
		return fmt.Sprintf("%s:%s:%d", perfKeyPrefix, test, i%perfKeySpread)
	}

	// preload writes a value for every key of a read benchmark
	preload := func(test string) {
		for i := 0; i < perfKeySpread; i++ {
			if err := kvClient.Set(getKey(test, i), value); err != nil {
				log.Printf("(%s) - error preloading key: %v\n", test, err)
			}
		}
	}

	// cleanup removes the keys of a benchmark
	cleanup := func(test string) {
		for i := 0; i < perfKeySpread; i++ {
			if _, err := kvClient.Delete(getKey(test, i)); err != nil {
				log.Printf("(%s) - error deleting key: %v\n", test, err)
			}
		}
	}

	benchmarks := []struct {
		name  string
		setup func()
		op    func(i int) error
	}{
		{
			name: "set",
			op: func(i int) error {
				return kvClient.Set(getKey("set", i), value)
			},
		},
		{
			name: "set-large",
			op: func(i int) error {
				return kvClient.Set(getKey("set-large", i), largeValue)
			},
		},
		{
			name:  "get",
			setup: func() { preload("get") },
			op: func(i int) error {
				_, _, err := kvClient.Get(getKey("get", i))
				return err
			},
		},
		{
			name:  "multiget",
			setup: func() { preload("multiget") },
			op: func(i int) error {
				keys := make([]string, perfBatchSize)
				for j := range keys {
					keys[j] = getKey("multiget", i+j)
				}
				_, err := kvClient.MultiGet(keys...)
				return err
			},
		},
		{
			name:  "exists",
			setup: func() { preload("exists") },
			op: func(i int) error {
				_, err := kvClient.Exists(getKey("exists", i))
				return err
			},
		},
		{
			name:  "del",
			setup: func() { preload("del") },
			op: func(i int) error {
				_, err := kvClient.Delete(getKey("del", i))
				return err
			},
		},
	}

	results := make([]perfResult, 0, len(benchmarks))
	for _, bench := range benchmarks {
		if shouldSkip(bench.name) {
			continue
		}
		if bench.setup != nil {
			bench.setup()
		}

		result := runBenchmark(bench.name, bench.op)
		results = append(results, result)
		printPerfResult(result)

		cleanup(bench.name)
	}

	// Optionally save results as CSV
	if path := viper.GetString("csv"); path != "" {
		if err := saveResultsCSV(path, results); err != nil {
			return fmt.Errorf("failed to save CSV: %w", err)
		}
		fmt.Printf("\nresults saved to %s\n", path)
	}

	return nil
}

// runBenchmark runs one operation from perfNumThreads goroutines for
// perfDuration and collects the latencies in a go-metrics timer.
func runBenchmark(name string, op func(i int) error) perfResult {
	timer := gometrics.NewTimer()
	var errCount atomic.Int64

	deadline := time.Now().Add(perfDuration)

	var wg sync.WaitGroup
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			// spread threads over disjoint key ranges
			counter := thread * perfKeySpread / perfNumThreads
			for time.Now().Before(deadline) {
				start := time.Now()
				err := op(counter)
				timer.UpdateSince(start)
				if err != nil {
					errCount.Add(1)
				}
				counter++
			}
		}(t)
	}
	wg.Wait()

	snapshot := timer.Snapshot()
	ps := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})

	return perfResult{
		name:   name,
		count:  snapshot.Count(),
		errors: errCount.Load(),
		rate:   snapshot.RateMean(),
		mean:   time.Duration(int64(snapshot.Mean())),
		p50:    time.Duration(int64(ps[0])),
		p95:    time.Duration(int64(ps[1])),
		p99:    time.Duration(int64(ps[2])),
		max:    time.Duration(snapshot.Max()),
	}
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if strings.TrimSpace(skip) == test {
			return true
		}
	}
	return false
}

func printPerfResult(r perfResult) {
	fmt.Printf("%-12s\t%d ops (%d errors)\t%.2f ops/sec\tmean %s\tp50 %s\tp95 %s\tp99 %s\tmax %s\n",
		r.name, r.count, r.errors, r.rate, r.mean, r.p50, r.p95, r.p99, r.max)
}

func saveResultsCSV(path string, results []perfResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"test", "ops", "errors", "ops_per_sec", "mean_ns", "p50_ns", "p95_ns", "p99_ns", "max_ns"}); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			r.name,
			strconv.FormatInt(r.count, 10),
			strconv.FormatInt(r.errors, 10),
			strconv.FormatFloat(r.rate, 'f', 2, 64),
			strconv.FormatInt(r.mean.Nanoseconds(), 10),
			strconv.FormatInt(r.p50.Nanoseconds(), 10),
			strconv.FormatInt(r.p95.Nanoseconds(), 10),
			strconv.FormatInt(r.p99.Nanoseconds(), 10),
			strconv.FormatInt(r.max.Nanoseconds(), 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
