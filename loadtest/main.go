package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Configuration
var (
	targetURL  = flag.String("url", "http://localhost:8080", "Server base URL")
	apiKey     = flag.String("key", "", "Project API key")
	featureKey = flag.String("feature", "loadtest-latency-check", "Feature key to evaluate")
	totalVUs   = flag.Int("c", 200, "Total Virtual Users (Concurrency)")
	rampUp     = flag.Duration("ramp", 30*time.Second, "Ramp up duration")
	rps        = flag.Int("rps", 10, "Requests per second per VU")
)

// Metrics
var (
	activeClients int64
	totalRequests int64
	requestErrors int64
	statusNon2xx  int64
	enabledCount  int64
	latencySum    int64 // milliseconds
	latencyCount  int64
)

var countries = []string{"uy", "ar", "br", "cl", "mx", "us"}

func main() {
	flag.Parse()

	fmt.Printf("🚀 Starting Load Test\n")
	fmt.Printf("   Target: %s\n", *targetURL)
	fmt.Printf("   Feature: %s\n", *featureKey)
	fmt.Printf("   VUs: %d\n", *totalVUs)
	fmt.Printf("   Ramp: %v\n", *rampUp)

	http.DefaultTransport.(*http.Transport).MaxIdleConns = *totalVUs
	http.DefaultTransport.(*http.Transport).MaxConnsPerHost = *totalVUs

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metric Reporter
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				currentActive := atomic.LoadInt64(&activeClients)
				total := atomic.LoadInt64(&totalRequests)
				errs := atomic.LoadInt64(&requestErrors)
				non2xx := atomic.LoadInt64(&statusNon2xx)
				enabled := atomic.LoadInt64(&enabledCount)
				latSum := atomic.SwapInt64(&latencySum, 0)
				latCnt := atomic.SwapInt64(&latencyCount, 0)

				avgLat := float64(0)
				if latCnt > 0 {
					avgLat = float64(latSum) / float64(latCnt)
				}
				fmt.Printf("[VUs: %d] reqs: %d | errors: %d | non-2xx: %d | enabled: %d | avg lat: %.1fms\n",
					currentActive, total, errs, non2xx, enabled, avgLat)
			}
		}
	}()

	// Ramp up VUs
	interval := time.Duration(int64(*rampUp) / int64(*totalVUs))
	go func() {
		for i := 0; i < *totalVUs; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			wg.Add(1)
			go runVU(ctx, &wg)
			time.Sleep(interval)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("stopping...")
	cancel()
	wg.Wait()

	fmt.Printf("Done. total=%d errors=%d\n",
		atomic.LoadInt64(&totalRequests), atomic.LoadInt64(&requestErrors))
}

func runVU(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&activeClients, 1)
	defer atomic.AddInt64(&activeClients, -1)

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("%s/v1/check/%s", *targetURL, *featureKey)

	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			doCheck(ctx, client, url)
		}
	}
}

func doCheck(ctx context.Context, client *http.Client, url string) {
	attrs := map[string]any{
		"country": countries[rand.Intn(len(countries))],
		"age":     18 + rand.Intn(50),
	}
	body, _ := json.Marshal(attrs)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&requestErrors, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", *apiKey)

	start := time.Now()
	resp, err := client.Do(req)
	atomic.AddInt64(&totalRequests, 1)
	if err != nil {
		atomic.AddInt64(&requestErrors, 1)
		return
	}
	defer resp.Body.Close()

	atomic.AddInt64(&latencySum, time.Since(start).Milliseconds())
	atomic.AddInt64(&latencyCount, 1)

	if resp.StatusCode != http.StatusOK {
		atomic.AddInt64(&statusNon2xx, 1)
		return
	}

	var res struct {
		Value bool `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		atomic.AddInt64(&requestErrors, 1)
		return
	}
	if res.Value {
		atomic.AddInt64(&enabledCount, 1)
	}
}
