package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/sync/errgroup"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

type Config struct {
	FrontendUrl string        `env:"FRONTEND_ADDR" env-default:"http://localhost:8080" env-description:"Base URL of the frontend service"`
	Users       int           `env:"LOADGEN_USERS" env-default:"5" env-description:"Number of concurrent virtual shoppers"`
	Duration    time.Duration `env:"LOADGEN_DURATION" env-default:"1m" env-description:"How long to generate traffic"`
	ThinkTime   time.Duration `env:"LOADGEN_THINK_TIME" env-default:"250ms" env-description:"Pause between shopping passes"`
}

// worker drives one virtual shopper through repeated browse-and-buy passes
// until the context is cancelled.
func worker(ctx context.Context, cfg Config, results chan<- time.Duration, failures *atomic.Int64) error {
	client := &http.Client{}
	userId := uuid.NewString()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := shop(ctx, client, cfg, userId, results); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				failures.Add(1)
			}
			sleep(ctx, cfg.ThinkTime)
		}
	}
}

// shop runs one pass: list the catalog, inspect a product, add it to the
// cart, view the cart, and once in a while empty it.
func shop(ctx context.Context, client *http.Client, cfg Config, userId string, results chan<- time.Duration) error {
	payload, err := doRequest(ctx, client, http.MethodGet, cfg.FrontendUrl+"/api/products", nil, results)
	if err != nil {
		return err
	}
	var productList struct {
		Products []struct {
			Id string `json:"id"`
		} `json:"products"`
	}
	if err := json.Unmarshal(payload, &productList); err != nil {
		return fmt.Errorf("error decoding the product list: %w", err)
	}
	if len(productList.Products) == 0 {
		return fmt.Errorf("no products returned from the frontend")
	}

	productId := productList.Products[rand.Intn(len(productList.Products))].Id
	if _, err := doRequest(
		ctx, client, http.MethodGet, cfg.FrontendUrl+"/api/products/"+productId, nil, results,
	); err != nil {
		return err
	}

	item := map[string]interface{}{
		"product_id": productId,
		"quantity":   1 + rand.Intn(3),
	}
	if _, err := doRequest(
		ctx, client, http.MethodPost, cfg.FrontendUrl+"/api/cart/"+userId+"/items", item, results,
	); err != nil {
		return err
	}
	if _, err := doRequest(
		ctx, client, http.MethodGet, cfg.FrontendUrl+"/api/cart/"+userId, nil, results,
	); err != nil {
		return err
	}

	if rand.Intn(5) == 0 {
		if _, err := doRequest(
			ctx, client, http.MethodDelete, cfg.FrontendUrl+"/api/cart/"+userId, nil, results,
		); err != nil {
			return err
		}
	}
	return nil
}

// doRequest sends one HTTP request, records its response time, and returns
// the response body.
func doRequest(
	ctx context.Context,
	client *http.Client,
	method string,
	url string,
	body map[string]interface{},
	results chan<- time.Duration,
) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	results <- duration
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s returned status %d", method, url, resp.StatusCode)
	}
	return payload, nil
}

// sleep pauses between passes without delaying shutdown.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func main() {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Println("Failed to read configuration:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	results := make(chan time.Duration, 1000)
	var failures atomic.Int64

	var g errgroup.Group

	fmt.Printf("Starting loadgen: %d shoppers, %s duration, target %s\n",
		cfg.Users, cfg.Duration, cfg.FrontendUrl)

	for i := 0; i < cfg.Users; i++ {
		g.Go(func() error {
			return worker(ctx, cfg, results, &failures)
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	// Process results
	var totalRequests int
	var totalTime time.Duration

	for r := range results {
		totalRequests++
		totalTime += r
	}

	avgTime := time.Duration(0)
	if totalRequests > 0 {
		avgTime = totalTime / time.Duration(totalRequests)
	}

	fmt.Printf("\nLoadgen Results:\n")
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Failed Passes: %d\n", failures.Load())
	fmt.Printf("Average Response Time: %s\n", avgTime)

	if err := g.Wait(); err != nil {
		fmt.Println("Loadgen encountered errors:", err)
	}

	fmt.Println("Loadgen completed.")
}
