// smoke.go — standalone script to exercise a running vegvisir server:
// lists scenarios, ranks them under a profile, and runs a small simulation.
//
// Usage:
//
//	go run scripts/smoke.go -api http://localhost:8700 -profile balanced -trials 2000
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "vegvisir API base URL")
	profile := flag.String("profile", "balanced", "weight profile to rank with")
	trials := flag.Int("trials", 2000, "simulation trial count")
	alpha := flag.Float64("alpha", 1.0, "Dirichlet concentration")
	seed := flag.Uint64("seed", 42, "simulation seed")
	flag.Parse()

	var scenarios struct {
		Scenarios []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"scenarios"`
	}
	getJSON(*apiURL+"/api/v1/scenarios", &scenarios)
	fmt.Printf("%d scenarios:\n", len(scenarios.Scenarios))
	for _, s := range scenarios.Scenarios {
		fmt.Printf("  %-4s %s\n", s.ID, s.Name)
	}

	var ranked struct {
		Ranking []struct {
			Rank          int     `json:"rank"`
			ScenarioID    string  `json:"scenario_id"`
			Name          string  `json:"name"`
			WeightedTotal float64 `json:"weighted_total"`
		} `json:"ranking"`
	}
	postJSON(*apiURL+"/api/v1/rank", map[string]interface{}{"profile": *profile}, &ranked)
	fmt.Printf("\nranking under %q:\n", *profile)
	for _, r := range ranked.Ranking {
		fmt.Printf("  %d. %-4s %-40s %.4f\n", r.Rank, r.ScenarioID, r.Name, r.WeightedTotal)
	}

	var sim struct {
		Seed         uint64             `json:"seed"`
		WinFractions map[string]float64 `json:"win_fractions"`
	}
	postJSON(*apiURL+"/api/v1/simulate", map[string]interface{}{
		"alpha":  *alpha,
		"trials": *trials,
		"seed":   *seed,
	}, &sim)
	fmt.Printf("\nwin fractions over %d trials (alpha=%.2f, seed=%d):\n", *trials, *alpha, sim.Seed)
	for _, s := range scenarios.Scenarios {
		fmt.Printf("  %-4s %.3f\n", s.ID, sim.WinFractions[s.ID])
	}
}

func getJSON(url string, out interface{}) {
	resp, err := http.Get(url)
	if err != nil {
		log.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("decode %s: %v", url, err)
	}
}

func postJSON(url string, body, out interface{}) {
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("POST %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("decode %s: %v", url, err)
	}
}
