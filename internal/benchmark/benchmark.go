/*
 * Copyright (c) 2018 XLAB d.o.o
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package benchmark times a synthetic Setup/Update/Search workload
// against sse and reports the timing and storage-sizing columns of
// spec.md §6.
package benchmark

import (
	"fmt"
	"time"

	"github.com/ZBCccc/nomos/sse"
)

// Config is the benchmark's tunable workload shape (spec.md §6).
type Config struct {
	NumKeywords   int `json:"num_keywords"`
	NumFiles      int `json:"num_files"`
	CrossTagsL    int `json:"cross_tags_l"`
	CrossTagsK    int `json:"cross_tags_k"`
	ResultSetSize int `json:"result_set_size"`
	NumUpdates    int `json:"num_updates"`
	NumSearches   int `json:"num_searches"`
}

// DefaultConfig returns spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		NumKeywords:   100,
		NumFiles:      1000,
		CrossTagsL:    3,
		CrossTagsK:    2,
		ResultSetSize: 10,
		NumUpdates:    100,
		NumSearches:   10,
	}
}

// Per-entry storage sizes (spec.md §6): compressed G1 points are 33
// bytes, AE-wrapped payloads are taken as roughly 48 bytes, and a Zp
// scalar is 32 bytes.
const (
	tsetEntrySize = 113 // addr(33) + AE payload(~48) + alpha(32)
	xsetEntrySize = 33  // compressed G1
)

// Result is the full set of columns spec.md §6 names, ready to be
// marshaled as CSV or JSON.
type Result struct {
	Config

	SetupTimeMs        float64 `json:"setup_time_ms"`
	TotalUpdateTimeMs  float64 `json:"total_update_time_ms"`
	AvgUpdateTimeMs    float64 `json:"avg_update_time_ms"`
	TotalSearchTimeMs  float64 `json:"total_search_time_ms"`
	AvgSearchTimeMs    float64 `json:"avg_search_time_ms"`
	TSetSizeBytes      int     `json:"tset_size_bytes"`
	XSetSizeBytes      int     `json:"xset_size_bytes"`
	TotalStorageBytes  int     `json:"total_storage_bytes"`
	TokenSizeBytes     int     `json:"token_size_bytes"`
}

// Run times Setup (Gatekeeper/Server construction), NumUpdates
// round-robin updates over NumKeywords/NumFiles, and NumSearches
// conjunctive searches of ResultSetSize keywords, then reports sizing
// and per-operation timings.
func Run(cfg Config) (*Result, error) {
	setupStart := time.Now()
	gk, err := sse.NewGatekeeper(sse.GatekeeperConfig{
		Buckets:    sse.DefaultBuckets,
		CrossTagsL: cfg.CrossTagsL,
		SamplesK:   cfg.CrossTagsK,
	})
	if err != nil {
		return nil, fmt.Errorf("benchmark: setup gatekeeper: %w", err)
	}
	sv := sse.NewServer()
	cl := sse.NewClient(cfg.CrossTagsK)
	setupElapsed := time.Since(setupStart)

	updateStart := time.Now()
	for i := 0; i < cfg.NumUpdates; i++ {
		keyword := fmt.Sprintf("keyword-%d", i%maxInt(cfg.NumKeywords, 1))
		id := fmt.Sprintf("doc-%d", i%maxInt(cfg.NumFiles, 1))
		meta, err := gk.Update(sse.OpAdd, id, keyword)
		if err != nil {
			return nil, fmt.Errorf("benchmark: update %d: %w", i, err)
		}
		sv.Update(meta)
	}
	updateElapsed := time.Since(updateStart)

	queryWidth := maxInt(minInt(cfg.ResultSetSize, cfg.NumKeywords), 1)
	var tokenBytes int
	searchStart := time.Now()
	for i := 0; i < cfg.NumSearches; i++ {
		query := make([]string, 0, queryWidth)
		for j := 0; j < queryWidth; j++ {
			query = append(query, fmt.Sprintf("keyword-%d", (i+j)%maxInt(cfg.NumKeywords, 1)))
		}

		token, err := gk.GenTokenSimplified(query)
		if err != nil {
			return nil, fmt.Errorf("benchmark: gen token %d: %w", i, err)
		}
		if i == 0 {
			tokenBytes = tokenSize(token, cfg.CrossTagsK, cfg.CrossTagsL)
		}

		req, err := cl.PrepareSearch(token, query, gk.UpdateCounts())
		if err != nil {
			return nil, fmt.Errorf("benchmark: prepare search %d: %w", i, err)
		}
		results := sv.Search(req)
		if _, err := cl.DecryptResults(results, token); err != nil {
			return nil, fmt.Errorf("benchmark: decrypt results %d: %w", i, err)
		}
	}
	searchElapsed := time.Since(searchStart)

	tsetBytes := sv.TSetSize() * tsetEntrySize
	xsetBytes := sv.XSetSize() * xsetEntrySize

	return &Result{
		Config:            cfg,
		SetupTimeMs:       msOf(setupElapsed),
		TotalUpdateTimeMs: msOf(updateElapsed),
		AvgUpdateTimeMs:   msOf(updateElapsed) / float64(maxInt(cfg.NumUpdates, 1)),
		TotalSearchTimeMs: msOf(searchElapsed),
		AvgSearchTimeMs:   msOf(searchElapsed) / float64(maxInt(cfg.NumSearches, 1)),
		TSetSizeBytes:     tsetBytes,
		XSetSizeBytes:     xsetBytes,
		TotalStorageBytes: tsetBytes + xsetBytes,
		TokenSizeBytes:    tokenBytes,
	}, nil
}

// tokenSize approximates a SearchToken's wire size: strap(33) plus
// k*ell cross-tag samples of 33 bytes each plus a 48-byte envelope
// (spec.md §6: "token size ~= 33 + k*ell*33 + 48 B").
func tokenSize(token *sse.SearchToken, k, ell int) int {
	if token == nil || len(token.Strap) == 0 {
		return 0
	}
	return 33 + k*ell*33 + 48
}

func msOf(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
