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

// Package benchmarkexp registers the "benchmark" experiment: it runs
// internal/benchmark's timing harness and prints its result as both a
// CSV row and a JSON object (spec.md §6).
package benchmarkexp

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ZBCccc/nomos/internal/benchmark"
	"github.com/ZBCccc/nomos/internal/experiment"
)

func init() {
	experiment.Register("benchmark", func() experiment.Experiment { return &Experiment{} })
}

// Experiment runs the benchmark harness with its default workload
// shape and reports the result in both CSV and JSON form.
type Experiment struct {
	result *benchmark.Result
}

func (e *Experiment) Name() string { return "benchmark" }

func (e *Experiment) Setup() error { return nil }

func (e *Experiment) Run() error {
	result, err := benchmark.Run(benchmark.DefaultConfig())
	if err != nil {
		return fmt.Errorf("benchmark: run: %w", err)
	}
	e.result = result

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("benchmark: marshal json: %w", err)
	}
	fmt.Println(string(jsonBytes))

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"num_keywords", "num_files", "cross_tags_l", "cross_tags_k",
		"result_set_size", "num_updates", "num_searches",
		"setup_time_ms", "total_update_time_ms", "avg_update_time_ms",
		"total_search_time_ms", "avg_search_time_ms",
		"tset_size_bytes", "xset_size_bytes", "total_storage_bytes", "token_size_bytes",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("benchmark: write csv header: %w", err)
	}
	row := []string{
		strconv.Itoa(result.NumKeywords),
		strconv.Itoa(result.NumFiles),
		strconv.Itoa(result.CrossTagsL),
		strconv.Itoa(result.CrossTagsK),
		strconv.Itoa(result.ResultSetSize),
		strconv.Itoa(result.NumUpdates),
		strconv.Itoa(result.NumSearches),
		strconv.FormatFloat(result.SetupTimeMs, 'f', 3, 64),
		strconv.FormatFloat(result.TotalUpdateTimeMs, 'f', 3, 64),
		strconv.FormatFloat(result.AvgUpdateTimeMs, 'f', 3, 64),
		strconv.FormatFloat(result.TotalSearchTimeMs, 'f', 3, 64),
		strconv.FormatFloat(result.AvgSearchTimeMs, 'f', 3, 64),
		strconv.Itoa(result.TSetSizeBytes),
		strconv.Itoa(result.XSetSizeBytes),
		strconv.Itoa(result.TotalStorageBytes),
		strconv.Itoa(result.TokenSizeBytes),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("benchmark: write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("benchmark: flush csv: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

func (e *Experiment) Teardown() error { return nil }
