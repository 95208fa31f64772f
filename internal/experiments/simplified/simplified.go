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

// Package simplified registers the "nomos-simplified" experiment: a
// single-client ODXT walkthrough over a small fixed corpus, exercising
// Update/GenToken/Search/Decrypt exactly as spec.md §8's scenarios do.
package simplified

import (
	"fmt"
	"log"

	"github.com/ZBCccc/nomos/internal/experiment"
	"github.com/ZBCccc/nomos/sse"
)

func init() {
	experiment.Register("nomos-simplified", func() experiment.Experiment { return &Experiment{} })
}

// Experiment drives a small single-client corpus through the full
// Update -> GenToken -> PrepareSearch -> Search -> Decrypt pipeline.
type Experiment struct {
	gk *sse.Gatekeeper
	sv *sse.Server
	cl *sse.Client
}

func (e *Experiment) Name() string { return "nomos-simplified" }

func (e *Experiment) Setup() error {
	gk, err := sse.NewGatekeeper(sse.GatekeeperConfig{
		Buckets:    sse.DefaultBuckets,
		CrossTagsL: 3,
		SamplesK:   3,
	})
	if err != nil {
		return fmt.Errorf("simplified: new gatekeeper: %w", err)
	}
	e.gk = gk
	e.sv = sse.NewServer()
	e.cl = sse.NewClient(3)
	return nil
}

func (e *Experiment) Run() error {
	corpus := []struct {
		op      sse.Operation
		id      string
		keyword string
	}{
		{sse.OpAdd, "doc1", "crypto"},
		{sse.OpAdd, "doc1", "search"},
		{sse.OpAdd, "doc2", "crypto"},
		{sse.OpAdd, "doc3", "crypto"},
		{sse.OpAdd, "doc3", "search"},
		{sse.OpDel, "doc3", "search"},
	}
	for _, u := range corpus {
		meta, err := e.gk.Update(u.op, u.id, u.keyword)
		if err != nil {
			return fmt.Errorf("simplified: update %s/%s: %w", u.id, u.keyword, err)
		}
		e.sv.Update(meta)
	}

	query := []string{"crypto", "search"}
	token, err := e.gk.GenTokenSimplified(query)
	if err != nil {
		return fmt.Errorf("simplified: gen token: %w", err)
	}
	req, err := e.cl.PrepareSearch(token, query, e.gk.UpdateCounts())
	if err != nil {
		return fmt.Errorf("simplified: prepare search: %w", err)
	}
	results := e.sv.Search(req)
	ids, err := e.cl.DecryptResults(results, token)
	if err != nil {
		return fmt.Errorf("simplified: decrypt results: %w", err)
	}
	log.Printf("simplified: query %v matched %v", query, ids)

	singleQuery := []string{"crypto"}
	singleToken, err := e.gk.GenTokenSimplified(singleQuery)
	if err != nil {
		return fmt.Errorf("simplified: gen token (crypto): %w", err)
	}
	singleReq, err := e.cl.PrepareSearch(singleToken, singleQuery, e.gk.UpdateCounts())
	if err != nil {
		return fmt.Errorf("simplified: prepare search (crypto): %w", err)
	}
	singleIDs, err := e.cl.DecryptResults(e.sv.Search(singleReq), singleToken)
	if err != nil {
		return fmt.Errorf("simplified: decrypt results (crypto): %w", err)
	}
	log.Printf("simplified: query %v matched %v", singleQuery, singleIDs)
	return nil
}

func (e *Experiment) Teardown() error { return nil }
