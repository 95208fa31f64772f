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

// Package verifiable registers the "verifiable" experiment: it drives
// sse's Gatekeeper/Server as usual, but additionally commits every
// update's cross-tags into a Merkle-committed QTree and authenticates
// XSet membership with sse/verifiable's proof machinery (spec.md
// §4.4-4.5).
package verifiable

import (
	"fmt"
	"log"

	"github.com/ZBCccc/nomos/internal/experiment"
	"github.com/ZBCccc/nomos/sse"
	"github.com/ZBCccc/nomos/sse/verifiable"
)

func init() {
	experiment.Register("verifiable", func() experiment.Experiment { return &Experiment{} })
}

// Experiment layers a QTree membership commitment and an address
// commitment check on top of the ordinary sse update/search flow.
type Experiment struct {
	gk *sse.Gatekeeper
	sv *sse.Server
	cl *sse.Client

	tree       *verifiable.QTree
	allXTags   [][]byte
	firstXTags [][]byte
}

func (e *Experiment) Name() string { return "verifiable" }

func (e *Experiment) Setup() error {
	gk, err := sse.NewGatekeeper(sse.GatekeeperConfig{
		Buckets:    sse.DefaultBuckets,
		CrossTagsL: 3,
		SamplesK:   3,
	})
	if err != nil {
		return fmt.Errorf("verifiable: new gatekeeper: %w", err)
	}
	e.gk = gk
	e.sv = sse.NewServer()
	e.cl = sse.NewClient(3)
	e.tree = verifiable.NewQTree(1024)
	if err := e.tree.Initialize(make([]bool, e.tree.Capacity())); err != nil {
		return fmt.Errorf("verifiable: initialize qtree: %w", err)
	}
	return nil
}

func (e *Experiment) Run() error {
	corpus := []struct {
		op      sse.Operation
		id      string
		keyword string
	}{
		{sse.OpAdd, "doc1", "crypto"},
		{sse.OpAdd, "doc2", "crypto"},
		{sse.OpAdd, "doc3", "search"},
	}
	for _, u := range corpus {
		meta, err := e.gk.Update(u.op, u.id, u.keyword)
		if err != nil {
			return fmt.Errorf("verifiable: update %s/%s: %w", u.id, u.keyword, err)
		}
		e.sv.Update(meta)

		commitment, err := verifiable.Commit(meta.XTags)
		if err != nil {
			return fmt.Errorf("verifiable: commit update xtags: %w", err)
		}
		if !verifiable.VerifyCommitment(commitment, meta.XTags) {
			return fmt.Errorf("verifiable: commitment failed to verify against its own xtags")
		}

		for _, xtag := range meta.XTags {
			e.tree.UpdateBit(xtag, true)
			e.allXTags = append(e.allXTags, xtag)
		}
		if e.firstXTags == nil {
			e.firstXTags = meta.XTags
		}
	}

	root := e.tree.RootHash()
	for _, xtag := range e.firstXTags {
		proof := e.tree.GenerateProof(xtag)
		if !proof.Value {
			return fmt.Errorf("verifiable: expected membership proof to claim presence")
		}
		if !e.tree.VerifyPath(proof, root) {
			return fmt.Errorf("verifiable: membership proof failed to verify against root")
		}
	}
	log.Printf("verifiable: qtree root %x authenticates %d cross-tags at version %d",
		root, len(e.allXTags), e.tree.Version())

	query := []string{"crypto"}
	token, err := e.gk.GenTokenSimplified(query)
	if err != nil {
		return fmt.Errorf("verifiable: gen token: %w", err)
	}
	req, err := e.cl.PrepareSearch(token, query, e.gk.UpdateCounts())
	if err != nil {
		return fmt.Errorf("verifiable: prepare search: %w", err)
	}
	ids, err := e.cl.DecryptResults(e.sv.Search(req), token)
	if err != nil {
		return fmt.Errorf("verifiable: decrypt results: %w", err)
	}
	log.Printf("verifiable: query %v matched %v", query, ids)
	return nil
}

func (e *Experiment) Teardown() error { return nil }
