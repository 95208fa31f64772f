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

// Package mcodxt registers the "mc-odxt" experiment: two data owners
// with overlapping keywords and one search user authorized against
// only one of them, demonstrating spec.md §8 scenario 6's isolation
// guarantee end to end.
package mcodxt

import (
	"fmt"
	"log"

	"github.com/ZBCccc/nomos/internal/experiment"
	"github.com/ZBCccc/nomos/multiclient"
	"github.com/ZBCccc/nomos/sse"
)

func init() {
	experiment.Register("mc-odxt", func() experiment.Experiment { return &Experiment{} })
}

// Experiment exercises multiclient's per-owner isolation and
// authorization-gated token issuance.
type Experiment struct {
	gk *multiclient.Gatekeeper
	sv *multiclient.Server
	cl *multiclient.Client
}

func (e *Experiment) Name() string { return "mc-odxt" }

func (e *Experiment) Setup() error {
	e.gk = multiclient.NewGatekeeper(sse.GatekeeperConfig{
		Buckets:    sse.DefaultBuckets,
		CrossTagsL: 3,
		SamplesK:   3,
	})
	e.sv = multiclient.NewServer()
	e.cl = multiclient.NewClient(3)

	for _, owner := range []string{"ownerA", "ownerB"} {
		if err := e.gk.RegisterDataOwner(owner); err != nil {
			return fmt.Errorf("mc-odxt: register owner %s: %w", owner, err)
		}
	}
	if err := e.gk.RegisterSearchUser("userU"); err != nil {
		return fmt.Errorf("mc-odxt: register user: %w", err)
	}
	if err := e.gk.GrantAuthorization("ownerA", "userU", nil, nil); err != nil {
		return fmt.Errorf("mc-odxt: grant authorization: %w", err)
	}
	return nil
}

func (e *Experiment) Run() error {
	updates := []struct {
		owner   string
		op      sse.Operation
		id      string
		keyword string
	}{
		{"ownerA", sse.OpAdd, "a-doc1", "crypto"},
		{"ownerA", sse.OpAdd, "a-doc2", "crypto"},
		{"ownerB", sse.OpAdd, "b-doc1", "crypto"},
	}
	for _, u := range updates {
		meta, err := e.gk.Update(u.owner, u.op, u.id, u.keyword)
		if err != nil {
			return fmt.Errorf("mc-odxt: update %s/%s: %w", u.owner, u.id, err)
		}
		e.sv.Update(u.owner, meta)
	}

	query := []string{"crypto"}

	token, err := e.gk.GenToken("ownerA", "userU", query)
	if err != nil {
		return fmt.Errorf("mc-odxt: gen token against ownerA: %w", err)
	}
	cnt, err := e.gk.UpdateCounts("ownerA")
	if err != nil {
		return fmt.Errorf("mc-odxt: update counts for ownerA: %w", err)
	}
	req, err := e.cl.PrepareSearch(token, query, cnt)
	if err != nil {
		return fmt.Errorf("mc-odxt: prepare search against ownerA: %w", err)
	}
	ids, err := e.cl.DecryptResults(e.sv.Search("ownerA", req), token)
	if err != nil {
		return fmt.Errorf("mc-odxt: decrypt results against ownerA: %w", err)
	}
	log.Printf("mc-odxt: userU authorized search on ownerA matched %v", ids)

	if _, err := e.gk.GenToken("ownerB", "userU", query); err != nil {
		log.Printf("mc-odxt: userU unauthorized search on ownerB rejected as expected: %v", err)
	} else {
		return fmt.Errorf("mc-odxt: expected unauthorized search on ownerB to be rejected")
	}
	return nil
}

func (e *Experiment) Teardown() error { return nil }
