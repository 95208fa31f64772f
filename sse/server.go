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

package sse

import (
	"math/big"
	"sync"

	"github.com/ZBCccc/nomos/internal/curve"
)

// tsetEntry is the server-side record keyed by an update's address
// (spec.md §3: "TSet[addr] = (val, alpha)").
type tsetEntry struct {
	val   []byte
	alpha *big.Int
}

// Server stores the encrypted index (TSet + XSet) and evaluates
// conjunctive Search requests by candidate enumeration and
// pairing-free cross-filtering (spec.md §4.2). It is safe for
// concurrent use.
type Server struct {
	mu   sync.RWMutex
	tset map[string]tsetEntry
	xset map[string]struct{}
}

// NewServer returns an empty Server.
func NewServer() *Server {
	return &Server{
		tset: make(map[string]tsetEntry),
		xset: make(map[string]struct{}),
	}
}

// Update inserts an UpdateMetadata into TSet/XSet. It is idempotent on
// the addr key (last-write-wins), matching spec.md §4.2.
func (s *Server) Update(meta *UpdateMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tset[string(meta.Addr)] = tsetEntry{val: meta.Val, alpha: meta.Alpha}
	for _, xtag := range meta.XTags {
		s.xset[string(xtag)] = struct{}{}
	}
}

// TSetSize returns the number of distinct addresses currently stored.
func (s *Server) TSetSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tset)
}

// XSetSize returns the number of distinct cross-tags currently stored.
func (s *Server) XSetSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.xset)
}

// Search evaluates a conjunctive SearchRequest in two phases: (1)
// candidate enumeration over the primary keyword's stoken addresses,
// and (2) pairing-free cross-filtering of every remaining conjunct
// (spec.md §4.2). It never returns an error: a malformed or empty
// request simply yields no results, per spec.md §7.
func (s *Server) Search(req *SearchRequest) []SearchResultEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := len(req.StokenList)
	n := 1
	if len(req.XTokenList) > 0 {
		n = len(req.XTokenList[0]) + 1
	}

	var results []SearchResultEntry
	for j := 0; j < m; j++ {
		entry, ok := s.tset[string(req.StokenList[j])]
		if !ok {
			continue
		}

		matchCount := 0
		allMatch := true
		if n > 1 {
			if j >= len(req.XTokenList) {
				continue
			}
			row := req.XTokenList[j]
			if len(row) != n-1 {
				continue
			}
			for i := 0; i < n-1; i++ {
				if s.crossFilterMatches(row[i], entry.alpha) {
					matchCount++
				} else {
					allMatch = false
					break
				}
			}
		}

		if allMatch {
			results = append(results, SearchResultEntry{
				J:    j + 1,
				SVal: entry.val,
				Cnt:  matchCount,
			})
		}
	}

	return results
}

// crossFilterMatches tests whether any of the k sampled xtokens for
// one conjunct, raised to the candidate's own alpha, lands in XSet.
func (s *Server) crossFilterMatches(xtokens [][]byte, alpha *big.Int) bool {
	for _, xtokenBytes := range xtokens {
		xtoken, err := curve.UnmarshalG1(xtokenBytes)
		if err != nil {
			continue
		}
		xtag := curve.MarshalG1(curve.ScalarMul(xtoken, alpha))
		if _, ok := s.xset[string(xtag)]; ok {
			return true
		}
	}
	return false
}
