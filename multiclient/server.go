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

package multiclient

import (
	"fmt"
	"sync"

	"github.com/ZBCccc/nomos/sse"
)

// Server stores one sse.Server per data owner. Tenant isolation
// (spec.md §8: "an update under owner_A is never returned by a search
// under owner_B") falls out of this directly: Search on ownerID can
// only ever read ownerID's own TSet/XSet map, never another owner's.
type Server struct {
	mu     sync.RWMutex
	owners map[string]*sse.Server
}

// NewServer returns an empty multi-tenant Server.
func NewServer() *Server {
	return &Server{owners: make(map[string]*sse.Server)}
}

// Update inserts meta into ownerID's index, lazily creating that
// owner's storage on first use (mirrors the gatekeeper's
// RegisterDataOwner being the source of truth for which owners exist;
// the server does not itself reject unknown owners, per spec.md §4.2's
// "missing keys yield empty results, not errors").
func (s *Server) Update(ownerID string, meta *sse.UpdateMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[ownerID]
	if !ok {
		owner = sse.NewServer()
		s.owners[ownerID] = owner
	}
	owner.Update(meta)
}

// Search evaluates req against ownerID's index only. An unknown owner
// yields an empty result, not an error.
func (s *Server) Search(ownerID string, req *sse.SearchRequest) []sse.SearchResultEntry {
	s.mu.RLock()
	owner, ok := s.owners[ownerID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return owner.Search(req)
}

// TSetSize returns the number of distinct addresses stored for
// ownerID.
func (s *Server) TSetSize(ownerID string) (int, error) {
	owner, err := s.ownerServer(ownerID)
	if err != nil {
		return 0, err
	}
	return owner.TSetSize(), nil
}

// XSetSize returns the number of distinct cross-tags stored for
// ownerID.
func (s *Server) XSetSize(ownerID string) (int, error) {
	owner, err := s.ownerServer(ownerID)
	if err != nil {
		return 0, err
	}
	return owner.XSetSize(), nil
}

func (s *Server) ownerServer(ownerID string) (*sse.Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[ownerID]
	if !ok {
		return nil, fmt.Errorf("%w: data owner %q", sse.ErrNotFound, ownerID)
	}
	return owner, nil
}
