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
	"math/big"
	"sync"
	"time"

	"github.com/ZBCccc/nomos/sse"
)

// Gatekeeper is the multi-tenant McGatekeeper of spec.md §4.6: a
// registry of per-owner sse.Gatekeeper instances, a registry of
// search users, and the authorization table gating GenToken.
type Gatekeeper struct {
	cfg sse.GatekeeperConfig

	mu            sync.RWMutex
	owners        map[string]*sse.Gatekeeper
	searchUsers   map[string]struct{}
	authorizations map[string]map[string]Authorization // ownerID -> userID -> grant
}

// NewGatekeeper returns an empty multi-tenant Gatekeeper; cfg is
// applied to every owner registered through it.
func NewGatekeeper(cfg sse.GatekeeperConfig) *Gatekeeper {
	return &Gatekeeper{
		cfg:            cfg,
		owners:         make(map[string]*sse.Gatekeeper),
		searchUsers:    make(map[string]struct{}),
		authorizations: make(map[string]map[string]Authorization),
	}
}

// RegisterDataOwner allocates a fresh per-owner key state (an
// sse.Gatekeeper running Setup(d)). Idempotent: a second call for the
// same ownerID returns ErrAlreadyRegistered and leaves the existing
// owner's keys untouched, matching spec.md §4.6.
func (g *Gatekeeper) RegisterDataOwner(ownerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.owners[ownerID]; exists {
		return ErrAlreadyRegistered
	}

	gk, err := sse.NewGatekeeper(g.cfg)
	if err != nil {
		return err
	}
	g.owners[ownerID] = gk
	return nil
}

// RegisterSearchUser allocates a search-user identity. Idempotent,
// same as RegisterDataOwner.
func (g *Gatekeeper) RegisterSearchUser(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.searchUsers[userID]; exists {
		return ErrAlreadyRegistered
	}
	g.searchUsers[userID] = struct{}{}
	return nil
}

// GrantAuthorization inserts or overwrites the (ownerID, userID) grant.
// A nil or empty allowedKeywords denotes the wildcard; a nil expiry
// denotes a grant that never expires.
func (g *Gatekeeper) GrantAuthorization(ownerID, userID string, allowedKeywords []string, expiry *time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.owners[ownerID]; !ok {
		return fmt.Errorf("%w: owner %q", sse.ErrNotFound, ownerID)
	}
	if _, ok := g.searchUsers[userID]; !ok {
		return fmt.Errorf("%w: search user %q", sse.ErrNotFound, userID)
	}

	if g.authorizations[ownerID] == nil {
		g.authorizations[ownerID] = make(map[string]Authorization)
	}
	g.authorizations[ownerID][userID] = newAuthorization(allowedKeywords, expiry)
	return nil
}

// RevokeAuthorization erases the (ownerID, userID) grant, if any.
func (g *Gatekeeper) RevokeAuthorization(ownerID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.authorizations[ownerID], userID)
}

// IsAuthorized reports whether (ownerID, userID) has an unexpired
// grant, independent of any particular query.
func (g *Gatekeeper) IsAuthorized(ownerID, userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	auth, ok := g.authorizations[ownerID][userID]
	return ok && !auth.expired(time.Now())
}

// GetUpdateCount returns UpdateCnt[keyword] for the given owner.
func (g *Gatekeeper) GetUpdateCount(ownerID, keyword string) (int, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return 0, err
	}
	return gk.UpdateCount(keyword), nil
}

// GetKt returns ownerID's TSet-address key array (spec.md §4.6's
// getKt read-only accessor).
func (g *Gatekeeper) GetKt(ownerID string) ([]*big.Int, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.KtKeys(), nil
}

// GetKx returns ownerID's XSet exponent key array (getKx).
func (g *Gatekeeper) GetKx(ownerID string) ([]*big.Int, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.KxKeys(), nil
}

// GetKy returns ownerID's per-id exponent PRF key (getKy).
func (g *Gatekeeper) GetKy(ownerID string) (*big.Int, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.KyKey(), nil
}

// GetKm returns ownerID's AE key (getKm).
func (g *Gatekeeper) GetKm(ownerID string) ([]byte, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.KmKey(), nil
}

// Update runs ownerID's Update(op, id, keyword), unchanged from the
// single-client algorithm (spec.md §4.1); only the owner-keyed lookup
// is new here.
func (g *Gatekeeper) Update(ownerID string, op sse.Operation, id, keyword string) (*sse.UpdateMetadata, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.Update(op, id, keyword)
}

// GenToken runs ownerID's GenTokenSimplified on behalf of userID,
// after checking that (ownerID, userID) is authorized and unexpired
// and that every keyword in query is within the grant's
// allowedKeywords (or the grant is a wildcard). Returns
// sse.ErrUnauthorized on any of those checks failing, and
// sse.ErrNotFound if userID was never registered (spec.md §4.6).
func (g *Gatekeeper) GenToken(ownerID, userID string, query []string) (*sse.SearchToken, error) {
	g.mu.RLock()
	if _, ok := g.searchUsers[userID]; !ok {
		g.mu.RUnlock()
		return nil, fmt.Errorf("%w: search user %q", sse.ErrNotFound, userID)
	}
	auth, ok := g.authorizations[ownerID][userID]
	g.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no grant for owner %q, user %q", sse.ErrUnauthorized, ownerID, userID)
	}
	if auth.expired(time.Now()) {
		return nil, fmt.Errorf("%w: grant for owner %q, user %q has expired", sse.ErrUnauthorized, ownerID, userID)
	}
	if !auth.permits(query) {
		return nil, fmt.Errorf("%w: query contains a keyword outside the grant for owner %q, user %q", sse.ErrUnauthorized, ownerID, userID)
	}

	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.GenTokenSimplified(query)
}

// UpdateCounts returns ownerID's full UpdateCnt snapshot, the explicit
// argument McClient.PrepareSearch needs (same rationale as the
// single-client variant, spec.md §9).
func (g *Gatekeeper) UpdateCounts(ownerID string) (map[string]int, error) {
	gk, err := g.owner(ownerID)
	if err != nil {
		return nil, err
	}
	return gk.UpdateCounts(), nil
}

func (g *Gatekeeper) owner(ownerID string) (*sse.Gatekeeper, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gk, ok := g.owners[ownerID]
	if !ok {
		return nil, fmt.Errorf("%w: data owner %q", sse.ErrNotFound, ownerID)
	}
	return gk, nil
}
