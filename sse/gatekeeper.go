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
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sync"

	"github.com/ZBCccc/nomos/internal/aead"
	"github.com/ZBCccc/nomos/internal/curve"
)

// Defaults match spec.md §4.1/§6: d keyword buckets, ℓ cross-tags per
// update, k cross-tag samples per conjunctive keyword per query.
const (
	DefaultBuckets    = 10
	DefaultCrossTagsL = 3
	DefaultSamplesK   = 2
)

// GatekeeperConfig configures the key-array sizes and protocol
// parameters a Gatekeeper is constructed with. The zero value is not
// valid; use NewGatekeeperConfig or set every field explicitly.
type GatekeeperConfig struct {
	Buckets    int // d: size of the Kt/Kx key arrays
	CrossTagsL int // ℓ: cross-tags minted per update
	SamplesK   int // k: cross-tag samples per query keyword
}

// NewGatekeeperConfig returns the spec's default configuration
// (d=10, ℓ=3, k=2).
func NewGatekeeperConfig() GatekeeperConfig {
	return GatekeeperConfig{
		Buckets:    DefaultBuckets,
		CrossTagsL: DefaultCrossTagsL,
		SamplesK:   DefaultSamplesK,
	}
}

// Gatekeeper holds the master key material for one owner's index and
// runs Setup/Update/GenToken (spec.md §4.1). It is safe for concurrent
// use; per spec.md §5 there is no concurrent-writer requirement, but
// readers (GenToken, UpdateCount) may run alongside Update.
type Gatekeeper struct {
	cfg GatekeeperConfig

	ks *big.Int
	kt []*big.Int
	kx []*big.Int
	ky *big.Int
	km []byte

	mu        sync.RWMutex
	updateCnt map[string]int
}

// NewGatekeeper runs Setup(d) (spec.md §4.1: "Setup(d)"): it samples
// Ks, Ky, the Kt/Kx key arrays and Km, and initializes UpdateCnt to
// empty. It fails with ErrInit if the system RNG is unavailable.
func NewGatekeeper(cfg GatekeeperConfig) (*Gatekeeper, error) {
	if cfg.Buckets <= 0 || cfg.CrossTagsL <= 0 || cfg.SamplesK <= 0 {
		return nil, fmt.Errorf("%w: buckets/ℓ/k must be positive", ErrInit)
	}

	ks, err := curve.RandScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: sample Ks: %v", ErrInit, err)
	}
	ky, err := curve.RandScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: sample Ky: %v", ErrInit, err)
	}
	kt, err := curve.RandScalars(cfg.Buckets)
	if err != nil {
		return nil, fmt.Errorf("%w: sample Kt: %v", ErrInit, err)
	}
	kx, err := curve.RandScalars(cfg.Buckets)
	if err != nil {
		return nil, fmt.Errorf("%w: sample Kx: %v", ErrInit, err)
	}
	km, err := aead.NewKey()
	if err != nil {
		return nil, fmt.Errorf("%w: sample Km: %v", ErrInit, err)
	}

	return &Gatekeeper{
		cfg:       cfg,
		ks:        ks,
		kt:        kt,
		kx:        kx,
		ky:        ky,
		km:        km,
		updateCnt: make(map[string]int),
	}, nil
}

// indexFunction computes I(w) = hash(w) mod d (spec.md §3), using the
// first 4 bytes of SHA-256 as a big-endian uint32, matching the
// original implementation's bit-shift construction.
func (g *Gatekeeper) indexFunction(keyword string) int {
	h := sha256.Sum256([]byte(keyword))
	idx := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return int(idx % uint32(g.cfg.Buckets))
}

// label builds the "w|cnt|tag" address/mask preimages of spec.md §4.1.
func label(parts ...string) []byte {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "|" + p
	}
	return []byte(out)
}

// Update runs Algorithm 2 of spec.md §4.1 for one (op, id, keyword)
// triple, advancing UpdateCnt[keyword] exactly once and returning the
// UpdateMetadata the caller must hand to Server.Update.
//
// alpha is computed as Fp(Ky, id) rather than the literal
// Fp(Ky, id||op) of spec.md §3 — see SPEC_FULL.md §3 and DESIGN.md for
// why the two variants of spec.md disagree and why id-only is the one
// that makes DEL-shadowing and the spec's own search-soundness law
// hold simultaneously.
func (g *Gatekeeper) Update(op Operation, id, keyword string) (*UpdateMetadata, error) {
	if id == "" || keyword == "" {
		return nil, fmt.Errorf("%w: id and keyword must be non-empty", ErrCrypto)
	}

	g.mu.Lock()
	cnt := g.updateCnt[keyword] + 1
	g.updateCnt[keyword] = cnt
	g.mu.Unlock()

	idx := g.indexFunction(keyword)
	cntStr := fmt.Sprintf("%d", cnt)

	// addr = H(w||cnt||0)^Kt[idx]
	addrPoint, err := curve.HashToG1(label(keyword, cntStr, "0"))
	if err != nil {
		return nil, fmt.Errorf("%w: hash addr preimage: %v", ErrCrypto, err)
	}
	addr := curve.ScalarMul(addrPoint, g.kt[idx])

	// mask = bytes(H(w||cnt||1)^Kt[idx])
	maskPoint, err := curve.HashToG1(label(keyword, cntStr, "1"))
	if err != nil {
		return nil, fmt.Errorf("%w: hash mask preimage: %v", ErrCrypto, err)
	}
	maskBytes := curve.MarshalG1(curve.ScalarMul(maskPoint, g.kt[idx]))

	plaintext := []byte(id + "|" + op.String())
	val := xorStretch(plaintext, maskBytes)

	// alpha = Fp(Ky, id) -- see doc comment above.
	alpha := curve.FpScalar(g.ky, []byte(id))

	// xtag_i = H(w)^{Kx[idx] * alpha * i}, i = 1..ell
	hw, err := curve.HashToG1([]byte(keyword))
	if err != nil {
		return nil, fmt.Errorf("%w: hash keyword: %v", ErrCrypto, err)
	}
	kxAlpha := curve.MulMod(g.kx[idx], alpha)
	xtags := make([][]byte, g.cfg.CrossTagsL)
	for i := 1; i <= g.cfg.CrossTagsL; i++ {
		exp := curve.MulMod(kxAlpha, big.NewInt(int64(i)))
		xtags[i-1] = curve.MarshalG1(curve.ScalarMul(hw, exp))
	}

	return &UpdateMetadata{
		Addr:  curve.MarshalG1(addr),
		Val:   val,
		Alpha: alpha,
		XTags: xtags,
	}, nil
}

// xorStretch XORs plaintext against mask, repeating (stretching) mask
// as needed, matching spec.md §4.1 step 4's mask_stretched.
func xorStretch(plaintext, mask []byte) []byte {
	out := make([]byte, len(plaintext))
	for i := range plaintext {
		out[i] = plaintext[i] ^ mask[i%len(mask)]
	}
	return out
}

// UpdateCount returns UpdateCnt[keyword] (0 if the keyword has never
// been updated).
func (g *Gatekeeper) UpdateCount(keyword string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.updateCnt[keyword]
}

// KtKeys returns a copy of the TSet-address key array (spec.md §4.6's
// getKt read-only accessor).
func (g *Gatekeeper) KtKeys() []*big.Int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*big.Int, len(g.kt))
	for i, k := range g.kt {
		out[i] = new(big.Int).Set(k)
	}
	return out
}

// KxKeys returns a copy of the XSet exponent key array (spec.md §4.6's
// getKx read-only accessor).
func (g *Gatekeeper) KxKeys() []*big.Int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*big.Int, len(g.kx))
	for i, k := range g.kx {
		out[i] = new(big.Int).Set(k)
	}
	return out
}

// KyKey returns a copy of the per-id exponent PRF key (spec.md §4.6's
// getKy read-only accessor).
func (g *Gatekeeper) KyKey() *big.Int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return new(big.Int).Set(g.ky)
}

// KmKey returns a copy of the AE key (spec.md §4.6's getKm read-only
// accessor).
func (g *Gatekeeper) KmKey() []byte {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]byte, len(g.km))
	copy(out, g.km)
	return out
}

// UpdateCounts returns a snapshot copy of the full UpdateCnt table,
// the explicit argument Client.PrepareSearch needs per SPEC_FULL.md §9
// ("expose it as an explicit argument ... not hidden global state").
func (g *Gatekeeper) UpdateCounts() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]int, len(g.updateCnt))
	for k, v := range g.updateCnt {
		out[k] = v
	}
	return out
}

// GenTokenSimplified runs Algorithm 3's simplified (non-OPRF) path
// (spec.md §4.1): for a conjunctive query [w1,...,wn] it returns the
// SearchToken the Client uses to prepare a SearchRequest. If
// UpdateCnt[w1] is zero the query is unsatisfiable and an empty token
// is returned (not an error — an unknown primary keyword is not a
// NotFoundError per spec.md §4.1's failure semantics).
func (g *Gatekeeper) GenTokenSimplified(query []string) (*SearchToken, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrMalformedToken)
	}

	w1 := query[0]
	m := g.UpdateCount(w1)
	if m == 0 {
		return &SearchToken{}, nil
	}

	i1 := g.indexFunction(w1)

	hw1, err := curve.HashToG1([]byte(w1))
	if err != nil {
		return nil, fmt.Errorf("%w: hash w1: %v", ErrCrypto, err)
	}
	strap := curve.ScalarMul(hw1, g.ks)

	bstag := make([][]byte, m)
	delta := make([][]byte, m)
	for j := 1; j <= m; j++ {
		jStr := fmt.Sprintf("%d", j)

		bstagPoint, err := curve.HashToG1(label(w1, jStr, "0"))
		if err != nil {
			return nil, fmt.Errorf("%w: hash bstag preimage: %v", ErrCrypto, err)
		}
		bstag[j-1] = curve.MarshalG1(curve.ScalarMul(bstagPoint, g.kt[i1]))

		deltaPoint, err := curve.HashToG1(label(w1, jStr, "1"))
		if err != nil {
			return nil, fmt.Errorf("%w: hash delta preimage: %v", ErrCrypto, err)
		}
		delta[j-1] = curve.MarshalG1(curve.ScalarMul(deltaPoint, g.kt[i1]))
	}

	betas, err := sampleBetas(g.cfg.SamplesK, g.cfg.CrossTagsL)
	if err != nil {
		return nil, fmt.Errorf("%w: sample betas: %v", ErrCrypto, err)
	}

	n := len(query)
	bxtrap := make([][][]byte, n-1)
	for i := 0; i < n-1; i++ {
		wi := query[i+1]
		ii := g.indexFunction(wi)
		hwi, err := curve.HashToG1([]byte(wi))
		if err != nil {
			return nil, fmt.Errorf("%w: hash query keyword: %v", ErrCrypto, err)
		}
		xtrap := curve.ScalarMul(hwi, g.kx[ii])

		row := make([][]byte, g.cfg.SamplesK)
		for t, beta := range betas {
			row[t] = curve.MarshalG1(curve.ScalarMul(xtrap, big.NewInt(int64(beta))))
		}
		bxtrap[i] = row
	}

	env, err := g.buildEnvelope(n, m)
	if err != nil {
		return nil, fmt.Errorf("%w: build envelope: %v", ErrCrypto, err)
	}

	return &SearchToken{
		Strap:  curve.MarshalG1(strap),
		BSTag:  bstag,
		Delta:  delta,
		BXTrap: bxtrap,
		Env:    env,
	}, nil
}

// sampleBetas draws k independent, uniformly random indices from
// {1,...,ell} using the system CSPRNG. spec.md §9's open questions
// flags the original implementation's use of a non-cryptographic RNG
// here as a defect; this is the corrected, CSPRNG-backed version.
func sampleBetas(k, ell int) ([]int, error) {
	betas := make([]int, k)
	for t := 0; t < k; t++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(ell)))
		if err != nil {
			return nil, err
		}
		betas[t] = int(n.Int64()) + 1
	}
	return betas, nil
}

// buildEnvelope seals the (unused by the simplified flow) rho/gamma
// blinding scalars under Km, matching spec.md §3's env field. The
// simplified Search/PrepareSearch path never opens this envelope; see
// SPEC_FULL.md §2 on the hardened OPRF path.
func (g *Gatekeeper) buildEnvelope(n, m int) ([]byte, error) {
	rho, err := curve.RandScalars(n)
	if err != nil {
		return nil, err
	}
	gamma, err := curve.RandScalars(m)
	if err != nil {
		return nil, err
	}

	var plaintext []byte
	for _, r := range rho {
		plaintext = append(plaintext, r.Bytes()...)
	}
	for _, gm := range gamma {
		plaintext = append(plaintext, gm.Bytes()...)
	}

	return aead.Seal(g.km, plaintext)
}
