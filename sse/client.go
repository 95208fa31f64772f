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
	"fmt"
	"strings"

	"github.com/ZBCccc/nomos/internal/curve"
)

// Client derives a SearchRequest from a SearchToken and decrypts the
// Server's results (spec.md §4.3). Client holds no key material of its
// own; every cryptographic input it needs arrives inside the token.
type Client struct {
	samplesK int
}

// NewClient returns a Client configured with the protocol's k
// parameter (must match the Gatekeeper it talks to).
func NewClient(samplesK int) *Client {
	return &Client{samplesK: samplesK}
}

// PrepareSearch implements spec.md §4.3's prepareSearch for the
// simplified token flow: the stoken list is the token's bstags, and for
// every j the xtoken row is the token's bxtrap matrix as issued (no
// per-j exponent is applied, so that the server's xtoken^alpha check
// reproduces the stored xtag H(w)^{Kx*alpha*beta}); the envelope is
// copied through unchanged.
// updateCnt is the caller-supplied snapshot of UpdateCnt[w1]
// (SPEC_FULL.md §9: threaded explicitly, never read from a global).
func (c *Client) PrepareSearch(token *SearchToken, query []string, updateCnt map[string]int) (*SearchRequest, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrMalformedToken)
	}

	w1 := query[0]
	m := updateCnt[w1]
	if m == 0 {
		return &SearchRequest{}, nil
	}
	if len(token.BSTag) != m || len(token.Delta) != m {
		return nil, fmt.Errorf("%w: token shape does not match UpdateCnt[%q]=%d", ErrMalformedToken, w1, m)
	}

	stokenList := make([][]byte, m)
	copy(stokenList, token.BSTag)

	n := len(query)
	xtokenList := make([][][][]byte, m)
	for j := 1; j <= m; j++ {
		matrix := make([][][]byte, n-1)
		for i := 0; i < n-1; i++ {
			if i >= len(token.BXTrap) {
				return nil, fmt.Errorf("%w: bxtrap row %d missing", ErrMalformedToken, i)
			}
			cols := make([][]byte, len(token.BXTrap[i]))
			for t, bxtrapBytes := range token.BXTrap[i] {
				if _, err := curve.UnmarshalG1(bxtrapBytes); err != nil {
					return nil, fmt.Errorf("%w: decode bxtrap: %v", ErrCrypto, err)
				}
				cols[t] = bxtrapBytes
			}
			matrix[i] = cols
		}
		xtokenList[j-1] = matrix
	}

	return &SearchRequest{
		StokenList: stokenList,
		XTokenList: xtokenList,
		Env:        token.Env,
	}, nil
}

// DecryptResults implements spec.md §4.3's decryptResults with real
// DEL-shadowing: it recovers (id, op) for each surviving candidate,
// tracks the most recently observed op per id (results arrive in
// ascending j, i.e. chronological order for the primary keyword), and
// returns ids whose latest observed op is ADD, in first-occurrence
// order. See SPEC_FULL.md §3 for why alpha is id-only and why this
// shadowing logic — not a flat "discard non-ADD rows" filter — is
// required for scenario 5 of spec.md §8 to hold under conjunctive
// queries.
func (c *Client) DecryptResults(results []SearchResultEntry, token *SearchToken) ([]string, error) {
	type state struct {
		op Operation
	}
	latest := make(map[string]*state)
	var firstSeen []string

	for _, result := range results {
		if result.J < 1 || result.J > len(token.Delta) {
			continue
		}
		mask := token.Delta[result.J-1]
		plaintext := xorStretch(result.SVal, mask)

		id, op, err := parsePayload(plaintext)
		if err != nil {
			continue
		}

		if _, seen := latest[id]; !seen {
			firstSeen = append(firstSeen, id)
		}
		latest[id] = &state{op: op}
	}

	out := make([]string, 0, len(firstSeen))
	for _, id := range firstSeen {
		if latest[id].op == OpAdd {
			out = append(out, id)
		}
	}
	return out, nil
}

// parsePayload splits a decrypted "id|OP" payload.
func parsePayload(plaintext []byte) (string, Operation, error) {
	s := string(plaintext)
	idx := strings.LastIndexByte(s, '|')
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: payload missing separator", ErrCrypto)
	}
	id := s[:idx]
	op, err := parseOperation(s[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return id, op, nil
}
