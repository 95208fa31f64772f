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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// exactConfig sets k = ell so cross-filter sampling never misses a
// true match (spec.md §8: "tests fix k = ell for exact correctness
// checks").
func exactConfig() GatekeeperConfig {
	return GatekeeperConfig{Buckets: DefaultBuckets, CrossTagsL: 3, SamplesK: 3}
}

type harness struct {
	t  *testing.T
	gk *Gatekeeper
	sv *Server
	cl *Client
}

func newHarness(t *testing.T) *harness {
	cfg := exactConfig()
	gk, err := NewGatekeeper(cfg)
	require.NoError(t, err)
	return &harness{
		t:  t,
		gk: gk,
		sv: NewServer(),
		cl: NewClient(cfg.SamplesK),
	}
}

func (h *harness) update(op Operation, id, keyword string) {
	meta, err := h.gk.Update(op, id, keyword)
	require.NoError(h.t, err)
	h.sv.Update(meta)
}

func (h *harness) search(query ...string) []string {
	token, err := h.gk.GenTokenSimplified(query)
	require.NoError(h.t, err)

	req, err := h.cl.PrepareSearch(token, query, h.gk.UpdateCounts())
	require.NoError(h.t, err)

	results := h.sv.Search(req)
	ids, err := h.cl.DecryptResults(results, token)
	require.NoError(h.t, err)

	sort.Strings(ids)
	return ids
}

// seedCorpus installs the six updates shared by scenarios 1-5 of
// spec.md §8.
func seedCorpus(h *harness) {
	h.update(OpAdd, "doc1", "crypto")
	h.update(OpAdd, "doc1", "security")
	h.update(OpAdd, "doc2", "security")
	h.update(OpAdd, "doc2", "privacy")
	h.update(OpAdd, "doc3", "crypto")
	h.update(OpAdd, "doc3", "blockchain")
}

func TestScenario1ConjunctiveCryptoSecurity(t *testing.T) {
	h := newHarness(t)
	seedCorpus(h)
	require.Equal(t, []string{"doc1"}, h.search("crypto", "security"))
}

func TestScenario2ConjunctiveSecurityPrivacy(t *testing.T) {
	h := newHarness(t)
	seedCorpus(h)
	require.Equal(t, []string{"doc2"}, h.search("security", "privacy"))
}

func TestScenario3SingleKeywordCrypto(t *testing.T) {
	h := newHarness(t)
	seedCorpus(h)
	require.Equal(t, []string{"doc1", "doc3"}, h.search("crypto"))
}

func TestScenario4UnknownKeyword(t *testing.T) {
	h := newHarness(t)
	seedCorpus(h)
	require.Empty(t, h.search("nonexistent"))
}

func TestScenario5DeleteShadowsConjunctiveMatch(t *testing.T) {
	h := newHarness(t)
	seedCorpus(h)
	require.Equal(t, []string{"doc1"}, h.search("crypto", "security"))

	h.update(OpDel, "doc1", "crypto")
	require.Empty(t, h.search("crypto", "security"))

	// crypto alone still finds doc3; doc1's crypto entry is shadowed.
	require.Equal(t, []string{"doc3"}, h.search("crypto"))
}

func TestUpdateCountInvariant(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.gk.UpdateCount("crypto"))
	h.update(OpAdd, "doc1", "crypto")
	require.Equal(t, 1, h.gk.UpdateCount("crypto"))
	h.update(OpAdd, "doc2", "crypto")
	require.Equal(t, 2, h.gk.UpdateCount("crypto"))
	h.update(OpDel, "doc1", "crypto")
	require.Equal(t, 3, h.gk.UpdateCount("crypto"))
}

func TestEveryUpdateMintsExactlyEllCrossTags(t *testing.T) {
	h := newHarness(t)
	meta, err := h.gk.Update(OpAdd, "doc1", "crypto")
	require.NoError(t, err)
	require.Len(t, meta.XTags, h.gk.cfg.CrossTagsL)
}

func TestAlphaIsDeterministicPerID(t *testing.T) {
	h := newHarness(t)
	m1, err := h.gk.Update(OpAdd, "doc1", "crypto")
	require.NoError(t, err)
	m2, err := h.gk.Update(OpAdd, "doc1", "security")
	require.NoError(t, err)
	require.Equal(t, 0, m1.Alpha.Cmp(m2.Alpha), "alpha must depend only on id, not on keyword or op")

	m3, err := h.gk.Update(OpDel, "doc1", "crypto")
	require.NoError(t, err)
	require.Equal(t, 0, m1.Alpha.Cmp(m3.Alpha), "alpha must be stable across ADD and DEL of the same id")
}

func TestSearchOnEmptyIndexReturnsEmpty(t *testing.T) {
	h := newHarness(t)
	require.Empty(t, h.search("crypto", "security"))
}

func TestTSetAndXSetSizesGrowMonotonically(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.sv.TSetSize())
	require.Equal(t, 0, h.sv.XSetSize())

	seedCorpus(h)
	require.Equal(t, 6, h.sv.TSetSize())
	require.Equal(t, 6*h.gk.cfg.CrossTagsL, h.sv.XSetSize())
}
