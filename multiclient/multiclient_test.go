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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZBCccc/nomos/sse"
)

func exactConfig() sse.GatekeeperConfig {
	return sse.GatekeeperConfig{Buckets: sse.DefaultBuckets, CrossTagsL: 3, SamplesK: 3}
}

// search runs the full GenToken/PrepareSearch/Search/DecryptResults
// pipeline for one owner/user/query and returns the decrypted ids (or
// the error GenToken produced).
func search(t *testing.T, gk *Gatekeeper, sv *Server, cl *Client, ownerID, userID string, query []string) ([]string, error) {
	t.Helper()
	token, err := gk.GenToken(ownerID, userID, query)
	if err != nil {
		return nil, err
	}
	updateCnt, err := gk.UpdateCounts(ownerID)
	require.NoError(t, err)

	req, err := cl.PrepareSearch(token, query, updateCnt)
	require.NoError(t, err)

	results := sv.Search(ownerID, req)
	return cl.DecryptResults(results, token)
}

func TestScenario6MultiClientIsolation(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	sv := NewServer()
	cl := NewClient(exactConfig().SamplesK)

	require.NoError(t, gk.RegisterDataOwner("ownerA"))
	require.NoError(t, gk.RegisterDataOwner("ownerB"))
	require.NoError(t, gk.RegisterSearchUser("userU"))
	require.NoError(t, gk.GrantAuthorization("ownerA", "userU", nil, nil))

	metaA, err := gk.Update("ownerA", sse.OpAdd, "docA", "x")
	require.NoError(t, err)
	sv.Update("ownerA", metaA)

	metaB, err := gk.Update("ownerB", sse.OpAdd, "docB", "x")
	require.NoError(t, err)
	sv.Update("ownerB", metaB)

	ids, err := search(t, gk, sv, cl, "ownerA", "userU", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docA"}, ids)

	_, err = search(t, gk, sv, cl, "ownerB", "userU", []string{"x"})
	assert.ErrorIs(t, err, sse.ErrUnauthorized)
}

func TestRegisterDataOwnerIsIdempotent(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	assert.ErrorIs(t, gk.RegisterDataOwner("owner1"), ErrAlreadyRegistered)
}

func TestRegisterSearchUserIsIdempotent(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterSearchUser("user1"))
	assert.ErrorIs(t, gk.RegisterSearchUser("user1"), ErrAlreadyRegistered)
}

func TestGenTokenFailsForUnknownUser(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	_, err := gk.GenToken("owner1", "ghost", []string{"x"})
	assert.ErrorIs(t, err, sse.ErrNotFound)
}

func TestGenTokenFailsWithoutGrant(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	require.NoError(t, gk.RegisterSearchUser("user1"))

	_, err := gk.GenToken("owner1", "user1", []string{"x"})
	assert.ErrorIs(t, err, sse.ErrUnauthorized)
}

func TestGenTokenFailsOnExpiredGrant(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	require.NoError(t, gk.RegisterSearchUser("user1"))

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, gk.GrantAuthorization("owner1", "user1", nil, &expired))

	_, err := gk.GenToken("owner1", "user1", []string{"x"})
	assert.ErrorIs(t, err, sse.ErrUnauthorized)
	assert.False(t, gk.IsAuthorized("owner1", "user1"))
}

func TestGenTokenFailsForKeywordOutsideGrant(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	require.NoError(t, gk.RegisterSearchUser("user1"))
	require.NoError(t, gk.GrantAuthorization("owner1", "user1", []string{"allowed"}, nil))

	_, err := gk.Update("owner1", sse.OpAdd, "doc1", "forbidden")
	require.NoError(t, err)

	_, err = gk.GenToken("owner1", "user1", []string{"forbidden"})
	assert.ErrorIs(t, err, sse.ErrUnauthorized)

	_, err = gk.GenToken("owner1", "user1", []string{"allowed"})
	assert.NoError(t, err)
}

func TestRevokeAuthorizationRemovesAccess(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	require.NoError(t, gk.RegisterSearchUser("user1"))
	require.NoError(t, gk.GrantAuthorization("owner1", "user1", nil, nil))
	require.True(t, gk.IsAuthorized("owner1", "user1"))

	gk.RevokeAuthorization("owner1", "user1")
	assert.False(t, gk.IsAuthorized("owner1", "user1"))
}

func TestKeyAccessorsAreScopedPerOwner(t *testing.T) {
	gk := NewGatekeeper(exactConfig())
	require.NoError(t, gk.RegisterDataOwner("owner1"))
	require.NoError(t, gk.RegisterDataOwner("owner2"))

	ky1, err := gk.GetKy("owner1")
	require.NoError(t, err)
	ky2, err := gk.GetKy("owner2")
	require.NoError(t, err)
	assert.NotEqual(t, 0, ky1.Cmp(ky2))

	kt1, err := gk.GetKt("owner1")
	require.NoError(t, err)
	assert.Len(t, kt1, exactConfig().Buckets)
}
