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

import "github.com/ZBCccc/nomos/sse"

// Client is the search user's side of the multi-client protocol. It
// is a thin wrapper over sse.Client: once a McGatekeeper.GenToken call
// has cleared authorization, deriving a SearchRequest and decrypting
// results is identical to the single-client variant, since neither
// operation touches owner or authorization state (spec.md §4.3).
type Client struct {
	inner *sse.Client
}

// NewClient returns a Client configured with the protocol's k
// parameter (must match the Gatekeeper it talks to).
func NewClient(samplesK int) *Client {
	return &Client{inner: sse.NewClient(samplesK)}
}

// PrepareSearch derives a SearchRequest from an authorized token.
// updateCnt is the snapshot returned by Gatekeeper.UpdateCounts for
// the same owner the token was issued against.
func (c *Client) PrepareSearch(token *sse.SearchToken, query []string, updateCnt map[string]int) (*sse.SearchRequest, error) {
	return c.inner.PrepareSearch(token, query, updateCnt)
}

// DecryptResults decrypts and DEL-filters a Server.Search result set.
func (c *Client) DecryptResults(results []sse.SearchResultEntry, token *sse.SearchToken) ([]string, error) {
	return c.inner.DecryptResults(results, token)
}
