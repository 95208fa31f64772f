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

// Package multiclient is the gatekeeper-mediated multi-tenant
// extension of sse (spec.md §4.6): every operation gains an owner_id
// prefix, and GenToken additionally enforces per-user authorization
// grants. It is built on top of sse, not a reimplementation of it —
// one sse.Gatekeeper/sse.Server pair per registered data owner gives
// tenant isolation for free, since two owners never share a map.
package multiclient

import "time"

// Authorization is one owner/user grant: allowedKeywords = nil denotes
// the wildcard (spec.md §3: "allowed_keywords = ∅ denotes wildcard"),
// and a nil expiry denotes a grant that never expires.
type Authorization struct {
	AllowedKeywords map[string]struct{}
	Expiry          *time.Time
}

func newAuthorization(allowedKeywords []string, expiry *time.Time) Authorization {
	var set map[string]struct{}
	if len(allowedKeywords) > 0 {
		set = make(map[string]struct{}, len(allowedKeywords))
		for _, kw := range allowedKeywords {
			set[kw] = struct{}{}
		}
	}
	return Authorization{AllowedKeywords: set, Expiry: expiry}
}

func (a Authorization) expired(now time.Time) bool {
	return a.Expiry != nil && now.After(*a.Expiry)
}

func (a Authorization) permits(query []string) bool {
	if a.AllowedKeywords == nil {
		return true
	}
	for _, kw := range query {
		if _, ok := a.AllowedKeywords[kw]; !ok {
			return false
		}
	}
	return true
}
