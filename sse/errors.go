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

import "errors"

// Sentinel errors per spec.md §7. Callers should compare with
// errors.Is, never string-match; operations wrap these with
// fmt.Errorf("...: %w", ErrXxx) to add context.
var (
	// ErrInit signals the curve/PRNG runtime was unavailable during
	// Setup.
	ErrInit = errors.New("sse: initialization failed")

	// ErrUnauthorized signals a multi-client access check failed
	// (unknown owner/user pair, expired authorization, or a keyword
	// outside the grant).
	ErrUnauthorized = errors.New("sse: unauthorized")

	// ErrMalformedToken signals a token or request whose shape is
	// inconsistent with its claimed n/m.
	ErrMalformedToken = errors.New("sse: malformed token")

	// ErrNotFound signals an owner/user registration lookup failed.
	ErrNotFound = errors.New("sse: not found")

	// ErrCrypto signals a point-decoding failure or a scalar that was
	// zero where a nonzero value was required.
	ErrCrypto = errors.New("sse: crypto error")
)
