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

import "errors"

// ErrAlreadyRegistered signals registerDataOwner/registerSearchUser
// was called for an id that already exists; spec.md §4.6 calls this
// case idempotent rather than fatal, so callers typically ignore it.
var ErrAlreadyRegistered = errors.New("multiclient: already registered")
