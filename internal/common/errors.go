// Copyright 2026 DecoyFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import "errors"

// Error taxonomy shared by the jail, store and capture layers. All of these
// propagate unchanged to the protocol adapter, which owns the client-facing
// response. The jail performs no retries; a failure is terminal for that one
// operation, not for the session.
var (
	ErrExists         = errors.New("already exists")
	ErrNotFound       = errors.New("not found")
	ErrNotDir         = errors.New("not a directory")
	ErrNotSymlink     = errors.New("not a symlink")
	ErrInvalidPath    = errors.New("invalid path")
	ErrNotImplemented = errors.New("not implemented")
)
