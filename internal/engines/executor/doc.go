/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package executor provides strategies for running optimization cycles.

# Overview

[PollingExecutor] re-solves a fixed set of problems at a fixed interval so
that plans follow price changes. Every attempt is reported as a [Cycle]. A failed cycle is retried with a doubling backoff
until it succeeds or the context is cancelled.

# Thread Safety

All executor types are safe for concurrent use from multiple goroutines.
*/
package executor
