// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package storage persists comparisons behind a single Store interface with
// two interchangeable backends: LocalStore (on-device SQLite) and
// RemoteStore (the CompareIntel API). Both deal in the same flat message
// records; round structure is reconstructed on load by the model package.
package storage
