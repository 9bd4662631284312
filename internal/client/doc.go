// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package client talks to the CompareIntel comparison backend over HTTP.
//
// It builds comparison requests (prompt, model list, expanded history,
// ambient fields like timezone and a token estimate), opens the event
// stream, and — through Runner — drives a whole operation: decode, apply,
// watchdog, and end-of-stream classification. The network transport itself
// is plain net/http; this package consumes the already-open response body
// and owns nothing below it.
package client
