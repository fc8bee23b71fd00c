// Package io reads and writes snapshot files.
//
// # Overview
//
// A snapshot bundles everything one voting power computation needs: the
// space it belongs to, the timestamp the registry is evaluated at, the
// delegation action log and the score table.
//
//	{
//	  "space": "safe.eth",
//	  "when": 1700000000,
//	  "actions": [
//	    {"account": "0xA", "chainId": 1, "registry": "0xR",
//	     "set": {"delegation": [{"delegate": "0xB", "ratio": "20"}], "expiration": 0}}
//	  ],
//	  "scores": {"0xA": "1000", "0xB": "100"}
//	}
//
// Instead of "actions" a snapshot may carry a precomputed "weights" object
// in the nested form written by the dag package. When both are present the
// weights win and the action log is kept only for reference.
//
// # Import
//
// Use [ImportJSON] to read a snapshot from a file path, or [ReadJSON] to read
// from any io.Reader. Decoding validates that the document is well formed:
// every action has exactly one payload, ratios and scores are non-negative
// integers. Addresses are normalized to their checksummed form.
//
// # Export
//
// [WriteJSON] and [ExportJSON] write the same format back. Big integers are
// written as decimal strings so that values above 2^53 survive consumers
// that parse JSON numbers as floats.
//
// # Hashing
//
// [Snapshot.Hash] returns a content hash of the canonical encoding. The
// pipeline uses it as part of the result cache key, so two files with the
// same content share cached results regardless of their names.
package io
