// Package store implements the durable symbol-to-classification mapping.
//
// State is a single JSON document:
//
//	{
//	  "metadata": ["Macro", "Sector", "Industry", "Basic Industry"],
//	  "data": { "RELIANCE": ["Energy", "...", "...", "..."], ... }
//	}
//
// The store is mutated by a single sequential sync run and checkpointed
// periodically, so there is no locking. Each save is one WriteFile call;
// a process killed mid-write can leave a torn file, which the next Load
// recovers from by starting fresh.
package store
