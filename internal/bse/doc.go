// Package bse provides the BSE client: the active securities list and
// per-scrip classification from the header API.
//
// BSE publishes a different vocabulary than NSE; fields map into the shared
// record order as Sector -> Macro, IndustryNew -> Sector, IGroup -> Industry,
// ISubGroup -> Basic Industry.
package bse
