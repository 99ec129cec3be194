// Package model defines shared data types used across the industry mapper.
//
// Conventions:
//   - Classification records are ordered 4-tuples: Macro, Sector, Industry,
//     Basic Industry. The sentinel "-" marks a field that was queried but
//     carries no value upstream.
//   - Symbols are exchange tickers, case-preserved as received. The ticker
//     is the join key between both exchanges.
package model
