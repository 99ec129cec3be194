// Package nse provides the NSE client: symbol lists from the archives CSV
// endpoints and per-symbol classification from the quote API.
//
// Endpoints:
//   - Mainboard list: https://nsearchives.nseindia.com/content/equities/EQUITY_L.csv
//   - SME list: https://nsearchives.nseindia.com/emerge/corporates/content/SME_EQUITY_L.csv
//   - Detail: https://www.nseindia.com/api/quote-equity
//
// These are scraped endpoints, not a supported API: calls go through the
// shared retry policy and the caller is expected to pace its requests.
package nse
