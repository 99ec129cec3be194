// Package retry implements the failure classification and backoff policy
// shared by both exchange clients.
//
// Both upstreams are rate-limit-sensitive scraped endpoints, so the policy
// is deliberately conservative: only timeouts and a fixed allow-list of
// HTTP statuses (408, 429, 502, 503, 504) are retried; every other failure
// is terminal and surfaces immediately. Backoff is capped exponential with
// a fixed floor.
//
// A Policy is selected once at startup from the run frequency (daily,
// weekly, monthly) and applied uniformly to every call on both clients.
package retry
