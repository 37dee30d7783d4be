// Package metrics defines the Prometheus metrics exported by the MusicCRS
// agent and serves the scrape endpoint.
//
// Metric families cover the HTTP surface, catalog queries, resolution
// outcomes, disambiguation selections, external popularity lookups, cover
// renders, and session state gauges.
package metrics
