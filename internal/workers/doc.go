// Package workers computes worker pool sizes based on available CPUs.
package workers
