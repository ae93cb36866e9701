// Package exporter serialises refined tables back to disk, mirroring
// the base-table formats at leaf resolution.
package exporter
