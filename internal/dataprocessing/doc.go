// Package dataprocessing loads base tables from their on-disk forms: a
// CSV pair (indices file plus dense data grid) or a NetCDF file. Values
// at or below the configured threshold are clamped to zero on load.
package dataprocessing
