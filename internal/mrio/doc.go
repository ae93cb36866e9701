// Package mrio holds the core data structures of the disaggregation
// engine: the hierarchical sector × region index set and the dense flow
// table addressed through it.
//
// Sectors and regions exist on two levels. Super members appear in the
// base table; sub members are created by splitting a super into named
// parts. A "leaf" is any member without children, which is what the
// dense table is addressed by. Not every (sector, region) pair exists:
// only pairs admitted by the base data are given, and sub pairs inherit
// existence from their parents.
package mrio
