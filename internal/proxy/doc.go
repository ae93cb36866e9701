// Package proxy models external evidence used to steer a
// disaggregation: a multi-dimensional tensor of non-negative values,
// optional many-to-many mappings between the tensor's vocabulary and
// the table's sectors and regions, and application tuples that say which
// of the four flow positions (i, r, j, s) the tensor constrains.
package proxy
