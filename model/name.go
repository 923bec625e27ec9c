// Package model implements the hierarchical model graph of spec section 4:
// ports, couplings, the atomic model contract, and coupled-model hierarchy
// with optional flattening (flattening itself lives in the routing
// package, which builds on the graph types declared here).
package model

// Name is a symbolic identifier for models and ports.
type Name string
