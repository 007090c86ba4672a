// Package mincut implements the minimum s-t cut engine: a capacitated
// directed graph plus two interchangeable max-flow back ends (a BFS
// augmenting-path solver and a FIFO push-relabel solver), both returning
// the canonical source-reachable partition that defines the
// maximum-weight closure the pricer extracts.
//
// The graph representation and both solvers are trimmed to what a single
// min-cut call needs: no cost field, no pooling, no multi-commodity
// variants.
package mincut
