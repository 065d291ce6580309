// Package network holds the in-memory road network the routing engines
// operate on: nodes, directed links with free-flow speeds, and a grid
// index for snapping coordinates to the nearest link.
//
// The network is loaded once at startup and never mutated afterwards, so
// it is safe to share across concurrently executing route calculations.
package network
