// Package routing defines the domain types shared by all routing engines:
// requests, itineraries, responses and the Engine interface. It carries no
// routing logic of its own beyond request narrowing and response merging.
package routing
