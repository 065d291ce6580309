// Package stopfinder discovers transit stops reachable on foot from a trip
// endpoint. A bounded street expansion feeds every settled vertex to a
// Visitor, which collects stops under a dominance rule and tells the search
// when to stop: either enough distinct stops have been found or the search
// has walked all the way to the destination, in which case transit is
// pointless for the trip anyway.
package stopfinder
