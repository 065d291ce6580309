// Package streetrouter implements the two concrete routing engines: the
// complete Router, which answers any request over the live travel-time
// model and can reach transit through stop discovery, and the per-bin
// BinnedInstance produced by BinnedBuilder, which answers car and walk
// requests against a drive-time table frozen at graph build time.
package streetrouter
