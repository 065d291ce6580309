/*
Package gtfs loads transit stop data from GTFS static feeds.

The router only needs stop identities and coordinates; the rest of the
feed (trips, stop times, shapes) belongs to the simulation side. LoadStops
reads stops.txt straight out of a local zip:

	stops, err := gtfs.LoadStops("data/gtfs.zip")
	if err != nil {
	    log.Fatal(err)
	}
	index := stopfinder.NewIndex(stops, net, 500)

Parse the feed once at startup and keep the result; GTFS is static data.
*/
package gtfs
