package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/trip-router/network"
)

// Stop is one transit stop from a GTFS static feed.
type Stop struct {
	ID    string
	Name  string
	Coord network.Coord
}

// LoadStops reads stops.txt out of a local GTFS zip. Rows without usable
// coordinates are skipped.
func LoadStops(path string) ([]Stop, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open gtfs zip: %w", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, "stops.txt") {
			return readStopsFile(f)
		}
	}
	return nil, fmt.Errorf("%s: no stops.txt in archive", path)
}

func readStopsFile(f *zip.File) ([]Stop, error) {
	rec, err := readZippedCSV(f)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("stops.txt: empty file")
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	sID := idx("stop_id")
	sName := idx("stop_name")
	sLat := idx("stop_lat")
	sLon := idx("stop_lon")
	if sID < 0 || sLat < 0 || sLon < 0 {
		return nil, fmt.Errorf("stops.txt: missing stop_id/stop_lat/stop_lon columns")
	}
	stops := make([]Stop, 0, len(rec)-1)
	for _, row := range rec[1:] {
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(row[sLat]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(row[sLon]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		s := Stop{ID: row[sID], Coord: network.Coord{Lat: lat, Lon: lon}}
		if sName >= 0 {
			s.Name = row[sName]
		}
		stops = append(stops, s)
	}
	return stops, nil
}

func readZippedCSV(f *zip.File) ([][]string, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return csv.NewReader(r).ReadAll()
}
