package network

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a network from two CSV files. nodes.csv needs node_id, lat
// and lon columns; links.csv needs link_id, from_node, to_node, length_m
// and free_speed_mps, plus an optional pipe-separated modes column.
func LoadCSV(nodesPath, linksPath string) (*Network, error) {
	nodes, err := loadNodesCSV(nodesPath)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	links, err := loadLinksCSV(linksPath)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	return New(nodes, links)
}

func loadNodesCSV(path string) ([]Node, error) {
	rec, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	idx := headerIndex(rec[0])
	id, lat, lon := idx("node_id"), idx("lat"), idx("lon")
	if id < 0 || lat < 0 || lon < 0 {
		return nil, fmt.Errorf("%s: missing node_id/lat/lon columns", path)
	}
	nodes := make([]Node, 0, len(rec)-1)
	for _, row := range rec[1:] {
		la, err := strconv.ParseFloat(row[lat], 64)
		if err != nil {
			return nil, fmt.Errorf("node %s: bad lat: %w", row[id], err)
		}
		lo, err := strconv.ParseFloat(row[lon], 64)
		if err != nil {
			return nil, fmt.Errorf("node %s: bad lon: %w", row[id], err)
		}
		nodes = append(nodes, Node{ID: row[id], Coord: Coord{Lat: la, Lon: lo}})
	}
	return nodes, nil
}

func loadLinksCSV(path string) ([]*Link, error) {
	rec, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	idx := headerIndex(rec[0])
	id, from, to := idx("link_id"), idx("from_node"), idx("to_node")
	length, speed, modes := idx("length_m"), idx("free_speed_mps"), idx("modes")
	if id < 0 || from < 0 || to < 0 || length < 0 || speed < 0 {
		return nil, fmt.Errorf("%s: missing required link columns", path)
	}
	links := make([]*Link, 0, len(rec)-1)
	for _, row := range rec[1:] {
		ln, err := strconv.ParseFloat(row[length], 64)
		if err != nil {
			return nil, fmt.Errorf("link %s: bad length_m: %w", row[id], err)
		}
		sp, err := strconv.ParseFloat(row[speed], 64)
		if err != nil {
			return nil, fmt.Errorf("link %s: bad free_speed_mps: %w", row[id], err)
		}
		l := &Link{ID: row[id], From: row[from], To: row[to], LengthM: ln, FreeSpeedMPS: sp}
		if modes >= 0 && row[modes] != "" {
			l.Modes = strings.Split(row[modes], "|")
		}
		links = append(links, l)
	}
	return links, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

func headerIndex(head []string) func(string) int {
	return func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
}
