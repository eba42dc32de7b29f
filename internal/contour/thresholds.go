package contour

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Thresholds maps a zoom level to its contour intervals: element 0 is
// the minor interval, later elements the nested major multiples.
type Thresholds map[int][]float64

// ParseThresholds reads the "z*minor*major~z*minor*major" grammar, for
// example "11*200*1000~14*50*500". Every level after the first must be
// a multiple of the one before it.
func ParseThresholds(s string) (Thresholds, error) {
	t := Thresholds{}
	if s == "" {
		return t, nil
	}
	for _, entry := range strings.Split(s, "~") {
		parts := strings.Split(entry, "*")
		if len(parts) < 2 {
			return nil, fmt.Errorf("thresholds entry %q: want z*minor[*major...]", entry)
		}
		zoom, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("thresholds entry %q: bad zoom: %v", entry, err)
		}
		levels := make([]float64, 0, len(parts)-1)
		for _, p := range parts[1:] {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("thresholds entry %q: bad level: %v", entry, err)
			}
			if v <= 0 {
				return nil, fmt.Errorf("thresholds entry %q: levels must be positive", entry)
			}
			levels = append(levels, v)
		}
		for i := 1; i < len(levels); i++ {
			if math.Mod(levels[i], levels[i-1]) != 0 {
				return nil, fmt.Errorf("thresholds entry %q: %v is not a multiple of %v", entry, levels[i], levels[i-1])
			}
		}
		t[zoom] = levels
	}
	return t, nil
}

// ForZoom returns the entry with the largest zoom not above z, or nil.
func (t Thresholds) ForZoom(z int) []float64 {
	best := -1
	for zoom := range t {
		if zoom <= z && zoom > best {
			best = zoom
		}
	}
	if best < 0 {
		return nil
	}
	return t[best]
}

// String renders the grammar back out, zooms sorted.
func (t Thresholds) String() string {
	zooms := make([]int, 0, len(t))
	for z := range t {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)

	entries := make([]string, 0, len(zooms))
	for _, z := range zooms {
		parts := []string{strconv.Itoa(z)}
		for _, level := range t[z] {
			parts = append(parts, strconv.FormatFloat(level, 'g', -1, 64))
		}
		entries = append(entries, strings.Join(parts, "*"))
	}
	return strings.Join(entries, "~")
}
