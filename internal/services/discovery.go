package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/neotogether/neotogether/internal/database"
)

// Coordinates within this box around a location are treated as "the same
// place" for discovery. Roughly a 100m x 100m neighborhood at the equator.
const proximityDegrees = 0.001

// roundTo5 rounds a coordinate to 5 decimal places, the granularity at
// which availability slots are grouped into locations.
func roundTo5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// LocationKey identifies a discovery location by its rounded coordinates.
type LocationKey struct {
	Latitude  float64
	Longitude float64
}

func locationKey(lat, lng float64) LocationKey {
	return LocationKey{Latitude: roundTo5(lat), Longitude: roundTo5(lng)}
}

// Location is an aggregated place where at least one active slot exists.
// Availability is the representative slot clients use to drill into the
// people listing.
type Location struct {
	Availability database.Availability `json:"availability"`
	LocationName string                `json:"location_name"`
	Latitude     float64               `json:"latitude"`
	Longitude    float64               `json:"longitude"`
	SlotCount    int                   `json:"slot_count"`
}

// GroupByLocation aggregates availability slots into locations keyed by
// rounded coordinates. The first slot seen for a key becomes the
// representative and supplies the display name, and locations come back in
// first-seen order.
func GroupByLocation(slots []database.Availability) []Location {
	index := make(map[LocationKey]int, len(slots))
	locations := make([]Location, 0, len(slots))

	for _, slot := range slots {
		key := locationKey(slot.Latitude, slot.Longitude)
		if i, ok := index[key]; ok {
			locations[i].SlotCount++
			continue
		}
		index[key] = len(locations)
		locations = append(locations, Location{
			Availability: slot,
			LocationName: slot.LocationName,
			Latitude:     key.Latitude,
			Longitude:    key.Longitude,
			SlotCount:    1,
		})
	}
	return locations
}

// TimeWindowsIntersect reports whether two "HH:MM" windows overlap.
// Zero-padded 24h strings compare correctly lexicographically.
func TimeWindowsIntersect(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

// SharedDays returns the repeat days present in both slots, in the order
// they appear in a.
func SharedDays(a, b []int64) []int64 {
	inB := make(map[int64]bool, len(b))
	for _, d := range b {
		inB[d] = true
	}
	var shared []int64
	for _, d := range a {
		if inB[d] {
			shared = append(shared, d)
		}
	}
	return shared
}

// OverlapWindow is a concrete window during which two users could meet:
// the days both repeat on and the intersection of their time ranges.
type OverlapWindow struct {
	Days  []int64 `json:"days"`
	Start string  `json:"start"`
	End   string  `json:"end"`
}

// ComputeOverlaps pairs every slot of mine against every slot of theirs and
// collects the windows where both days and times intersect.
func ComputeOverlaps(mine, theirs []database.Availability) []OverlapWindow {
	var windows []OverlapWindow
	for _, m := range mine {
		for _, t := range theirs {
			days := SharedDays(m.RepeatDays, t.RepeatDays)
			if len(days) == 0 {
				continue
			}
			if !TimeWindowsIntersect(m.TimeStart, m.TimeEnd, t.TimeStart, t.TimeEnd) {
				continue
			}
			windows = append(windows, OverlapWindow{
				Days:  days,
				Start: maxTime(m.TimeStart, t.TimeStart),
				End:   minTime(m.TimeEnd, t.TimeEnd),
			})
		}
	}
	return windows
}

func maxTime(a, b string) string {
	if a > b {
		return a
	}
	return b
}

func minTime(a, b string) string {
	if a < b {
		return a
	}
	return b
}

// Person is one candidate at a location, with the availability slot that
// placed them there and how they relate to the viewer.
type Person struct {
	UserID          string              `json:"user_id"`
	FirstName       string              `json:"first_name"`
	BirthYear       int                 `json:"birth_year"`
	Gender          string              `json:"gender"`
	Interests       []database.Interest `json:"interests"`
	AvailabilityID  int64               `json:"availability_id"`
	LocationName    string              `json:"location_name"`
	TimeStart       string              `json:"time_start"`
	TimeEnd         string              `json:"time_end"`
	RepeatDays      []int64             `json:"repeat_days"`
	SharedInterests []string            `json:"shared_interests"`
	Overlaps        []OverlapWindow     `json:"overlapping_windows"`
	InterestSent    bool                `json:"interest_sent"`
}

// slot reconstructs the availability that placed the person at the location.
func (p Person) slot() database.Availability {
	return database.Availability{
		ID:         p.AvailabilityID,
		UserID:     p.UserID,
		TimeStart:  p.TimeStart,
		TimeEnd:    p.TimeEnd,
		RepeatDays: p.RepeatDays,
	}
}

// SortPeople orders candidates so that people with a schedule overlap come
// first, then by how many interests they share with the viewer. The sort is
// stable, so ties keep their query order.
func SortPeople(people []Person) {
	sort.SliceStable(people, func(i, j int) bool {
		iOverlap := len(people[i].Overlaps) > 0
		jOverlap := len(people[j].Overlaps) > 0
		if iOverlap != jOverlap {
			return iOverlap
		}
		return len(people[i].SharedInterests) > len(people[j].SharedInterests)
	})
}

// SharedInterestNames returns the names in theirs that also appear in mine.
func SharedInterestNames(mine, theirs []database.Interest) []string {
	inMine := make(map[int64]bool, len(mine))
	for _, i := range mine {
		inMine[i.ID] = true
	}
	var shared []string
	for _, i := range theirs {
		if inMine[i.ID] {
			shared = append(shared, i.Name)
		}
	}
	return shared
}

// CanonicalPair orders two user IDs so matches are stored one way only.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// validTimeWindow checks an "HH:MM" pair for format and ordering.
func validTimeWindow(start, end string) error {
	for _, v := range []string{start, end} {
		if !validClock(v) {
			return fmt.Errorf("time %q is not in HH:MM format", v)
		}
	}
	if start >= end {
		return fmt.Errorf("time_start %q must be before time_end %q", start, end)
	}
	return nil
}

func validClock(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	hh := int(v[0]-'0')*10 + int(v[1]-'0')
	mm := int(v[3]-'0')*10 + int(v[4]-'0')
	for _, c := range []byte{v[0], v[1], v[3], v[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh <= 23 && mm <= 59
}
