package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neotogether/neotogether/internal/database"
)

func slot(name string, lat, lng float64, start, end string, days ...int64) database.Availability {
	return database.Availability{
		LocationName: name,
		Latitude:     lat,
		Longitude:    lng,
		TimeStart:    start,
		TimeEnd:      end,
		RepeatDays:   days,
		IsActive:     true,
	}
}

func TestGroupByLocation(t *testing.T) {
	first := slot("Café Kotti", 52.499120, 13.417850, "09:00", "12:00", 0)
	first.ID = 41
	// Same place to 5 decimals, different display name.
	second := slot("Kottbusser Tor", 52.499121, 13.417854, "14:00", "16:00", 1)
	second.ID = 42
	third := slot("Tempelhofer Feld", 52.473700, 13.403900, "10:00", "18:00", 5)
	third.ID = 43

	locations := GroupByLocation([]database.Availability{first, second, third})
	require.Len(t, locations, 2)

	// First-seen wins the name and becomes the representative slot; both
	// slots counted.
	assert.Equal(t, "Café Kotti", locations[0].LocationName)
	assert.Equal(t, 2, locations[0].SlotCount)
	assert.Equal(t, 52.49912, locations[0].Latitude)
	assert.Equal(t, 13.41785, locations[0].Longitude)
	assert.Equal(t, int64(41), locations[0].Availability.ID)

	assert.Equal(t, "Tempelhofer Feld", locations[1].LocationName)
	assert.Equal(t, 1, locations[1].SlotCount)
	assert.Equal(t, int64(43), locations[1].Availability.ID)
}

// Clients drill from the locations listing into the people listing by
// availability id, so every location must carry one.
func TestGroupByLocationCarriesRepresentativeSlot(t *testing.T) {
	s := slot("Park", 52.5, 13.4, "09:00", "12:00", 0)
	s.ID = 7
	s.UserID = "owner"

	locations := GroupByLocation([]database.Availability{s})
	require.Len(t, locations, 1)
	assert.Equal(t, int64(7), locations[0].Availability.ID)
	assert.Equal(t, "owner", locations[0].Availability.UserID)
	assert.Equal(t, "09:00", locations[0].Availability.TimeStart)
}

func TestGroupByLocationEmpty(t *testing.T) {
	assert.Empty(t, GroupByLocation(nil))
}

func TestTimeWindowsIntersect(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"full overlap", "09:00", "12:00", "10:00", "11:00", true},
		{"partial overlap", "09:00", "12:00", "11:00", "14:00", true},
		{"identical", "09:00", "12:00", "09:00", "12:00", true},
		{"disjoint", "09:00", "10:00", "11:00", "12:00", false},
		{"touching boundaries", "09:00", "11:00", "11:00", "13:00", false},
		{"one minute of overlap", "09:00", "11:01", "11:00", "13:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeWindowsIntersect(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Intersection is symmetric.
			assert.Equal(t, tt.want, TimeWindowsIntersect(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestSharedDays(t *testing.T) {
	assert.Equal(t, []int64{0, 4}, SharedDays([]int64{0, 2, 4}, []int64{4, 0, 5}))
	assert.Nil(t, SharedDays([]int64{0, 1}, []int64{5, 6}))
	assert.Nil(t, SharedDays(nil, []int64{0}))
}

func TestComputeOverlaps(t *testing.T) {
	mine := []database.Availability{
		slot("A", 0, 0, "09:00", "12:00", 0, 2),
		slot("B", 0, 0, "18:00", "20:00", 5),
	}
	theirs := []database.Availability{
		slot("C", 0, 0, "10:00", "14:00", 2, 3),
		slot("D", 0, 0, "19:00", "22:00", 5, 6),
	}

	windows := ComputeOverlaps(mine, theirs)
	require.Len(t, windows, 2)

	assert.Equal(t, []int64{2}, windows[0].Days)
	assert.Equal(t, "10:00", windows[0].Start)
	assert.Equal(t, "12:00", windows[0].End)

	assert.Equal(t, []int64{5}, windows[1].Days)
	assert.Equal(t, "19:00", windows[1].Start)
	assert.Equal(t, "20:00", windows[1].End)
}

func TestComputeOverlapsSharedDayDisjointTimes(t *testing.T) {
	mine := []database.Availability{slot("A", 0, 0, "09:00", "10:00", 3)}
	theirs := []database.Availability{slot("B", 0, 0, "11:00", "12:00", 3)}
	assert.Empty(t, ComputeOverlaps(mine, theirs))
}

func TestPersonSlot(t *testing.T) {
	p := Person{
		UserID:         "u1",
		AvailabilityID: 9,
		TimeStart:      "20:00",
		TimeEnd:        "22:00",
		RepeatDays:     []int64{0, 3},
	}

	s := p.slot()
	assert.Equal(t, int64(9), s.ID)
	assert.Equal(t, "u1", s.UserID)

	// A person placed by an evening slot has no morning overlap, whatever
	// their other slots elsewhere look like.
	viewer := []database.Availability{slot("Park", 0, 0, "09:00", "12:00", 0)}
	assert.Empty(t, ComputeOverlaps(viewer, []database.Availability{s}))
}

func TestSortPeople(t *testing.T) {
	people := []Person{
		{UserID: "no-overlap-two-shared", SharedInterests: []string{"Hiking", "Jazz"}},
		{UserID: "overlap-none-shared", Overlaps: []OverlapWindow{{Days: []int64{0}}}},
		{UserID: "overlap-one-shared", Overlaps: []OverlapWindow{{Days: []int64{1}}}, SharedInterests: []string{"Chess"}},
		{UserID: "nothing"},
	}

	SortPeople(people)

	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.UserID
	}
	assert.Equal(t, []string{
		"overlap-one-shared",
		"overlap-none-shared",
		"no-overlap-two-shared",
		"nothing",
	}, ids)
}

func TestSortPeopleStable(t *testing.T) {
	people := []Person{
		{UserID: "first"},
		{UserID: "second"},
		{UserID: "third"},
	}
	SortPeople(people)
	assert.Equal(t, "first", people[0].UserID)
	assert.Equal(t, "second", people[1].UserID)
	assert.Equal(t, "third", people[2].UserID)
}

func TestSharedInterestNames(t *testing.T) {
	mine := []database.Interest{{ID: 1, Name: "Hiking"}, {ID: 2, Name: "Jazz"}}
	theirs := []database.Interest{{ID: 2, Name: "Jazz"}, {ID: 3, Name: "Chess"}}
	assert.Equal(t, []string{"Jazz"}, SharedInterestNames(mine, theirs))
	assert.Nil(t, SharedInterestNames(nil, theirs))
}

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair("b3e0", "a1f2")
	assert.Equal(t, "a1f2", a)
	assert.Equal(t, "b3e0", b)

	a, b = CanonicalPair("a1f2", "b3e0")
	assert.Equal(t, "a1f2", a)
	assert.Equal(t, "b3e0", b)
}

func TestValidTimeWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"valid", "09:00", "17:30", false},
		{"midnight edge", "00:00", "23:59", false},
		{"reversed", "17:00", "09:00", true},
		{"equal", "09:00", "09:00", true},
		{"bad hour", "25:00", "26:00", true},
		{"bad minute", "09:61", "10:00", true},
		{"missing padding", "9:00", "10:00", true},
		{"garbage", "soon", "later", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validTimeWindow(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoundTo5(t *testing.T) {
	assert.Equal(t, 52.49912, roundTo5(52.4991201))
	assert.Equal(t, 52.49912, roundTo5(52.4991249))
	assert.Equal(t, -13.40390, roundTo5(-13.403901))
}
