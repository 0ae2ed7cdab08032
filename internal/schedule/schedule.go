// Package schedule models a page's weekly visibility grid: 7 days x 24
// hours, stored sparsely. Hours never written are visible by default.
package schedule

import (
	"encoding/json"
	"fmt"
)

const (
	HoursPerDay = 24
	Days        = 7
	WeekHours   = HoursPerDay * Days
)

// DayNames index by day number, Monday first (day-major hour layout).
var DayNames = [Days]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Schedule holds the sparse hour mask. An empty Hours slice means fully
// visible. Once any hour is written the slice is padded to WeekHours and
// never shrinks again.
type Schedule struct {
	Hours []bool `json:"hours"`
}

// Effective reports visibility for hour (0..WeekHours-1). Hours beyond the
// stored length default to visible.
func (s Schedule) Effective(hour int) bool {
	if hour < 0 || hour >= WeekHours {
		return false
	}
	if hour >= len(s.Hours) {
		return true
	}
	return s.Hours[hour]
}

// SetHour densifies the mask to WeekHours (padding with visible) and sets
// one entry. Hour is day*24 + hourOfDay.
func (s *Schedule) SetHour(hour int, on bool) error {
	if hour < 0 || hour >= WeekHours {
		return fmt.Errorf("schedule hour %d out of range [0,%d)", hour, WeekHours)
	}
	for len(s.Hours) < WeekHours {
		s.Hours = append(s.Hours, true)
	}
	s.Hours[hour] = on
	return nil
}

// MarshalJSON emits an empty hours array, never null; the host schema has
// no notion of an absent mask.
func (s Schedule) MarshalJSON() ([]byte, error) {
	hours := s.Hours
	if hours == nil {
		hours = []bool{}
	}
	return json.Marshal(struct {
		Hours []bool `json:"hours"`
	}{hours})
}

// Clone returns an independent copy of the mask.
func (s Schedule) Clone() Schedule {
	if s.Hours == nil {
		return Schedule{}
	}
	hours := make([]bool, len(s.Hours))
	copy(hours, s.Hours)
	return Schedule{Hours: hours}
}

// Hour is one cell of the week view.
type Hour struct {
	Index int  // 0..WeekHours-1
	Hour  int  // 0..23
	On    bool
}

// Day is one row of the week view. ToggleOn is the action a single-click
// day toggle should take: fewer than 12 hours on means the toggle turns
// the whole day on, otherwise off.
type Day struct {
	Name     string
	Day      int
	ToggleOn bool
	Hours    [HoursPerDay]Hour
}

// Week derives the dense 7x24 view used by grid presentations.
func (s Schedule) Week() [Days]Day {
	var week [Days]Day
	for day := 0; day < Days; day++ {
		d := Day{Name: DayNames[day], Day: day}
		numOn := 0
		for hour := 0; hour < HoursPerDay; hour++ {
			index := day*HoursPerDay + hour
			on := s.Effective(index)
			if on {
				numOn++
			}
			d.Hours[hour] = Hour{Index: index, Hour: hour, On: on}
		}
		d.ToggleOn = numOn < HoursPerDay/2
		week[day] = d
	}
	return week
}

// DayToggleOn reports whether a day toggle should turn the day on.
func (s Schedule) DayToggleOn(day int) bool {
	if day < 0 || day >= Days {
		return false
	}
	return s.Week()[day].ToggleOn
}
