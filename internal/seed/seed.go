// Package seed reads venue onboarding files: a YAML description of one
// venue with its dining areas, tables, service windows, duration rules
// and menu.  Parse validates the file and produces a Plan that the
// repository imports in a single transaction.
package seed

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/table-reservation/internal/model"
)

// File is the YAML document layout.
//
//	venue: {name: Spice Route, owner_id: 7, timezone: Asia/Kolkata}
//	areas:
//	  - name: Patio
//	    tables: [{label: P1, seats: 2}, {label: P2, seats: 4}]
//	windows:
//	  - {days: [mon, tue], start: "11:00", end: "23:00"}
//	  - {days: [fri, sat], start: "18:00", end: "02:00"}
//	durations: {2: 90, 4: 120}
//	menu:
//	  - {name: Thali, price: "250.00"}
type File struct {
	Venue struct {
		Name     string `yaml:"name"`
		OwnerID  uint64 `yaml:"owner_id"`
		Timezone string `yaml:"timezone"`
	} `yaml:"venue"`
	Areas []struct {
		Name     string `yaml:"name"`
		Disabled bool   `yaml:"disabled"`
		Tables   []struct {
			Label string `yaml:"label"`
			Seats int    `yaml:"seats"`
		} `yaml:"tables"`
	} `yaml:"areas"`
	Windows []struct {
		Days   []string `yaml:"days"`
		Start  string   `yaml:"start"`
		End    string   `yaml:"end"`
		Closed bool     `yaml:"closed"`
	} `yaml:"windows"`
	Durations map[int]int `yaml:"durations"`
	Menu      []struct {
		Name  string `yaml:"name"`
		Price string `yaml:"price"`
	} `yaml:"menu"`
}

// Plan is a validated venue ready to be inserted.  IDs are left zero.
type Plan struct {
	Venue     model.Venue
	Areas     []AreaPlan
	Windows   []model.ServiceWindow
	Durations []model.SpendingDurationRule
	Menu      []MenuItem
}

// AreaPlan is a dining area with its tables.
type AreaPlan struct {
	Name    string
	Enabled bool
	Tables  []model.Table
}

// MenuItem is a catalog entry priced in minor units.
type MenuItem struct {
	Name       string
	PriceCents int64
}

var weekdays = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// Parse decodes and validates a venue file.  Unknown keys are rejected.
// All problems are reported together.
func Parse(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode venue file: %w", err)
	}

	var errs []error
	bad := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	p := &Plan{Venue: model.Venue{
		Name:     strings.TrimSpace(f.Venue.Name),
		OwnerID:  f.Venue.OwnerID,
		Timezone: strings.TrimSpace(f.Venue.Timezone),
	}}
	if p.Venue.Name == "" {
		bad("venue.name is required")
	}
	if p.Venue.OwnerID == 0 {
		bad("venue.owner_id is required")
	}
	if p.Venue.Timezone != "" {
		if _, err := time.LoadLocation(p.Venue.Timezone); err != nil {
			bad("venue.timezone: %v", err)
		}
	}

	labels := map[string]bool{}
	for i, a := range f.Areas {
		area := AreaPlan{Name: strings.TrimSpace(a.Name), Enabled: !a.Disabled}
		if area.Name == "" {
			bad("areas[%d].name is required", i)
		}
		for j, t := range a.Tables {
			label := strings.TrimSpace(t.Label)
			switch {
			case label == "":
				bad("areas[%d].tables[%d].label is required", i, j)
			case labels[label]:
				bad("table label %q is used twice", label)
			}
			labels[label] = true
			if t.Seats < 1 {
				bad("table %q must seat at least one guest", label)
			}
			area.Tables = append(area.Tables, model.Table{Label: label, SeatCapacity: t.Seats})
		}
		p.Areas = append(p.Areas, area)
	}
	if len(labels) == 0 {
		bad("at least one table is required")
	}

	for i, w := range f.Windows {
		start, err := model.ParseTimeOfDay(w.Start)
		if err != nil {
			bad("windows[%d].start: %v", i, err)
		}
		end, err := model.ParseTimeOfDay(w.End)
		if err != nil {
			bad("windows[%d].end: %v", i, err)
		}
		if start == end {
			bad("windows[%d] is empty", i)
		}
		status := model.WindowOpen
		if w.Closed {
			status = model.WindowClosed
		}
		if len(w.Days) == 0 {
			bad("windows[%d].days is required", i)
		}
		for _, d := range w.Days {
			wd, ok := weekdays[strings.ToLower(strings.TrimSpace(d))]
			if !ok {
				bad("windows[%d]: unknown day %q", i, d)
				continue
			}
			p.Windows = append(p.Windows, model.ServiceWindow{Weekday: wd, Status: status, Start: start, End: end})
		}
	}

	for party, minutes := range f.Durations {
		if party < 1 || minutes < 1 {
			bad("durations: %d guests -> %d minutes is not valid", party, minutes)
			continue
		}
		p.Durations = append(p.Durations, model.SpendingDurationRule{PartySize: party, DurationMinutes: minutes})
	}

	sort.Slice(p.Durations, func(i, j int) bool { return p.Durations[i].PartySize < p.Durations[j].PartySize })

	for i, m := range f.Menu {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			bad("menu[%d].name is required", i)
		}
		cents, err := ParsePrice(m.Price)
		if err != nil {
			bad("menu[%d].price: %v", i, err)
		}
		p.Menu = append(p.Menu, MenuItem{Name: name, PriceCents: cents})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return p, nil
}

// ParsePrice converts a decimal amount ("250", "12.50") into minor units.
// More than two fractional digits or a non-positive amount is an error.
func ParsePrice(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("amount %q must be positive", raw)
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than two decimals", raw)
	}
	return cents.IntPart(), nil
}
