package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// Coordinates address a planet position: galaxy:system:position.
type Coordinates struct {
	Galaxy   int `json:"galaxy"`
	System   int `json:"system"`
	Position int `json:"position"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%d:%d:%d", c.Galaxy, c.System, c.Position)
}

func (c Coordinates) IsZero() bool { return c == Coordinates{} }

var coordPattern = regexp.MustCompile(`\[?(\d+):(\d+):(\d+)\]?`)

// ParseCoordinates finds the first "[g:s:p]" or "g:s:p" group in text.
func ParseCoordinates(text string) (Coordinates, bool) {
	m := coordPattern.FindStringSubmatch(text)
	if m == nil {
		return Coordinates{}, false
	}
	g, _ := strconv.Atoi(m[1])
	s, _ := strconv.Atoi(m[2])
	p, _ := strconv.Atoi(m[3])
	return Coordinates{Galaxy: g, System: s, Position: p}, true
}

// Activity is the observed activity state of another player.
type Activity string

const (
	ActivityActive   Activity = "active"
	ActivityInactive Activity = "inactive"
	ActivityUnknown  Activity = "unknown"
)

// FleetSize is a coarse estimate from the fleet markers shown in galaxy view.
type FleetSize string

const (
	FleetSmall   FleetSize = "small"
	FleetMedium  FleetSize = "medium"
	FleetLarge   FleetSize = "large"
	FleetUnknown FleetSize = "unknown"
)

// RaidTarget is a candidate planet found while scanning the galaxy.
type RaidTarget struct {
	Coordinates   Coordinates `json:"coordinates"`
	Player        string      `json:"player"`
	Activity      Activity    `json:"activity"`
	FleetSize     FleetSize   `json:"fleetSize"`
	EstimatedLoot int64       `json:"estimatedLoot"`
	Score         float64     `json:"score"`
}

// ColonySlot is a free planet position suitable for a colony ship.
type ColonySlot struct {
	Coordinates Coordinates `json:"coordinates"`
	Score       int         `json:"score"`
}

// ShipType names the ship classes the bot reads from the fleet page.
type ShipType string

const (
	SmallCargo   ShipType = "small_cargo"
	LargeCargo   ShipType = "large_cargo"
	LightFighter ShipType = "light_fighter"
	ColonyShip   ShipType = "colony_ship"
)

// ShipInventory maps ship type to the number available on the planet.
type ShipInventory map[ShipType]int

// Covers reports whether inv has at least the counts in need, and the first
// ship type that falls short.
func (inv ShipInventory) Covers(need ShipInventory) (bool, ShipType) {
	for _, t := range []ShipType{ColonyShip, SmallCargo, LargeCargo, LightFighter} {
		n, ok := need[t]
		if !ok {
			continue
		}
		if inv[t] < n {
			return false, t
		}
	}
	return true, ""
}
