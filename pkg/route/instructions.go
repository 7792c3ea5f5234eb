package route

import (
	"fmt"
	"strings"
)

// Catalog renders OSRM maneuvers as instructions in one locale. Every
// archetype has a template taking the direction and road name; unknown
// maneuver types fall back to a generic "{type} {direction} {road}"
// string, so Instruction never returns "".
type Catalog struct {
	modifiers  map[string]string
	modeTitles map[string]string

	unnamedRoad string

	depart string
	arrive string
	uturn  string

	turn, turnPlain           string
	merge, mergePlain         string
	onRamp, onRampPlain       string
	offRamp, offRampPlain     string
	fork, forkPlain           string
	endOfRoad, endOfRoadPlain string

	roundaboutExit, roundabout string
	exitRoundabout             string
	rotaryExit, rotary         string
	exitRotary                 string

	newName          string
	cont, contPlain  string
	notification     string
}

var catalogs = map[string]*Catalog{
	"en": {
		modifiers: map[string]string{
			"left":         "left",
			"right":        "right",
			"slight left":  "slight left",
			"slight right": "slight right",
			"sharp left":   "sharp left",
			"sharp right":  "sharp right",
			"straight":     "straight",
			"uturn":        "around",
		},
		modeTitles: map[string]string{
			ModeCar:        "Drive",
			ModeWalk:       "Walk",
			ModeMotorcycle: "Motorcycle",
			ModeBus:        "Bus",
			ModeTrain:      "Train",
		},
		unnamedRoad:    "the road",
		depart:         "Start your journey",
		arrive:         "You have arrived at your destination",
		uturn:          "Make a U-turn onto %s",
		turn:           "Turn %s onto %s",
		turnPlain:      "Turn onto %s",
		merge:          "Merge %s onto %s",
		mergePlain:     "Merge onto %s",
		onRamp:         "Take the %s ramp onto %s",
		onRampPlain:    "Take the ramp onto %s",
		offRamp:        "Take the %s exit onto %s",
		offRampPlain:   "Take the exit onto %s",
		fork:           "Keep %s at the fork onto %s",
		forkPlain:      "Take the fork onto %s",
		endOfRoad:      "At the end of the road, turn %s onto %s",
		endOfRoadPlain: "At the end of the road, continue onto %s",
		roundaboutExit: "Enter the roundabout and take exit %d onto %s",
		roundabout:     "Enter the roundabout and continue onto %s",
		exitRoundabout: "Exit the roundabout onto %s",
		rotaryExit:     "Enter the rotary and take exit %d onto %s",
		rotary:         "Enter the rotary and continue onto %s",
		exitRotary:     "Exit the rotary onto %s",
		newName:        "Continue onto %s",
		cont:           "Continue %s onto %s",
		contPlain:      "Continue straight along %s",
		notification:   "Continue along %s",
	},
	"th": {
		modifiers: map[string]string{
			"left":         "ซ้าย",
			"right":        "ขวา",
			"slight left":  "ซ้ายเล็กน้อย",
			"slight right": "ขวาเล็กน้อย",
			"sharp left":   "ซ้ายหักศอก",
			"sharp right":  "ขวาหักศอก",
			"straight":     "ตรงไป",
			"uturn":        "กลับรถ",
		},
		modeTitles: map[string]string{
			ModeCar:        "ขับรถ",
			ModeWalk:       "เดิน",
			ModeMotorcycle: "มอเตอร์ไซค์",
			ModeBus:        "รถเมล์",
			ModeTrain:      "รถไฟ",
		},
		unnamedRoad:    "ถนนที่ไม่มีชื่อ",
		depart:         "เริ่มต้นการเดินทาง",
		arrive:         "ถึงจุดหมายปลายทางแล้ว",
		uturn:          "กลับรถเข้าสู่%s",
		turn:           "เลี้ยว%sเข้าสู่%s",
		turnPlain:      "เลี้ยวเข้าสู่%s",
		merge:          "รวมเลนไปทาง%sเข้าสู่%s",
		mergePlain:     "รวมเลนเข้าสู่%s",
		onRamp:         "ใช้ทางลาดด้าน%sเข้าสู่%s",
		onRampPlain:    "ใช้ทางลาดเข้าสู่%s",
		offRamp:        "ออกทางลาดด้าน%sเข้าสู่%s",
		offRampPlain:   "ออกทางลาดเข้าสู่%s",
		fork:           "ชิด%sที่ทางแยกเข้าสู่%s",
		forkPlain:      "ตรงไปที่ทางแยกเข้าสู่%s",
		endOfRoad:      "สุดถนนแล้วเลี้ยว%sเข้าสู่%s",
		endOfRoadPlain: "สุดถนนแล้วไปต่อบน%s",
		roundaboutExit: "เข้าวงเวียนแล้วใช้ทางออกที่ %d สู่%s",
		roundabout:     "เข้าวงเวียนแล้วไปต่อบน%s",
		exitRoundabout: "ออกจากวงเวียนเข้าสู่%s",
		rotaryExit:     "เข้าวงเวียนใหญ่แล้วใช้ทางออกที่ %d สู่%s",
		rotary:         "เข้าวงเวียนใหญ่แล้วไปต่อบน%s",
		exitRotary:     "ออกจากวงเวียนใหญ่เข้าสู่%s",
		newName:        "ไปต่อบน%s",
		cont:           "มุ่งหน้าไปทาง%sตาม%s",
		contPlain:      "ตรงไปตาม%s",
		notification:   "ไปตาม%s",
	},
}

// CatalogFor returns the instruction catalog for a locale, falling back
// to English.
func CatalogFor(locale string) *Catalog {
	if c, ok := catalogs[locale]; ok {
		return c
	}
	return catalogs["en"]
}

// Title returns the localized display title for a transport mode.
func (c *Catalog) Title(mode string) string {
	if t, ok := c.modeTitles[mode]; ok {
		return t
	}
	return mode
}

// Instruction renders one maneuver. road may be empty; exit is the
// roundabout exit number when the routing engine supplies one.
func (c *Catalog) Instruction(maneuverType, modifier, road string, exit int) string {
	if road == "" {
		road = c.unnamedRoad
	}
	dir := c.modifiers[modifier]

	switch maneuverType {
	case "depart":
		return c.depart
	case "arrive":
		return c.arrive
	case "turn":
		if modifier == "uturn" {
			return fmt.Sprintf(c.uturn, road)
		}
		if dir == "" {
			return fmt.Sprintf(c.turnPlain, road)
		}
		return fmt.Sprintf(c.turn, dir, road)
	case "merge":
		if dir == "" {
			return fmt.Sprintf(c.mergePlain, road)
		}
		return fmt.Sprintf(c.merge, dir, road)
	case "on ramp":
		if dir == "" {
			return fmt.Sprintf(c.onRampPlain, road)
		}
		return fmt.Sprintf(c.onRamp, dir, road)
	case "off ramp":
		if dir == "" {
			return fmt.Sprintf(c.offRampPlain, road)
		}
		return fmt.Sprintf(c.offRamp, dir, road)
	case "fork":
		if dir == "" {
			return fmt.Sprintf(c.forkPlain, road)
		}
		return fmt.Sprintf(c.fork, dir, road)
	case "end of road":
		if dir == "" {
			return fmt.Sprintf(c.endOfRoadPlain, road)
		}
		return fmt.Sprintf(c.endOfRoad, dir, road)
	case "roundabout":
		if exit > 0 {
			return fmt.Sprintf(c.roundaboutExit, exit, road)
		}
		return fmt.Sprintf(c.roundabout, road)
	case "exit roundabout":
		return fmt.Sprintf(c.exitRoundabout, road)
	case "rotary":
		if exit > 0 {
			return fmt.Sprintf(c.rotaryExit, exit, road)
		}
		return fmt.Sprintf(c.rotary, road)
	case "exit rotary":
		return fmt.Sprintf(c.exitRotary, road)
	case "new name":
		return fmt.Sprintf(c.newName, road)
	case "continue":
		if modifier == "uturn" {
			return fmt.Sprintf(c.uturn, road)
		}
		if dir == "" || modifier == "straight" {
			return fmt.Sprintf(c.contPlain, road)
		}
		return fmt.Sprintf(c.cont, dir, road)
	case "notification":
		return fmt.Sprintf(c.notification, road)
	}

	// Routing engines grow maneuver types; render them readably rather
	// than failing.
	parts := make([]string, 0, 3)
	if maneuverType != "" {
		parts = append(parts, maneuverType)
	}
	switch {
	case dir != "":
		parts = append(parts, dir)
	case modifier != "":
		parts = append(parts, modifier)
	}
	parts = append(parts, road)
	return strings.Join(parts, " ")
}
