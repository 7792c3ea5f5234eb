// Package route plans trips between two points and renders them as
// localized turn-by-turn options with cost and time estimates. Two
// interchangeable planners exist: road routing through OSRM and a
// generative transit planner.
package route

import (
	"context"
	"errors"

	"github.com/NERVsystems/geoscout/pkg/geo"
)

// Transport modes a step can carry.
const (
	ModeWalk       = "walk"
	ModeBus        = "bus"
	ModeTrain      = "train"
	ModeCar        = "car"
	ModeMotorcycle = "motorcycle"
)

// ErrRoutingFailed is the single user-facing failure of a plan. The
// underlying cause is logged, never propagated.
var ErrRoutingFailed = errors.New("routing failed")

// Step is one instruction of a route option.
type Step struct {
	Instruction string `json:"instruction"`
	Distance    string `json:"distance,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// Option is one ranked way of making the trip. Coordinates trace the
// path as (latitude, longitude) pairs; planners without reliable
// geometry leave it empty.
type Option struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	TotalDuration string      `json:"total_duration"`
	TotalDistance string      `json:"total_distance"`
	TotalCost     string      `json:"total_cost"`
	Steps         []Step      `json:"steps"`
	Recommended   bool        `json:"recommended"`
	Coordinates   [][]float64 `json:"coordinates,omitempty"`
}

// Planner produces ranked route options. Implementations issue at most
// one outbound request per call and mark at most one option recommended.
type Planner interface {
	Plan(ctx context.Context, origin, destination geo.Location) ([]Option, error)
}

// validMode reports whether a mode string is one of the five transport
// modes. Planners drop anything else rather than inventing modes.
func validMode(mode string) bool {
	switch mode {
	case ModeWalk, ModeBus, ModeTrain, ModeCar, ModeMotorcycle:
		return true
	}
	return false
}
