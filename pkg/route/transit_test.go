package route

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/NERVsystems/geoscout/pkg/geo"
)

type fakeCompleter struct {
	reply     string
	err       error
	gotSystem string
	gotPrompt string
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.gotSystem = system
	f.gotPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

const transitReply = "```json\n" + `{
  "options": [
    {
      "title": "BTS Skytrain",
      "duration_minutes": 25,
      "distance_km": 5.2,
      "cost": 44,
      "recommended": true,
      "steps": [
        {"instruction": "Walk to Siam station", "mode": "walk", "distance_km": 0.4, "duration_minutes": 6},
        {"instruction": "Take the Sukhumvit line to Ratchathewi", "mode": "train", "distance_km": 4.4, "duration_minutes": 12},
        {"instruction": "Walk to the destination", "mode": "walk", "distance_km": 0.4, "duration_minutes": 7}
      ]
    },
    {
      "title": "Taxi",
      "duration_minutes": 18,
      "distance_km": 4.2,
      "recommended": false,
      "steps": [
        {"instruction": "Take a taxi along Phetchaburi Road", "mode": "car", "distance_km": 4.2, "duration_minutes": 18}
      ]
    },
    {
      "title": "Hoverboard",
      "steps": [
        {"instruction": "Glide east", "mode": "hoverboard"}
      ]
    }
  ]
}` + "\n```"

func TestTransitPlannerPlan(t *testing.T) {
	fake := &fakeCompleter{reply: transitReply}
	planner := NewTransitPlanner(fake, "en", Pricing{})

	options, err := planner.Plan(context.Background(), siam, pratunam)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", fake.calls)
	}

	if len(options) != 3 {
		t.Fatalf("len(options) = %d, want 3", len(options))
	}

	first := options[0]
	if first.ID != "option-1" || first.Title != "BTS Skytrain" {
		t.Errorf("options[0] = %+v", first)
	}
	if !first.Recommended {
		t.Error("options[0].Recommended = false, want the model's flag honored")
	}
	if first.TotalDuration != "25 min" {
		t.Errorf("TotalDuration = %q", first.TotalDuration)
	}
	if first.TotalDistance != "5.2 km" {
		t.Errorf("TotalDistance = %q", first.TotalDistance)
	}
	// The model supplied a fare, so the pricing formula is not used.
	if first.TotalCost != "฿44" {
		t.Errorf("TotalCost = %q, want ฿44", first.TotalCost)
	}
	if len(first.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(first.Steps))
	}
	if first.Steps[1].Mode != ModeTrain || first.Steps[1].Distance != "4.4 km" || first.Steps[1].Duration != "12 min" {
		t.Errorf("Steps[1] = %+v", first.Steps[1])
	}
	if len(first.Coordinates) != 0 {
		t.Errorf("Coordinates = %v, want none from the generative planner", first.Coordinates)
	}

	// No fare from the model: cost falls back to the pricing formula,
	// ceil(35 + 6 × 4.2) = 61.
	second := options[1]
	if second.TotalCost != "฿61" {
		t.Errorf("options[1].TotalCost = %q, want ฿61", second.TotalCost)
	}
	if second.Recommended {
		t.Error("options[1].Recommended = true, want only one recommendation")
	}

	// Unknown modes are cleared rather than passed through.
	third := options[2]
	if third.Steps[0].Mode != "" {
		t.Errorf("options[2].Steps[0].Mode = %q, want empty", third.Steps[0].Mode)
	}

	for _, fragment := range []string{"13.756300", "100.501800", "13.765000", "100.538000", `"en"`} {
		if !strings.Contains(fake.gotPrompt, fragment) {
			t.Errorf("prompt is missing %q", fragment)
		}
	}
	if !strings.Contains(fake.gotSystem, "JSON") {
		t.Errorf("system prompt = %q, want a JSON-only instruction", fake.gotSystem)
	}
}

func TestTransitPlannerSingleRecommendation(t *testing.T) {
	fake := &fakeCompleter{reply: `{"options": [
		{"title": "A", "recommended": true, "steps": [{"instruction": "go"}]},
		{"title": "B", "recommended": true, "steps": [{"instruction": "go"}]}
	]}`}

	options, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !options[0].Recommended || options[1].Recommended {
		t.Errorf("recommendations = [%v, %v], want only the first kept",
			options[0].Recommended, options[1].Recommended)
	}
}

func TestTransitPlannerRecommendsFirstByDefault(t *testing.T) {
	fake := &fakeCompleter{reply: `{"options": [
		{"title": "A", "steps": [{"instruction": "go"}]},
		{"title": "B", "steps": [{"instruction": "go"}]}
	]}`}

	options, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !options[0].Recommended {
		t.Error("options[0].Recommended = false, want the top-ranked option recommended")
	}
	if options[1].Recommended {
		t.Error("options[1].Recommended = true, want false")
	}
}

func TestTransitPlannerCapsOptions(t *testing.T) {
	fake := &fakeCompleter{reply: `{"options": [
		{"title": "A", "steps": [{"instruction": "go"}]},
		{"title": "B", "steps": [{"instruction": "go"}]},
		{"title": "C", "steps": [{"instruction": "go"}]},
		{"title": "D", "steps": [{"instruction": "go"}]}
	]}`}

	options, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(options) != 3 {
		t.Errorf("len(options) = %d, want at most 3", len(options))
	}
}

func TestTransitPlannerDropsUnusableOptions(t *testing.T) {
	// The first option has no usable steps at all; the IDs reflect the
	// surviving order.
	fake := &fakeCompleter{reply: `{"options": [
		{"title": "Empty", "steps": [{"instruction": ""}]},
		{"title": "Taxi", "steps": [{"instruction": "Take a taxi", "mode": "car"}]}
	]}`}

	options, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("len(options) = %d, want 1", len(options))
	}
	if options[0].ID != "option-1" || options[0].Title != "Taxi" {
		t.Errorf("options[0] = %+v", options[0])
	}
}

func TestTransitPlannerCompleterError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("overloaded")}

	_, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if !errors.Is(err, ErrRoutingFailed) {
		t.Errorf("Plan() error = %v, want ErrRoutingFailed", err)
	}
}

func TestTransitPlannerUnparsableReply(t *testing.T) {
	fake := &fakeCompleter{reply: "I recommend taking the train."}

	_, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if !errors.Is(err, ErrRoutingFailed) {
		t.Errorf("Plan() error = %v, want ErrRoutingFailed", err)
	}
}

func TestTransitPlannerNoUsableOptions(t *testing.T) {
	fake := &fakeCompleter{reply: `{"options": []}`}

	_, err := NewTransitPlanner(fake, "en", Pricing{}).Plan(context.Background(), siam, pratunam)
	if !errors.Is(err, ErrRoutingFailed) {
		t.Errorf("Plan() error = %v, want ErrRoutingFailed", err)
	}
}

func TestTransitPlannerRejectsBadInput(t *testing.T) {
	fake := &fakeCompleter{reply: "{}"}
	planner := NewTransitPlanner(fake, "en", Pricing{})

	_, err := planner.Plan(context.Background(), geo.Location{Latitude: -91, Longitude: 0}, pratunam)
	if err == nil || errors.Is(err, ErrRoutingFailed) {
		t.Errorf("invalid origin error = %v, want a validation error", err)
	}
	if fake.calls != 0 {
		t.Errorf("completer calls = %d, want 0 before valid input", fake.calls)
	}
}
