package poi

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

// Models wrap answers in markdown fences and pad numeric fields outside
// their ranges; the analyzer has to cope with all of it.
const generativeReply = "```json\n" + `{
  "location_name": "Nimmanhaemin",
  "summary": "A lively university neighborhood.",
  "categories": {
    "food": [
      {"name": "Som Tam Paradise", "latitude": 18.7971, "longitude": 98.9633,
       "popularity": 0.9, "rating": 4.5, "reviews": 120},
      {"name": "Graph Cafe", "latitude": 18.7951, "longitude": 98.9633}
    ],
    "convenience": [
      {"name": "7-Eleven", "latitude": 18.7981, "longitude": 98.9633,
       "popularity": 3.5, "rating": 9, "reviews": -5}
    ],
    "shopping": [
      {"name": "Missing Coordinates Mall"},
      {"name": "", "latitude": 18.79, "longitude": 98.96},
      {"name": "Out Of Range", "latitude": 95, "longitude": 98.96}
    ],
    "nightlife": [
      {"name": "Ignored Bar", "latitude": 18.79, "longitude": 98.96}
    ]
  }
}` + "\n```"

func TestGenerativeAnalyze(t *testing.T) {
	fake := &fakeCompleter{reply: generativeReply}
	analyzer := NewGenerativeAnalyzer(fake, "en", 0, 0)

	result, err := analyzer.Analyze(context.Background(), chiangMai, 500)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", fake.calls)
	}

	if result.LocationName != "Nimmanhaemin" {
		t.Errorf("LocationName = %q", result.LocationName)
	}
	if result.Summary != "A lively university neighborhood." {
		t.Errorf("Summary = %q", result.Summary)
	}

	if len(result.Food) != 2 {
		t.Fatalf("len(Food) = %d, want 2", len(result.Food))
	}
	first := result.Food[0]
	if first.Name != "Som Tam Paradise" || first.Popularity != 0.9 || first.Rating != 4.5 || first.Reviews != 120 {
		t.Errorf("Food[0] = %+v", first)
	}
	if first.Distance != "111 m" {
		t.Errorf("Food[0].Distance = %q, want 111 m (recomputed from coordinates)", first.Distance)
	}
	if first.Source != "ai" {
		t.Errorf("Food[0].Source = %q, want ai", first.Source)
	}
	second := result.Food[1]
	if second.Popularity != DefaultPopularity {
		t.Errorf("Food[1].Popularity = %g, want default %g", second.Popularity, DefaultPopularity)
	}
	if second.Rating != 0 || second.Reviews != 0 {
		t.Errorf("Food[1] rating/reviews = %g/%d, want zero values", second.Rating, second.Reviews)
	}

	// Out-of-range numerics: popularity clamps, rating and reviews drop.
	if len(result.Convenience) != 1 {
		t.Fatalf("len(Convenience) = %d, want 1", len(result.Convenience))
	}
	seven := result.Convenience[0]
	if seven.Popularity != 1 {
		t.Errorf("Convenience[0].Popularity = %g, want clamped 1", seven.Popularity)
	}
	if seven.Rating != 0 {
		t.Errorf("Convenience[0].Rating = %g, want 0 for out-of-range rating", seven.Rating)
	}
	if seven.Reviews != 0 {
		t.Errorf("Convenience[0].Reviews = %d, want 0 for negative count", seven.Reviews)
	}

	// All three shopping items are unusable, and unknown category keys
	// are ignored entirely.
	if len(result.Shopping) != 0 {
		t.Errorf("Shopping = %+v, want empty", result.Shopping)
	}
	if result.Count() != 3 {
		t.Errorf("Count() = %d, want 3", result.Count())
	}

	for _, fragment := range []string{"500 m", "18.796100", "98.963300", `"en"`} {
		if !strings.Contains(fake.gotPrompt, fragment) {
			t.Errorf("prompt is missing %q", fragment)
		}
	}
	if !strings.Contains(fake.gotSystem, "JSON") {
		t.Errorf("system prompt = %q, want a JSON-only instruction", fake.gotSystem)
	}
}

func TestGenerativeAnalyzeFallbackLabels(t *testing.T) {
	fake := &fakeCompleter{reply: `{"categories": {"food": [
		{"name": "Khao Soi Mae Sai", "latitude": 18.7971, "longitude": 98.9633}
	]}}`}
	analyzer := NewGenerativeAnalyzer(fake, "th", 0, 0)

	result, err := analyzer.Analyze(context.Background(), chiangMai, 500)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.LocationName != "พื้นที่ที่เลือก" {
		t.Errorf("LocationName = %q, want the Thai fallback", result.LocationName)
	}
	if result.Summary != "พบ 1 แห่งในรัศมี 500 m" {
		t.Errorf("Summary = %q", result.Summary)
	}
}

func TestGenerativeAnalyzeDefaultPopularity(t *testing.T) {
	fake := &fakeCompleter{reply: `{"categories": {"food": [
		{"name": "A", "latitude": 18.7971, "longitude": 98.9633}
	]}}`}
	analyzer := NewGenerativeAnalyzer(fake, "en", 0.8, 0)

	result, err := analyzer.Analyze(context.Background(), chiangMai, 500)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Food[0].Popularity != 0.8 {
		t.Errorf("Popularity = %g, want configured default 0.8", result.Food[0].Popularity)
	}
}

func TestGenerativeAnalyzeCategoryCap(t *testing.T) {
	fake := &fakeCompleter{reply: `{"categories": {"food": [
		{"name": "A", "latitude": 18.7971, "longitude": 98.9633},
		{"name": "B", "latitude": 18.7972, "longitude": 98.9633},
		{"name": "C", "latitude": 18.7973, "longitude": 98.9633},
		{"name": "D", "latitude": 18.7974, "longitude": 98.9633}
	]}}`}
	analyzer := NewGenerativeAnalyzer(fake, "en", 0, 2)

	result, err := analyzer.Analyze(context.Background(), chiangMai, 500)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Food) != 2 {
		t.Fatalf("len(Food) = %d, want cap of 2", len(result.Food))
	}
	if result.Food[0].Name != "A" || result.Food[1].Name != "B" {
		t.Errorf("Food = [%s, %s], want [A, B]", result.Food[0].Name, result.Food[1].Name)
	}
}

func TestGenerativeAnalyzeCompleterError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}

	_, err := NewGenerativeAnalyzer(fake, "en", 0, 0).Analyze(context.Background(), chiangMai, 500)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("Analyze() error = %v, want ErrAnalysisFailed", err)
	}
}

func TestGenerativeAnalyzeUnparsableReply(t *testing.T) {
	fake := &fakeCompleter{reply: "Sorry, I cannot help with that."}

	_, err := NewGenerativeAnalyzer(fake, "en", 0, 0).Analyze(context.Background(), chiangMai, 500)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("Analyze() error = %v, want ErrAnalysisFailed", err)
	}
}

func TestGenerativeAnalyzeRejectsBadInput(t *testing.T) {
	fake := &fakeCompleter{reply: "{}"}
	analyzer := NewGenerativeAnalyzer(fake, "en", 0, 0)

	_, err := analyzer.Analyze(context.Background(), geo.Location{Latitude: 95, Longitude: 0}, 500)
	if err == nil || errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("invalid center error = %v, want a validation error", err)
	}
	_, err = analyzer.Analyze(context.Background(), chiangMai, -1)
	if err == nil || errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("negative radius error = %v, want a validation error", err)
	}
	if fake.calls != 0 {
		t.Errorf("completer calls = %d, want 0 before valid input", fake.calls)
	}
}
