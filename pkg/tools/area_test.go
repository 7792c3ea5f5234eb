package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/NERVsystems/geoscout/pkg/poi"
)

func sampleAnalysis() *poi.AnalysisResult {
	result := poi.NewAnalysisResult()
	result.LocationName = "Selected area"
	result.Summary = "2 places found within 500 m."
	result.Food = append(result.Food, poi.Place{
		Name:      "Som Tam Paradise",
		Distance:  "111 m",
		Latitude:  18.7971,
		Longitude: 98.9633,
	})
	result.Transport = append(result.Transport, poi.Place{
		Name:      "Nimman Bus Stop",
		Distance:  "222 m",
		Latitude:  18.7981,
		Longitude: 98.9633,
	})
	return result
}

func TestHandleAnalyzeArea(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleAnalysis()}
	r := newTestRegistry(nil, analyzer, nil)

	req := NewToolRequest("analyze_area", map[string]any{
		"latitude":  18.7961,
		"longitude": 98.9633,
		"radius":    750.0,
	})

	result, err := r.handleAnalyzeArea(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected success result, but got error")

	if analyzer.gotCenter != testLocation(18.7961, 98.9633) {
		t.Errorf("analyzer got wrong center: %v", analyzer.gotCenter)
	}
	if analyzer.gotRadius != 750 {
		t.Errorf("analyzer got wrong radius: %f", analyzer.gotRadius)
	}

	var output poi.AnalysisResult
	if err := ParseResultJSON(result, &output); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if output.LocationName != "Selected area" {
		t.Errorf("expected location name preserved, got %q", output.LocationName)
	}
	if len(output.Food) != 1 || output.Food[0].Name != "Som Tam Paradise" {
		t.Errorf("unexpected food places: %+v", output.Food)
	}
	if len(output.Transport) != 1 || output.Transport[0].Distance != "222 m" {
		t.Errorf("unexpected transit places: %+v", output.Transport)
	}
}

func TestHandleAnalyzeAreaDefaultRadius(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleAnalysis()}
	r := newTestRegistry(nil, analyzer, nil)

	req := NewToolRequest("analyze_area", map[string]any{
		"latitude":  18.7961,
		"longitude": 98.9633,
	})

	result, err := r.handleAnalyzeArea(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected success result, but got error")

	if analyzer.gotRadius != DefaultAnalysisRadius {
		t.Errorf("expected default radius %d, got %f", DefaultAnalysisRadius, analyzer.gotRadius)
	}
}

func TestHandleAnalyzeAreaRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "latitude out of range",
			args: map[string]any{"latitude": 95.0, "longitude": 98.9633, "radius": 500.0},
		},
		{
			name: "radius too large",
			args: map[string]any{"latitude": 18.7961, "longitude": 98.9633, "radius": 20000.0},
		},
		{
			name: "negative radius",
			args: map[string]any{"latitude": 18.7961, "longitude": 98.9633, "radius": -10.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{result: sampleAnalysis()}
			r := newTestRegistry(nil, analyzer, nil)

			result, err := r.handleAnalyzeArea(context.Background(), NewToolRequest("analyze_area", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			AssertErrorResult(t, result, "Expected error result for bad input")

			if code := parseErrorCode(t, result); code != "INVALID_INPUT" {
				t.Errorf("expected INVALID_INPUT, got %q", code)
			}
			if analyzer.calls != 0 {
				t.Errorf("analyzer must not run on bad input, got %d calls", analyzer.calls)
			}
		})
	}
}

func TestHandleAnalyzeAreaAnalysisFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: poi.ErrAnalysisFailed}
	r := newTestRegistry(nil, analyzer, nil)

	req := NewToolRequest("analyze_area", map[string]any{
		"latitude":  18.7961,
		"longitude": 98.9633,
		"radius":    500.0,
	})

	result, err := r.handleAnalyzeArea(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertErrorResult(t, result, "Expected error result for failed analysis")

	if code := parseErrorCode(t, result); code != "SERVICE_UNAVAILABLE" {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %q", code)
	}
}

func TestHandleAnalyzeAreaAnalyzerValidation(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("locale not supported")}
	r := newTestRegistry(nil, analyzer, nil)

	req := NewToolRequest("analyze_area", map[string]any{
		"latitude":  18.7961,
		"longitude": 98.9633,
		"radius":    500.0,
	})

	result, err := r.handleAnalyzeArea(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertErrorResult(t, result, "Expected error result")

	if code := parseErrorCode(t, result); code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %q", code)
	}
}
