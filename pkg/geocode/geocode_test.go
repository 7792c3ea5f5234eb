package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/NERVsystems/geoscout/pkg/geo"
)

type fakeProvider struct {
	name  string
	loc   geo.Location
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(ctx context.Context, query string) (geo.Location, error) {
	f.calls++
	if f.err != nil {
		return geo.Location{}, f.err
	}
	return f.loc, nil
}

func TestResolveDirectCoordinates(t *testing.T) {
	provider := &fakeProvider{name: "p1", loc: geo.Location{Latitude: 1, Longitude: 1}}
	resolver := NewResolver(provider)

	tests := []struct {
		query   string
		wantLat float64
		wantLon float64
	}{
		{"13.75,100.50", 13.75, 100.50},
		{"13.75, 100.50", 13.75, 100.50},
		{"13.75 100.50", 13.75, 100.50},
		{"-33.8688, 151.2093", -33.8688, 151.2093},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			loc, err := resolver.Resolve(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.query, err)
			}
			if loc.Latitude != tt.wantLat || loc.Longitude != tt.wantLon {
				t.Errorf("Resolve(%q) = %v, want {%v %v}", tt.query, loc, tt.wantLat, tt.wantLon)
			}
		})
	}

	// Direct parsing must not touch the provider chain.
	if provider.calls != 0 {
		t.Errorf("providers were called %d times for coordinate input", provider.calls)
	}
}

func TestResolveOutOfRangeNumbersFallThrough(t *testing.T) {
	provider := &fakeProvider{name: "p1", loc: geo.Location{Latitude: 13.75, Longitude: 100.5}}
	resolver := NewResolver(provider)

	loc, err := resolver.Resolve(context.Background(), "999,999")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("out-of-range numbers should reach the provider chain, calls = %d", provider.calls)
	}
	if loc != provider.loc {
		t.Errorf("Resolve = %v, want provider result %v", loc, provider.loc)
	}
}

func TestResolveFirstProviderWins(t *testing.T) {
	p1 := &fakeProvider{name: "p1", loc: geo.Location{Latitude: 13.7466, Longitude: 100.5349}}
	p2 := &fakeProvider{name: "p2", loc: geo.Location{Latitude: 18.7877, Longitude: 98.9817}}
	resolver := NewResolver(p1, p2)

	loc, err := resolver.Resolve(context.Background(), "Siam Paragon")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loc != p1.loc {
		t.Errorf("Resolve = %v, want first provider's %v", loc, p1.loc)
	}
	if p2.calls != 0 {
		t.Errorf("second provider was consulted %d times after first succeeded", p2.calls)
	}
}

func TestResolveChainContinuesPastFailures(t *testing.T) {
	p1 := &fakeProvider{name: "p1", err: errors.New("connection refused")}
	p2 := &fakeProvider{name: "p2", err: ErrNoResult}
	p3 := &fakeProvider{name: "p3", loc: geo.Location{Latitude: 51.5074, Longitude: -0.1278}}
	resolver := NewResolver(p1, p2, p3)

	loc, err := resolver.Resolve(context.Background(), "London")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loc != p3.loc {
		t.Errorf("Resolve = %v, want %v", loc, p3.loc)
	}
	for _, p := range []*fakeProvider{p1, p2, p3} {
		if p.calls != 1 {
			t.Errorf("provider %s called %d times, want 1", p.name, p.calls)
		}
	}
}

func TestResolveSkipsOutOfRangeProviderResult(t *testing.T) {
	p1 := &fakeProvider{name: "p1", loc: geo.Location{Latitude: 95, Longitude: 100}}
	p2 := &fakeProvider{name: "p2", loc: geo.Location{Latitude: 13.75, Longitude: 100.5}}
	resolver := NewResolver(p1, p2)

	loc, err := resolver.Resolve(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loc != p2.loc {
		t.Errorf("Resolve = %v, want %v from the next provider", loc, p2.loc)
	}
}

func TestResolveAllProvidersExhausted(t *testing.T) {
	p1 := &fakeProvider{name: "p1", err: errors.New("timeout")}
	p2 := &fakeProvider{name: "p2", err: ErrNoResult}
	resolver := NewResolver(p1, p2)

	_, err := resolver.Resolve(context.Background(), "nowhere at all")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	provider := &fakeProvider{name: "p1", loc: geo.Location{Latitude: 1, Longitude: 1}}
	resolver := NewResolver(provider)

	_, err := resolver.Resolve(context.Background(), "   ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty query, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("providers should not run for an empty query")
	}
}

func TestDefaultProviders(t *testing.T) {
	providers := DefaultProviders()
	want := []string{"arcgis", "photon", "nominatim"}
	if len(providers) != len(want) {
		t.Fatalf("got %d providers, want %d", len(providers), len(want))
	}
	for i, name := range want {
		if providers[i].Name() != name {
			t.Errorf("provider %d = %s, want %s", i, providers[i].Name(), name)
		}
	}
}
