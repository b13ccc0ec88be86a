// Package places queries the restaurant, hotel and events services for the
// caller's surroundings and normalizes their answers into display records.
package places

import (
	"context"
	"ctchen222/FindMy/internal/location"
	"ctchen222/FindMy/internal/upstream"
	"log/slog"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("places")

// Default names for records the upstream left unnamed.
const (
	UnnamedRestaurant = "Unnamed Restaurant"
	UnknownAddress    = "Address unavailable"
	UnnamedHotel      = "Unnamed Hotel"
	UnknownEvent      = "Unknown Event"
	UnknownGenre      = "Unknown Genre"
	UnknownEventURL   = "#"
	UnknownEventDate  = "TBD"
)

// Restaurant is a normalized restaurant search result.
type Restaurant struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Hotel is a normalized lodging node.
type Hotel struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	City string  `json:"city"`
}

// Event is a normalized event listing. An empty ImageURL means the upstream
// provided none.
type Event struct {
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Genre     string `json:"genre"`
	EventURL  string `json:"event_url"`
	EventDate string `json:"event_date"`
}

// Locator resolves the caller's coordinates and city.
type Locator interface {
	ResolveLocation(ctx context.Context, clientIP string) (location.Coordinates, error)
	ResolveCity(ctx context.Context, c location.Coordinates) string
}

// Endpoints configures the feature services.
type Endpoints struct {
	FoursquareURL   string
	FoursquareKey   string
	OverpassURL     string
	TicketmasterURL string
	TicketmasterKey string
}

// Aggregator runs the per-feature pipelines: locate the caller, call one
// feature service, normalize the result.
type Aggregator struct {
	locator   Locator
	client    *upstream.Client
	endpoints Endpoints
}

// NewAggregator creates an Aggregator.
func NewAggregator(locator Locator, client *upstream.Client, endpoints Endpoints) *Aggregator {
	return &Aggregator{
		locator:   locator,
		client:    client,
		endpoints: endpoints,
	}
}

func logMalformed(ctx context.Context, err *MalformedRecordError) {
	slog.WarnContext(ctx, "degraded upstream record", "service", err.Service, "index", err.Index, "error", err.Err)
}
