package places

import (
	"context"
	"ctchen222/FindMy/internal/location"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultHotelRadius = 5000

type overpassResponse struct {
	Elements []json.RawMessage `json:"elements"`
}

type overpassNode struct {
	Lat  *float64          `json:"lat"`
	Lon  *float64          `json:"lon"`
	Tags map[string]string `json:"tags"`
}

func hotelQuery(c location.Coordinates, radius int) string {
	return fmt.Sprintf(`[out:json];
node["tourism"="hotel"](around:%d,%f,%f);
out body;`, radius, c.Lat, c.Lon)
}

// ListHotels returns the hotel nodes within radius meters of the caller, each
// with the city its own coordinates reverse-geocode to. Nodes without
// coordinates are skipped.
func (a *Aggregator) ListHotels(ctx context.Context, clientIP string, radius int) ([]Hotel, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ListHotels")
	defer span.End()

	coords, err := a.locator.ResolveLocation(ctx, clientIP)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("data", hotelQuery(coords, radius))
	req, err := http.NewRequest(http.MethodPost, a.endpoints.OverpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transportError("hotels", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(ctx, "overpass", req)
	if err != nil {
		span.RecordError(err)
		return nil, transportError("hotels", err)
	}
	if !resp.OK() {
		return nil, &FetchError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Error fetching hotels: %d", resp.StatusCode),
		}
	}

	var body overpassResponse
	if err := resp.Decode(&body); err != nil {
		return nil, malformedResponse("hotels", err)
	}

	// One reverse lookup per distinct hotel position within this request.
	cities := make(map[string]string)
	hotels := make([]Hotel, 0, len(body.Elements))
	for i, raw := range body.Elements {
		var node overpassNode
		if err := json.Unmarshal(raw, &node); err != nil {
			logMalformed(ctx, &MalformedRecordError{Service: "overpass", Index: i, Err: err})
			continue
		}
		if node.Lat == nil || node.Lon == nil {
			continue
		}

		pos := location.Coordinates{Lat: *node.Lat, Lon: *node.Lon}
		key := fmt.Sprintf("%.5f,%.5f", pos.Lat, pos.Lon)
		city, ok := cities[key]
		if !ok {
			city = a.locator.ResolveCity(ctx, pos)
			cities[key] = city
		}

		name := node.Tags["name"]
		if name == "" {
			name = UnnamedHotel
		}
		hotels = append(hotels, Hotel{Name: name, Lat: pos.Lat, Lon: pos.Lon, City: city})
	}

	span.SetAttributes(attribute.Int("places.count", len(hotels)), attribute.Int("places.city_lookups", len(cities)))
	return hotels, nil
}
