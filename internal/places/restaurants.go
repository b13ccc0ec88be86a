package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultRestaurantRadius = 1000
	DefaultRestaurantLimit  = 5
)

type foursquareResponse struct {
	Results []json.RawMessage `json:"results"`
}

type foursquarePlace struct {
	Name     string `json:"name"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
}

// ListRestaurants returns up to limit restaurants within radius meters of
// the caller. An empty slice with a nil error means the search found nothing.
func (a *Aggregator) ListRestaurants(ctx context.Context, clientIP string, radius, limit int) ([]Restaurant, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ListRestaurants")
	defer span.End()

	coords, err := a.locator.ResolveLocation(ctx, clientIP)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("query", "restaurant")
	q.Set("ll", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	q.Set("radius", strconv.Itoa(radius))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequest(http.MethodGet, a.endpoints.FoursquareURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, transportError("restaurants", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", a.endpoints.FoursquareKey)

	resp, err := a.client.Do(ctx, "foursquare", req)
	if err != nil {
		span.RecordError(err)
		return nil, transportError("restaurants", err)
	}
	if !resp.OK() {
		return nil, &FetchError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Error fetching restaurants: %d", resp.StatusCode),
		}
	}

	var body foursquareResponse
	if err := resp.Decode(&body); err != nil {
		return nil, malformedResponse("restaurants", err)
	}

	results := body.Results
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}

	restaurants := make([]Restaurant, 0, len(results))
	for i, raw := range results {
		restaurants = append(restaurants, normalizeRestaurant(ctx, i, raw))
	}
	span.SetAttributes(attribute.Int("places.count", len(restaurants)))
	return restaurants, nil
}

func normalizeRestaurant(ctx context.Context, i int, raw json.RawMessage) Restaurant {
	r := Restaurant{Name: UnnamedRestaurant, Address: UnknownAddress}

	var place foursquarePlace
	if err := json.Unmarshal(raw, &place); err != nil {
		logMalformed(ctx, &MalformedRecordError{Service: "foursquare", Index: i, Err: err})
		return r
	}
	if place.Name != "" {
		r.Name = place.Name
	}
	if place.Location.FormattedAddress != "" {
		r.Address = place.Location.FormattedAddress
	}
	return r
}
