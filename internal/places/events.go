package places

import (
	"context"
	"ctchen222/FindMy/internal/location"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
)

// ListEvents returns the events listed for the caller's city.
func (a *Aggregator) ListEvents(ctx context.Context, clientIP string) ([]Event, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.ListEvents")
	defer span.End()

	coords, err := a.locator.ResolveLocation(ctx, clientIP)
	if err != nil {
		return nil, err
	}
	city := a.locator.ResolveCity(ctx, coords)
	if city == location.UnknownCity {
		return nil, ErrCityUnavailable
	}
	span.SetAttributes(attribute.String("geo.city", city))

	q := url.Values{}
	q.Set("city", city)
	q.Set("apikey", a.endpoints.TicketmasterKey)
	req, err := http.NewRequest(http.MethodGet, a.endpoints.TicketmasterURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, transportError("events", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(ctx, "ticketmaster", req)
	if err != nil {
		span.RecordError(err)
		return nil, transportError("events", err)
	}
	if !resp.OK() {
		return nil, &FetchError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Failed to fetch events, status code: %d", resp.StatusCode),
		}
	}

	var body any
	if err := resp.Decode(&body); err != nil {
		return nil, malformedResponse("events", err)
	}

	raw, _ := field(body, "_embedded", "events").([]any)
	events := make([]Event, 0, len(raw))
	for i, item := range raw {
		events = append(events, normalizeEvent(ctx, i, item))
	}
	span.SetAttributes(attribute.Int("places.count", len(events)))
	return events, nil
}

// normalizeEvent reads one Ticketmaster event. Each field is looked up on
// its own so a missing or mistyped branch only resets that field.
func normalizeEvent(ctx context.Context, i int, item any) Event {
	if _, ok := item.(map[string]any); !ok {
		logMalformed(ctx, &MalformedRecordError{Service: "ticketmaster", Index: i, Err: fmt.Errorf("event is %T, not an object", item)})
	}

	attraction := field(item, "_embedded", "attractions", 0)
	return Event{
		Name:      stringField(item, UnknownEvent, "name"),
		ImageURL:  stringField(attraction, "", "images", 0, "url"),
		Genre:     stringField(attraction, UnknownGenre, "classifications", 0, "genre", "name"),
		EventURL:  stringField(attraction, UnknownEventURL, "url"),
		EventDate: stringField(item, UnknownEventDate, "dates", "start", "localDate"),
	}
}

// field walks v along path, where each step is an object key (string) or an
// array index (int). It returns nil as soon as a step does not apply.
func field(v any, path ...any) any {
	for _, step := range path {
		switch s := step.(type) {
		case string:
			obj, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = obj[s]
		case int:
			arr, ok := v.([]any)
			if !ok || s < 0 || s >= len(arr) {
				return nil
			}
			v = arr[s]
		default:
			return nil
		}
	}
	return v
}

// stringField returns the non-empty string at path, or def.
func stringField(v any, def string, path ...any) string {
	if s, ok := field(v, path...).(string); ok && s != "" {
		return s
	}
	return def
}
