// Package location turns a caller's network address into coordinates and
// coordinates into a city name.
package location

import (
	"context"
	"ctchen222/FindMy/internal/upstream"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("location")

// UnknownCity is returned by ResolveCity when no city can be determined.
const UnknownCity = "Unknown"

// ErrLocationUnavailable is returned when the caller cannot be geolocated.
var ErrLocationUnavailable = errors.New("could not determine location")

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lon)
}

// Resolver looks up coordinates through an IP geolocation service and city
// names through a reverse geocoder.
type Resolver struct {
	client       *upstream.Client
	ipinfoURL    string
	nominatimURL string
}

// NewResolver creates a Resolver against the given service endpoints.
// Trailing slashes on either endpoint are ignored.
func NewResolver(client *upstream.Client, ipinfoURL, nominatimURL string) *Resolver {
	return &Resolver{
		client:       client,
		ipinfoURL:    strings.TrimRight(ipinfoURL, "/"),
		nominatimURL: strings.TrimRight(nominatimURL, "/"),
	}
}

type ipinfoResponse struct {
	Loc string `json:"loc"`
}

// ResolveLocation geolocates clientIP. Addresses that are not publicly
// routable are resolved as the server's own location. Every failure is
// reported as ErrLocationUnavailable.
func (r *Resolver) ResolveLocation(ctx context.Context, clientIP string) (Coordinates, error) {
	ctx, span := tracer.Start(ctx, "Resolver.ResolveLocation")
	defer span.End()

	endpoint := r.ipinfoURL + "/json"
	if isPublic(clientIP) {
		endpoint = fmt.Sprintf("%s/%s/json", r.ipinfoURL, url.PathEscape(clientIP))
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(ctx, "ipinfo", req)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "geolocation lookup failed", "error", err)
		return Coordinates{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if !resp.OK() {
		slog.WarnContext(ctx, "geolocation lookup rejected", "status", resp.StatusCode)
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrLocationUnavailable, resp.StatusCode)
	}

	var body ipinfoResponse
	if err := resp.Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	coords, err := parseLoc(body.Loc)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	span.SetAttributes(attribute.Float64("geo.lat", coords.Lat), attribute.Float64("geo.lon", coords.Lon))
	return coords, nil
}

// parseLoc parses a "lat,lon" pair.
func parseLoc(loc string) (Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(loc, ",")
	if !ok {
		return Coordinates{}, fmt.Errorf("missing or malformed loc %q", loc)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("bad longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, fmt.Errorf("coordinates out of range: %s", loc)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

func isPublic(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsMulticast())
}

type nominatimResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
	} `json:"address"`
}

// ResolveCity reverse-geocodes c to a city name. It never fails: lookup
// errors, timeouts and responses without a settlement all yield UnknownCity.
func (r *Resolver) ResolveCity(ctx context.Context, c Coordinates) string {
	ctx, span := tracer.Start(ctx, "Resolver.ResolveCity")
	defer span.End()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	q.Set("accept-language", "en")

	req, err := http.NewRequest(http.MethodGet, r.nominatimURL+"?"+q.Encode(), nil)
	if err != nil {
		return UnknownCity
	}

	resp, err := r.client.Do(ctx, "nominatim", req)
	if err != nil {
		span.RecordError(err)
		if upstream.IsTimeout(err) {
			slog.WarnContext(ctx, "city lookup timed out", "coords", c.String())
		} else {
			slog.WarnContext(ctx, "city lookup failed", "coords", c.String(), "error", err)
		}
		return UnknownCity
	}
	if !resp.OK() {
		slog.WarnContext(ctx, "city lookup rejected", "status", resp.StatusCode)
		return UnknownCity
	}

	var body nominatimResponse
	if err := resp.Decode(&body); err != nil {
		slog.WarnContext(ctx, "city lookup returned malformed body", "error", err)
		return UnknownCity
	}

	for _, name := range []string{body.Address.City, body.Address.Town, body.Address.Village, body.Address.Municipality} {
		if name != "" {
			span.SetAttributes(attribute.String("geo.city", name))
			return name
		}
	}
	return UnknownCity
}
