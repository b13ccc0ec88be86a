package controller

import (
	"context"
	"ctchen222/FindMy/internal/api/response"
	"ctchen222/FindMy/internal/location"
	"ctchen222/FindMy/internal/places"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgNoLocation    = "Could not determine location"
	msgNoCity        = "Could not determine city"
	msgNoRestaurants = "Could not locate any restaurants nearby."
)

// PlaceFinder lists points of interest around the caller.
type PlaceFinder interface {
	ListRestaurants(ctx context.Context, clientIP string, radius, limit int) ([]places.Restaurant, error)
	ListHotels(ctx context.Context, clientIP string, radius int) ([]places.Hotel, error)
	ListEvents(ctx context.Context, clientIP string) ([]places.Event, error)
}

// PlaceController serves the restaurant, hotel and event pages.
type PlaceController struct {
	finder PlaceFinder
}

// NewPlaceController creates a new PlaceController.
func NewPlaceController(finder PlaceFinder) *PlaceController {
	return &PlaceController{finder: finder}
}

// Home renders the landing page.
func (pc *PlaceController) Home(c *gin.Context) {
	response.Page(c, http.StatusOK, "index.html", nil)
}

// Restaurants renders restaurants near the caller or an error banner.
func (pc *PlaceController) Restaurants(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := pc.finder.ListRestaurants(ctx, c.ClientIP(), places.DefaultRestaurantRadius, places.DefaultRestaurantLimit)
	if err != nil {
		response.Page(c, http.StatusOK, "restaurants.html", gin.H{"Error": pageError(ctx, "restaurants", err)})
		return
	}
	if len(list) == 0 {
		response.Page(c, http.StatusOK, "restaurants.html", gin.H{"Error": msgNoRestaurants})
		return
	}
	response.Page(c, http.StatusOK, "restaurants.html", gin.H{"Restaurants": list})
}

// Hotels renders hotels near the caller or an error banner.
func (pc *PlaceController) Hotels(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := pc.finder.ListHotels(ctx, c.ClientIP(), places.DefaultHotelRadius)
	if err != nil {
		response.Page(c, http.StatusOK, "hotels.html", gin.H{"Error": pageError(ctx, "hotels", err)})
		return
	}
	response.Page(c, http.StatusOK, "hotels.html", gin.H{"Hotels": list})
}

// Events renders the events in the caller's city. Failures are reported as
// JSON, mirroring the upstream status where there is one.
func (pc *PlaceController) Events(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := pc.finder.ListEvents(ctx, c.ClientIP())
	if err == nil {
		response.Page(c, http.StatusOK, "events.html", gin.H{"Events": list})
		return
	}

	var fe *places.FetchError
	switch {
	case errors.Is(err, location.ErrLocationUnavailable):
		response.ErrorResponse(c, http.StatusBadRequest, msgNoLocation)
	case errors.Is(err, places.ErrCityUnavailable):
		response.ErrorResponse(c, http.StatusBadRequest, msgNoCity)
	case errors.As(err, &fe):
		slog.WarnContext(ctx, "events upstream failed", "status", fe.Status, "error", err)
		response.ErrorResponse(c, fe.Status, fe.Message)
	default:
		slog.ErrorContext(ctx, "events failed", "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, msgSomethingWrong)
	}
}

// pageError maps a feature failure to the banner shown on its page.
func pageError(ctx context.Context, feature string, err error) string {
	var fe *places.FetchError
	switch {
	case errors.Is(err, location.ErrLocationUnavailable):
		return msgNoLocation
	case errors.As(err, &fe):
		slog.WarnContext(ctx, "feature upstream failed", "feature", feature, "status", fe.Status, "error", err)
		return fe.Message
	default:
		slog.ErrorContext(ctx, "feature failed", "feature", feature, "error", err)
		return msgSomethingWrong
	}
}
