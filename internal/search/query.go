package search

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/parksmarter/parksmarter_core/internal/geo"
)

// Search defaults
const (
	DefaultTransitRadiusKm = 2.0
	DefaultParkingRadiusKm = 1.0
	MaxRadiusKm            = 50.0

	// Transit stops for eco classification are searched over this multiple of the
	// parking radius so spots near the edge still see their nearest stop
	TransitRadiusFactor = 2.0
)

// TransitStopQuery is the input of Engine.NearbyTransitStops
type TransitStopQuery struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Radius    *float64 `json:"radius" validate:"omitempty,gte=0,lte=50"` // km
}

// DestinationQuery is the input of the destination-based parking searches
type DestinationQuery struct {
	DestinationLat *float64 `json:"destinationLat" validate:"required,latitude"`
	DestinationLng *float64 `json:"destinationLng" validate:"required,longitude"`
	Radius         *float64 `json:"radius" validate:"omitempty,gte=0,lte=50"` // km
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// resolve validates q and returns the center point and radius with defaults applied
func (q TransitStopQuery) resolve() (geo.Point, float64, error) {
	if err := validateQuery(q); err != nil {
		return geo.Point{}, 0, err
	}
	return geo.NewPoint(*q.Latitude, *q.Longitude), radiusOrDefault(q.Radius, DefaultTransitRadiusKm), nil
}

func (q DestinationQuery) resolve() (geo.Point, float64, error) {
	if err := validateQuery(q); err != nil {
		return geo.Point{}, 0, err
	}
	return geo.NewPoint(*q.DestinationLat, *q.DestinationLng), radiusOrDefault(q.Radius, DefaultParkingRadiusKm), nil
}

func radiusOrDefault(radius *float64, def float64) float64 {
	if radius == nil {
		return def
	}
	return *radius
}

// validateQuery turns the first validation failure into an InvalidInput error naming the field
func validateQuery(q interface{}) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindInvalidInput, Message: "invalid request", Err: err}
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalidInput(field, fmt.Sprintf("%s is required", field))
	case "latitude":
		return invalidInput(field, fmt.Sprintf("%s must be a latitude between -90 and 90", field))
	case "longitude":
		return invalidInput(field, fmt.Sprintf("%s must be a longitude between -180 and 180", field))
	case "gte", "lte":
		return invalidInput(field, fmt.Sprintf("%s must be between 0 and %g km", field, MaxRadiusKm))
	default:
		return invalidInput(field, fmt.Sprintf("%s is invalid", field))
	}
}
