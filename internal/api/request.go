package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/parksmarter/parksmarter_core/internal/search"
)

// number accepts a JSON number or a numeric string.
// Browser forms often send coordinates as strings.
type number struct {
	value *float64
}

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.value = nil
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		n.value = &v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			n.value = nil
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", v)
		}
		n.value = &f
	default:
		return fmt.Errorf("expected a number")
	}
	return nil
}

// numberField pairs a JSON key with its destination
type numberField struct {
	name  string
	value *number
}

// decodeNumbers fills fields from the JSON object in data. Keys are matched
// exactly and checked in order, so the first bad field is the one reported.
func decodeNumbers(data []byte, fields ...numberField) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range fields {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := f.value.UnmarshalJSON(value); err != nil {
			return &search.Error{
				Kind:    search.KindInvalidInput,
				Field:   f.name,
				Message: fmt.Sprintf("%s must be a number", f.name),
				Err:     err,
			}
		}
	}
	return nil
}

type transitStopRequest struct {
	Latitude  number `json:"latitude"`
	Longitude number `json:"longitude"`
	Radius    number `json:"radius"`
}

func (r *transitStopRequest) UnmarshalJSON(data []byte) error {
	return decodeNumbers(data,
		numberField{"latitude", &r.Latitude},
		numberField{"longitude", &r.Longitude},
		numberField{"radius", &r.Radius},
	)
}

func (r transitStopRequest) query() search.TransitStopQuery {
	return search.TransitStopQuery{
		Latitude:  r.Latitude.value,
		Longitude: r.Longitude.value,
		Radius:    r.Radius.value,
	}
}

type destinationRequest struct {
	DestinationLat number `json:"destinationLat"`
	DestinationLng number `json:"destinationLng"`
	Radius         number `json:"radius"`
}

func (r *destinationRequest) UnmarshalJSON(data []byte) error {
	return decodeNumbers(data,
		numberField{"destinationLat", &r.DestinationLat},
		numberField{"destinationLng", &r.DestinationLng},
		numberField{"radius", &r.Radius},
	)
}

func (r destinationRequest) query() search.DestinationQuery {
	return search.DestinationQuery{
		DestinationLat: r.DestinationLat.value,
		DestinationLng: r.DestinationLng.value,
		Radius:         r.Radius.value,
	}
}

// parseBody decodes the request body into out. An empty body leaves out
// untouched so validation reports the missing fields.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		var searchErr *search.Error
		if errors.As(err, &searchErr) {
			return searchErr
		}
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
