package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("geocoding service disabled: no API key configured")

// ErrNoResult is returned when the service answered but produced no
// usable address for the coordinates.
var ErrNoResult = errors.New("no address found for coordinates")

const defaultBaseURL = "https://restapi.amap.com"

// Client resolves GPS coordinates to human-readable addresses using the
// Amap reverse geocoding API.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a geocoding client. baseURL may be empty to use the
// public Amap endpoint; apiKey may be empty, which disables the service.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &Client{http: http, apiKey: apiKey}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// amapText tolerates the Amap convention of returning [] in place of a
// missing string field.
type amapText string

func (t *amapText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = amapText(s)
		return nil
	}
	*t = ""
	return nil
}

type regeoResponse struct {
	Status    string `json:"status"`
	Info      string `json:"info"`
	Regeocode struct {
		FormattedAddress amapText `json:"formatted_address"`
		AddressComponent struct {
			Province amapText `json:"province"`
			City     amapText `json:"city"`
			District amapText `json:"district"`
			Township amapText `json:"township"`
		} `json:"addressComponent"`
		Pois []struct {
			Name amapText `json:"name"`
		} `json:"pois"`
	} `json:"regeocode"`
}

// ReverseGeocode converts coordinates to an address string. The address
// is assembled from province/city/district/township plus the nearest
// point of interest, falling back to the formatted address.
func (c *Client) ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	var result regeoResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": c.apiKey,
			// Amap expects longitude,latitude order
			"location":   fmt.Sprintf("%f,%f", longitude, latitude),
			"extensions": "all",
			"output":     "json",
		}).
		SetResult(&result).
		Get("/v3/geocode/regeo")
	if err != nil {
		return "", fmt.Errorf("geocode: request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("geocode: API error %d", resp.StatusCode())
	}
	if result.Status != "1" {
		return "", fmt.Errorf("geocode: API returned error: %s", result.Info)
	}

	address := assembleAddress(&result)
	if address == "" {
		return "", ErrNoResult
	}

	log.Printf("geocode: reverse geocoded (%f, %f) -> %s", latitude, longitude, address)
	return address, nil
}

func assembleAddress(r *regeoResponse) string {
	comp := r.Regeocode.AddressComponent

	var parts []string
	province := string(comp.Province)
	if province != "" && province != "中华人民共和国" {
		parts = append(parts, province)
	}
	if city := string(comp.City); city != "" && city != province {
		parts = append(parts, city)
	}
	if district := string(comp.District); district != "" {
		parts = append(parts, district)
	}
	if township := string(comp.Township); township != "" {
		parts = append(parts, township)
	}
	if len(r.Regeocode.Pois) > 0 {
		if poi := string(r.Regeocode.Pois[0].Name); poi != "" {
			parts = append(parts, poi)
		}
	}

	if len(parts) > 0 {
		// Chinese addresses read naturally without separators
		return strings.Join(parts, "")
	}
	return string(r.Regeocode.FormattedAddress)
}
