package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const openCageURL = "https://api.opencagedata.com/geocode/v1/json"

// Geocoder maps coordinates to a city name
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

type openCageResponse struct {
	Results []struct {
		Components struct {
			City string `json:"city"`
		} `json:"components"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// OpenCageClient is a one-shot reverse geocoder; it never retries
type OpenCageClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenCageClient(apiKey string) *OpenCageClient {
	return &OpenCageClient{
		apiKey:  apiKey,
		baseURL: openCageURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ReverseGeocode returns the city of the first result, or "" when the
// service knows no city for the coordinates
func (c *OpenCageClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("q", strconv.FormatFloat(lat, 'f', 6, 64)+","+strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("key", c.apiKey)
	q.Set("language", "en")
	q.Set("limit", "1")
	q.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("opencage returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ocResp openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocResp); err != nil {
		return "", fmt.Errorf("decode opencage response: %w", err)
	}

	if len(ocResp.Results) == 0 {
		return "", nil
	}
	return strings.TrimSpace(ocResp.Results[0].Components.City), nil
}
