package remote

import (
	"context"
	"net/http"
	"net/url"
)

type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Country struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Region Region `json:"region"`
}

type City struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Country Country `json:"country"`
}

// GeoQuery narrows the countries and cities listings. Zero fields are not
// sent.
type GeoQuery struct {
	Region      string
	RegionCode  string
	Country     string
	CountryCode string
}

func (g GeoQuery) values() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"region":       g.Region,
		"region_code":  g.RegionCode,
		"country":      g.Country,
		"country_code": g.CountryCode,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func (c *Client) Regions(ctx context.Context) ([]Region, error) {
	var out []Region
	if err := c.do(ctx, "list_regions", http.MethodGet, "/regions/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Countries(ctx context.Context, q GeoQuery) ([]Country, error) {
	q.Country, q.CountryCode = "", ""
	var out []Country
	if err := c.do(ctx, "list_countries", http.MethodGet, "/countries/", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Cities(ctx context.Context, q GeoQuery) ([]City, error) {
	var out []City
	if err := c.do(ctx, "list_cities", http.MethodGet, "/cities/", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
