package model

import "time"

// GeoSnapshot is the normalized result of resolving one IP address.
// Every optional field is independently nil when the provider did not
// return a usable value.
type GeoSnapshot struct {
	IP         string    `json:"ip"`
	Hostname   *string   `json:"hostname"`
	City       *string   `json:"city"`
	Region     *string   `json:"region"`
	Country    *string   `json:"country"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	Postal     *string   `json:"postal"`
	Timezone   *string   `json:"timezone"`
	Org        *string   `json:"org"`
	ASN        *string   `json:"asn"`
	ASName     *string   `json:"asName"`
	Source     string    `json:"source"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// GeoResponse wraps a possibly nil snapshot; nil renders as "geo": null.
type GeoResponse struct {
	Geo *GeoSnapshot `json:"geo"`
}

// LookupRequest is the body of POST /history/search.
type LookupRequest struct {
	IP string `json:"ip" validate:"required,max=64"`
}
