package model

import "time"

// HistoryEntry is one recorded lookup owned by a single user.
type HistoryEntry struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	IP        string       `json:"ip"`
	Geo       *GeoSnapshot `json:"geo"`
	CreatedAt time.Time    `json:"createdAt"`
}

// HistoryListResponse is returned by GET /history.
type HistoryListResponse struct {
	Items []HistoryEntry `json:"items"`
}

// DeleteHistoryRequest is the body of DELETE /history.
type DeleteHistoryRequest struct {
	IDs []string `json:"ids" validate:"required,max=100,dive,uuid"`
}

// DeleteHistoryResponse reports how many rows were removed.
type DeleteHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}
