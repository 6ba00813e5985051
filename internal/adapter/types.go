package adapter

import (
	"encoding/json"
	"strings"
)

// SABnzbd

type sabQueueResponse struct {
	Error string   `json:"error"`
	Queue sabQueue `json:"queue"`
}

type sabQueue struct {
	Speed    string    `json:"speed"`
	SizeLeft string    `json:"sizeleft"`
	Slots    []sabSlot `json:"slots"`
}

type sabSlot struct {
	Filename string `json:"filename"`
}

type sabHistoryResponse struct {
	History struct {
		Slots []struct {
			Name string `json:"name"`
		} `json:"slots"`
	} `json:"history"`
}

// NZBGet

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

type rpcError struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "JSON-RPC error"
}

type nzbStatusResponse struct {
	Result struct {
		DownloadRate    float64 `json:"DownloadRate"`
		RemainingSizeMB float64 `json:"RemainingSizeMB"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type nzbHistoryResponse struct {
	Result []struct {
		Name string `json:"Name"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// Sonarr, Radarr, Lidarr and Readarr

// calendarItem is the union of the calendar fields the four library
// managers return; each kind reads only its own.
type calendarItem struct {
	Monitored bool   `json:"monitored"`
	HasFile   bool   `json:"hasFile"`
	Title     string `json:"title"`

	// Sonarr
	SeriesTitle   string `json:"seriesTitle"`
	SeriesName    string `json:"seriesName"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	AirDate       string `json:"airDate"`
	Series        *struct {
		Title       string `json:"title"`
		SeriesTitle string `json:"seriesTitle"`
	} `json:"series"`
	EpisodeFile *struct {
		Path string `json:"path"`
	} `json:"episodeFile"`

	// Radarr
	Year            int    `json:"year"`
	InCinemas       string `json:"inCinemas"`
	DigitalRelease  string `json:"digitalRelease"`
	PhysicalRelease string `json:"physicalRelease"`

	// Lidarr and Readarr
	ReleaseDate string `json:"releaseDate"`
	Artist      *struct {
		ArtistName string `json:"artistName"`
	} `json:"artist"`
	Author *struct {
		AuthorName string `json:"authorName"`
	} `json:"author"`
}

type arrHistoryResponse struct {
	Records []struct {
		SourceTitle string `json:"sourceTitle"`
	} `json:"records"`
}

// Bazarr

type bazarrHistoryResponse struct {
	Data []bazarrHistoryItem `json:"data"`
}

type bazarrHistoryItem struct {
	SeriesTitle string          `json:"seriesTitle"`
	Title       string          `json:"title"`
	Language    json.RawMessage `json:"language"`
}

// languageName accepts a bare string or an object with a name field.
func languageName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Name)
	}
	return ""
}

// Overseerr

// overseerrPending is the request status code for "pending approval".
const overseerrPending = 1

type overseerrRequestsResponse struct {
	Results []overseerrRequest `json:"results"`
}

type overseerrRequest struct {
	Status int    `json:"status"`
	Type   string `json:"type"`
	Media  struct {
		Title       string `json:"title"`
		Name        string `json:"name"`
		ReleaseDate string `json:"releaseDate"`
	} `json:"media"`
}
