package kobo

import (
	"strings"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
)

type ReadingState struct {
	EntitlementID     string          `json:"EntitlementId"`
	Created           string          `json:"Created"`
	LastModified      string          `json:"LastModified"`
	StatusInfo        StatusInfo      `json:"StatusInfo"`
	Statistics        Statistics      `json:"Statistics"`
	CurrentBookmark   CurrentBookmark `json:"CurrentBookmark"`
	PriorityTimestamp string          `json:"PriorityTimestamp"`
}

type StatusInfo struct {
	LastModified            string  `json:"LastModified"`
	Status                  string  `json:"Status"`
	TimesStartedReading     int     `json:"TimesStartedReading"`
	LastTimeStartedReading  *string `json:"LastTimeStartedReading,omitempty"`
	LastTimeFinished        string  `json:"LastTimeFinished"`
}

type Statistics struct {
	LastModified         string `json:"LastModified"`
	SpentReadingMinutes  int    `json:"SpentReadingMinutes"`
	RemainingTimeMinutes int    `json:"RemainingTimeMinutes"`
}

type CurrentBookmark struct {
	LastModified                 string    `json:"LastModified"`
	ProgressPercent              int       `json:"ProgressPercent"`
	ContentSourceProgressPercent int       `json:"ContentSourceProgressPercent"`
	Location                     *Location `json:"Location,omitempty"`
}

type Location struct {
	Value  string `json:"Value"`
	Type   string `json:"Type"`
	Source string `json:"Source"`
}

// NewReadingState builds the device reading-state block. A bookmark
// location is only present when the backend knows both the span tag and
// the source file.
func NewReadingState(bookID, status string, tag, source *string) ReadingState {
	now := NowString()

	var location *Location
	if tag != nil && source != nil {
		location = &Location{Value: *tag, Type: "KoboSpan", Source: *source}
	}

	return ReadingState{
		EntitlementID: bookID,
		Created:       now,
		LastModified:  now,
		StatusInfo: StatusInfo{
			LastModified:     now,
			Status:           status,
			LastTimeFinished: now,
		},
		Statistics: Statistics{LastModified: now},
		CurrentBookmark: CurrentBookmark{
			LastModified: now,
			Location:     location,
		},
		PriorityTimestamp: now,
	}
}

// DeviceStatus maps a backend reading status onto the device's vocabulary.
func DeviceStatus(status string) string {
	switch status {
	case "Read":
		return "Finished"
	case "Unread":
		return "ReadyToRead"
	}
	return status
}

// BackendStatus is the inverse of DeviceStatus.
func BackendStatus(status string) string {
	switch status {
	case "Finished":
		return "Read"
	case "ReadyToRead":
		return "Unread"
	}
	return status
}

// TranslateReadingState maps a backend reading state onto the device
// shape.
func TranslateReadingState(bookID string, state *backend.ReadingState) ReadingState {
	var tag, source *string
	if state.Location != nil {
		tag = state.Location.Tag
		source = state.Location.Source
	}
	return NewReadingState(bookID, DeviceStatus(state.Statistics.ReadingStatus), tag, source)
}

// TombstoneReadingState is the placeholder reading state attached to a
// removed-book tombstone.
func TombstoneReadingState(bookID string) ReadingState {
	return NewReadingState(bookID, "Unread", nil, nil)
}

// UpdateStateRequest is the payload devices send when pushing reading
// progress.
type UpdateStateRequest struct {
	ReadingStates []ReadingState `json:"ReadingStates"`
}

type UpdateStateResponse struct {
	RequestResult string        `json:"RequestResult"`
	UpdateResults []StateResult `json:"UpdateResults"`
}

type StateResult struct {
	EntitlementID         string      `json:"EntitlementId"`
	StatusInfoResult      ResultBlock `json:"StatusInfoResult"`
	StatisticsResult      ResultBlock `json:"StatisticsResult"`
	CurrentBookmarkResult ResultBlock `json:"CurrentBookmarkResult"`
}

type ResultBlock struct {
	Result string `json:"Result"`
}

// NewUpdateStateResponse is the all-success acknowledgement the device
// expects after a state push.
func NewUpdateStateResponse(bookID string) UpdateStateResponse {
	success := ResultBlock{Result: "Success"}
	return UpdateStateResponse{
		RequestResult: "Success",
		UpdateResults: []StateResult{{
			EntitlementID:         bookID,
			StatusInfoResult:      success,
			StatisticsResult:      success,
			CurrentBookmarkResult: success,
		}},
	}
}

// ToBackendState maps a device reading state onto the backend shape. Some
// firmware versions prefix the bookmark source with "<id>!!"; only the part
// after the marker names the file the backend knows.
func ToBackendState(state ReadingState) *backend.ReadingState {
	var location *backend.Location
	if l := state.CurrentBookmark.Location; l != nil {
		tag := l.Value
		source := l.Source
		if i := strings.Index(source, "!!"); i >= 0 {
			source = source[i+2:]
		}
		location = &backend.Location{Tag: &tag, Source: &source}
	}

	return &backend.ReadingState{
		Location: location,
		Statistics: backend.Statistics{
			ReadingStatus: BackendStatus(state.StatusInfo.Status),
		},
	}
}
