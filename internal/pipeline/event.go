package pipeline

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/extract"
)

// Event is one storage notification.
type Event struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	EventType string    `json:"event_type"`
	Data      EventData `json:"data"`
}

type EventData struct {
	URL string `json:"url"`
}

// UnmarshalJSON also accepts the Event Grid spelling "eventType".
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var aux struct {
		plain
		EventGridType string `json:"eventType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Event(aux.plain)
	if e.EventType == "" {
		e.EventType = aux.EventGridType
	}
	return nil
}

// FromProcessedContainer reports whether the event concerns a dedup marker.
func (e Event) FromProcessedContainer() bool {
	return strings.Contains(strings.ToLower(e.Subject), "/containers/"+constants.ProcessedEventsContainer+"/")
}

var (
	ErrMissingURL      = errors.New(constants.ReasonMissingURL)
	ErrMissingBlobPath = errors.New(constants.ReasonMissingBlobPath)
	ErrMissingFileName = errors.New(constants.ReasonMissingFileName)
)

// ParseBlobURL splits https://<account>.<host>/<container>/<folder...>/<file>.
func ParseBlobURL(raw string) (extract.Document, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return extract.Document{}, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return extract.Document{}, ErrMissingBlobPath
	}

	doc := extract.Document{URL: raw}
	doc.Account, _, _ = strings.Cut(u.Hostname(), ".")

	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	doc.Container = parts[0]
	if len(parts) < 2 || (len(parts) == 2 && parts[1] == "") {
		return extract.Document{}, ErrMissingBlobPath
	}
	rest := parts[1:]
	doc.Path = strings.Join(rest, "/")
	doc.Name = rest[len(rest)-1]
	doc.Folder = strings.Join(rest[:len(rest)-1], "/")
	if doc.Name == "" {
		return extract.Document{}, ErrMissingFileName
	}
	return doc, nil
}
