// internal/catalog/domain.go
package catalog

import (
	"errors"
	"math"
)

var (
	ErrNotFound      = errors.New("catalog record not found")
	ErrNoVirtualTour = errors.New("monastery has no virtual tour")
	ErrUnavailable   = errors.New("catalog collection unavailable")
)

// Collection names, also the base names of the data files.
const (
	CollectionMonasteries = "monasteries"
	CollectionArchives    = "archives"
	CollectionEvents      = "events"
)

// Monastery is a monastery record. Lat and Lng are pointers so records
// without coordinates can be told apart from ones on the equator.
type Monastery struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Location       string   `json:"location" yaml:"location"`
	Lat            *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty" yaml:"lng,omitempty"`
	Description    string   `json:"description" yaml:"description"`
	Tradition      string   `json:"tradition" yaml:"tradition"`
	Founded        string   `json:"founded,omitempty" yaml:"founded,omitempty"`
	Thumbnail      string   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	PanoramaURL    string   `json:"360_image_url,omitempty" yaml:"360_image_url,omitempty"`
	PhotoGallery   []string `json:"photo_gallery,omitempty" yaml:"photo_gallery,omitempty"`
	HasVirtualTour bool     `json:"hasVirtualTour,omitempty" yaml:"hasVirtualTour,omitempty"`
}

func (m Monastery) SearchFields() []string {
	return []string{m.Name, m.Description, m.Location, m.Tradition}
}

func (m Monastery) Dimension(name string) (string, bool) {
	switch name {
	case "tradition":
		return m.Tradition, true
	case "location":
		return m.Location, true
	}
	return "", false
}

// Located reports whether the record has usable coordinates.
func (m Monastery) Located() bool {
	return m.Lat != nil && m.Lng != nil && !math.IsNaN(*m.Lat) && !math.IsNaN(*m.Lng)
}

// Touring reports whether a panorama exists for the monastery.
func (m Monastery) Touring() bool {
	return m.PanoramaURL != ""
}

// ArchiveItem is a digitized document or artifact.
type ArchiveItem struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date,omitempty" yaml:"date,omitempty"`
	Century     string `json:"century" yaml:"century"`
	Monastery   string `json:"monastery" yaml:"monastery"`
	Category    string `json:"category" yaml:"category"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	PDFURL      string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
}

func (a ArchiveItem) SearchFields() []string {
	return []string{a.Title, a.Description, a.Monastery}
}

func (a ArchiveItem) Dimension(name string) (string, bool) {
	switch name {
	case "monastery":
		return a.Monastery, true
	case "century":
		return a.Century, true
	case "category":
		return a.Category, true
	case "language":
		return a.Language, true
	}
	return "", false
}

// Event is a festival or ceremony in the calendar.
type Event struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Month        string   `json:"month" yaml:"month"`
	Season       string   `json:"season" yaml:"season"`
	Type         string   `json:"type" yaml:"type"`
	Location     string   `json:"location" yaml:"location"`
	Monasteries  []string `json:"monasteries,omitempty" yaml:"monasteries,omitempty"`
	Duration     string   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Significance string   `json:"significance,omitempty" yaml:"significance,omitempty"`
}

func (e Event) SearchFields() []string {
	return []string{e.Name, e.Description, e.Type, e.Location}
}

func (e Event) Dimension(name string) (string, bool) {
	switch name {
	case "season":
		return e.Season, true
	case "month":
		return e.Month, true
	case "type":
		return e.Type, true
	}
	return "", false
}

// Dimensions lists the filterable dimensions of each collection.
var Dimensions = map[string][]string{
	CollectionMonasteries: {"tradition", "location"},
	CollectionArchives:    {"monastery", "century", "category", "language"},
	CollectionEvents:      {"season", "month", "type"},
}

// Listing is a filtered page of a collection.
type Listing[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	// Message is set when Items is empty.
	Message string `json:"message,omitempty"`
}

// Detail wraps a single record with its rendered description.
type Detail[T any] struct {
	Record          T      `json:"record"`
	DescriptionHTML string `json:"description_html"`
}

// MonasteryDetail adds the events held at the monastery and the archive
// items it holds.
type MonasteryDetail struct {
	Detail[Monastery]
	Events    []Event       `json:"events"`
	Artifacts []ArchiveItem `json:"artifacts"`
}

// EventDetail adds the names of the participating monasteries. IDs with
// no matching monastery are skipped.
type EventDetail struct {
	Detail[Event]
	MonasteryNames []string `json:"monastery_names"`
}

// Location is the subset of a monastery the itinerary planner anchors on.
type Location struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}
