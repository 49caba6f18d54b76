// Package panorama configures the 360° panorama viewer embedded on tour
// pages.
package panorama

import "errors"

var ErrNoImage = errors.New("panorama image url is required")

// Orientation is a camera direction in radians.
type Orientation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Button is a custom navbar entry.
type Button struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Title   string `json:"title"`
}

// ViewerConfig is everything the client-side viewer is initialized with.
type ViewerConfig struct {
	Panorama            string      `json:"panorama"`
	Caption             string      `json:"caption"`
	Navbar              []string    `json:"navbar"`
	Buttons             []Button    `json:"buttons,omitempty"`
	TouchmoveTwoFingers bool        `json:"touchmoveTwoFingers"`
	MousewheelCtrlKey   bool        `json:"mousewheelCtrlKey"`
	InitialView         Orientation `json:"initialView"`
	ResetSpeedMillis    int         `json:"resetSpeedMillis"`
}

const resetButtonID = "reset-view"

// New builds the viewer configuration for a tour of name.
func New(imageURL, name string) (ViewerConfig, error) {
	if imageURL == "" {
		return ViewerConfig{}, ErrNoImage
	}
	return ViewerConfig{
		Panorama:            imageURL,
		Caption:             name + " - Virtual Tour",
		Navbar:              []string{"zoom", "move", "fullscreen", resetButtonID},
		Buttons:             []Button{{ID: resetButtonID, Content: "🏠", Title: "Reset View"}},
		TouchmoveTwoFingers: true,
		MousewheelCtrlKey:   true,
		InitialView:         Orientation{},
		ResetSpeedMillis:    1000,
	}, nil
}

// Reset returns the orientation the reset-view action animates back to.
func (c ViewerConfig) Reset() Orientation {
	return c.InitialView
}
