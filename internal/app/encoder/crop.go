package encoder

import (
	"fmt"
	"strconv"
	"strings"
)

// Named aspect ratios accepted for cropping, plus "custom" with explicit
// dimensions.
var validAspectRatios = map[string]bool{
	"16:9":   true,
	"4:3":    true,
	"1:1":    true,
	"9:16":   true,
	"21:9":   true,
	"custom": true,
}

var validPositions = map[string]bool{
	"center": true,
	"top":    true,
	"bottom": true,
	"left":   true,
	"right":  true,
}

// CropSpec describes an optional crop request. The zero value means no crop.
type CropSpec struct {
	AspectRatio  string
	Position     string
	CustomWidth  int
	CustomHeight int
}

// Empty reports whether no crop was requested.
func (c CropSpec) Empty() bool {
	return c.AspectRatio == ""
}

// Validate checks the spec against the closed set of ratios and positions.
func (c CropSpec) Validate() error {
	if c.Empty() {
		if c.Position != "" && !validPositions[c.Position] {
			return fmt.Errorf("invalid crop_position %q", c.Position)
		}
		return nil
	}
	if !validAspectRatios[c.AspectRatio] {
		return fmt.Errorf("invalid aspect_ratio %q", c.AspectRatio)
	}
	if c.Position != "" && !validPositions[c.Position] {
		return fmt.Errorf("invalid crop_position %q", c.Position)
	}
	if c.AspectRatio == "custom" && (c.CustomWidth <= 0 || c.CustomHeight <= 0) {
		return fmt.Errorf("custom aspect ratio requires width and height")
	}
	return nil
}

// CropRect is a concrete crop rectangle in source pixels.
type CropRect struct {
	Width  int
	Height int
	X      int
	Y      int
}

// Filter renders the ffmpeg crop filter string.
func (r CropRect) Filter() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", r.Width, r.Height, r.X, r.Y)
}

// ComputeCropRect derives the crop rectangle for a source's display
// dimensions (width/height after applying rotation metadata). Returns
// ok=false when no cropping is needed (spec empty or target equals source).
//
// Dimensions are floored to even numbers for codec compatibility.
func ComputeCropRect(displayWidth, displayHeight int, spec CropSpec) (CropRect, bool) {
	if spec.Empty() || displayWidth <= 0 || displayHeight <= 0 {
		return CropRect{}, false
	}

	var targetW, targetH int
	if spec.AspectRatio == "custom" {
		targetW = evenFloor(spec.CustomWidth)
		targetH = evenFloor(spec.CustomHeight)
	} else {
		targetW, targetH = fitAspect(displayWidth, displayHeight, spec.AspectRatio)
	}

	if targetW <= 0 || targetH <= 0 || (targetW == displayWidth && targetH == displayHeight) {
		return CropRect{}, false
	}

	position := spec.Position
	if position == "" {
		position = "center"
	}

	var x, y int
	switch position {
	case "top":
		x, y = (displayWidth-targetW)/2, 0
	case "bottom":
		x, y = (displayWidth-targetW)/2, displayHeight-targetH
	case "left":
		x, y = 0, (displayHeight-targetH)/2
	case "right":
		x, y = displayWidth-targetW, (displayHeight-targetH)/2
	default: // center
		x, y = (displayWidth-targetW)/2, (displayHeight-targetH)/2
	}

	return CropRect{Width: targetW, Height: targetH, X: x, Y: y}, true
}

// fitAspect returns the largest even-dimensioned rectangle with the named
// aspect ratio that fits inside the source.
func fitAspect(origW, origH int, aspectRatio string) (int, int) {
	parts := strings.SplitN(aspectRatio, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	aw, err1 := strconv.Atoi(parts[0])
	ah, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || aw <= 0 || ah <= 0 {
		return 0, 0
	}

	targetAspect := float64(aw) / float64(ah)
	origAspect := float64(origW) / float64(origH)

	var newW, newH int
	if origAspect > targetAspect {
		newH = origH
		newW = int(float64(origH) * targetAspect)
	} else {
		newW = origW
		newH = int(float64(origW) / targetAspect)
	}
	return evenFloor(newW), evenFloor(newH)
}

func evenFloor(n int) int {
	return n - n%2
}
