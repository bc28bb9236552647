package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCropRect_SquareFromLandscape(t *testing.T) {
	rect, ok := ComputeCropRect(1920, 1080, CropSpec{AspectRatio: "1:1"})
	require.True(t, ok)
	assert.Equal(t, CropRect{Width: 1080, Height: 1080, X: 420, Y: 0}, rect)
}

func TestComputeCropRect_Positions(t *testing.T) {
	tests := []struct {
		name     string
		position string
		want     CropRect
	}{
		{"center", "center", CropRect{Width: 1080, Height: 1080, X: 420, Y: 0}},
		{"default_is_center", "", CropRect{Width: 1080, Height: 1080, X: 420, Y: 0}},
		{"left", "left", CropRect{Width: 1080, Height: 1080, X: 0, Y: 0}},
		{"right", "right", CropRect{Width: 1080, Height: 1080, X: 840, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rect, ok := ComputeCropRect(1920, 1080, CropSpec{AspectRatio: "1:1", Position: tt.position})
			require.True(t, ok)
			assert.Equal(t, tt.want, rect)
		})
	}
}

func TestComputeCropRect_VerticalFromLandscape(t *testing.T) {
	// 9:16 out of 1920x1080: height-bound, width = 1080 * 9/16 = 607 -> 606.
	rect, ok := ComputeCropRect(1920, 1080, CropSpec{AspectRatio: "9:16"})
	require.True(t, ok)
	assert.Equal(t, 606, rect.Width)
	assert.Equal(t, 1080, rect.Height)
	assert.Equal(t, 0, rect.Y)
}

func TestComputeCropRect_TopBottom(t *testing.T) {
	// 16:9 out of a portrait 1080x1920 source: width-bound, height 606.
	top, ok := ComputeCropRect(1080, 1920, CropSpec{AspectRatio: "16:9", Position: "top"})
	require.True(t, ok)
	assert.Equal(t, CropRect{Width: 1080, Height: 606, X: 0, Y: 0}, top)

	bottom, ok := ComputeCropRect(1080, 1920, CropSpec{AspectRatio: "16:9", Position: "bottom"})
	require.True(t, ok)
	assert.Equal(t, CropRect{Width: 1080, Height: 606, X: 0, Y: 1314}, bottom)
}

func TestComputeCropRect_NoOpWhenAspectMatches(t *testing.T) {
	// Source is already 16:9; cropping would change nothing.
	_, ok := ComputeCropRect(1920, 1080, CropSpec{AspectRatio: "16:9"})
	assert.False(t, ok)
}

func TestComputeCropRect_EmptySpec(t *testing.T) {
	_, ok := ComputeCropRect(1920, 1080, CropSpec{})
	assert.False(t, ok)
}

func TestComputeCropRect_Custom(t *testing.T) {
	rect, ok := ComputeCropRect(1920, 1080, CropSpec{
		AspectRatio:  "custom",
		CustomWidth:  801, // odd, floored to 800
		CustomHeight: 600,
		Position:     "top",
	})
	require.True(t, ok)
	assert.Equal(t, CropRect{Width: 800, Height: 600, X: 560, Y: 0}, rect)
}

func TestCropSpec_Validate(t *testing.T) {
	assert.NoError(t, CropSpec{}.Validate())
	assert.NoError(t, CropSpec{AspectRatio: "16:9", Position: "top"}.Validate())
	assert.NoError(t, CropSpec{AspectRatio: "custom", CustomWidth: 640, CustomHeight: 480}.Validate())

	assert.Error(t, CropSpec{AspectRatio: "3:2"}.Validate())
	assert.Error(t, CropSpec{AspectRatio: "16:9", Position: "middle"}.Validate())
	assert.Error(t, CropSpec{AspectRatio: "custom"}.Validate())
	assert.Error(t, CropSpec{Position: "sideways"}.Validate())
}

func TestCropRect_Filter(t *testing.T) {
	rect := CropRect{Width: 1080, Height: 1080, X: 420, Y: 0}
	assert.Equal(t, "crop=1080:1080:420:0", rect.Filter())
}
