package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lessonpanel/internal/charts"
	"lessonpanel/internal/series"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestImage_DrawPiePNG(t *testing.T) {
	d := descriptor(t, charts.ProgressContract(),
		series.Point{Label: "Beginner", Count: 3},
		series.Point{Label: "Intermediate", Count: 0},
		series.Point{Label: "Advanced", Count: 2},
	)
	data, err := Image{Width: 320, Height: 240}.Draw(d)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestImage_DrawBarSVG(t *testing.T) {
	d := descriptor(t, charts.LessonContract(),
		series.Point{Label: "2024-05-01", Count: 1},
		series.Point{Label: "2024-05-02", Count: 4},
	)
	data, err := Image{Format: "SVG"}.Draw(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "2024-05-02")
}

func TestImage_DrawRejects(t *testing.T) {
	_, err := Image{}.Draw(descriptor(t, charts.LessonContract()))
	assert.Error(t, err, "empty series")

	zero := descriptor(t, charts.ProgressContract(), series.Point{Label: "Beginner", Count: 0})
	_, err = Image{}.Draw(zero)
	assert.Error(t, err, "pie with no non-zero slice")

	_, err = Image{}.Draw(charts.Descriptor{Kind: "line", Labels: []string{"a"}, Values: []int64{1}})
	assert.Error(t, err)
}

func TestImage_RenderMountsAndWrites(t *testing.T) {
	dir := t.TempDir()
	m := newMountRecorder()
	d := descriptor(t, charts.LessonContract(), series.Point{Label: "Mon", Count: 2})

	require.NoError(t, Image{Dir: dir, Mount: m}.Render(context.Background(), d))

	assert.Equal(t, "image/png", m.mimes[charts.LessonMountID])
	written, err := os.ReadFile(filepath.Join(dir, charts.LessonMountID+".png"))
	require.NoError(t, err)
	assert.Equal(t, m.mounted[charts.LessonMountID], written)
}

func TestIntegerTicks(t *testing.T) {
	for _, tc := range []struct {
		top       int64
		wantLast  float64
		wantCount int
	}{
		{top: 0, wantLast: 1, wantCount: 2},
		{top: 1, wantLast: 1, wantCount: 2},
		{top: 7, wantLast: 8, wantCount: 5},
		{top: 1_000_000, wantLast: 1_000_000, wantCount: 6},
	} {
		ticks := IntegerTicks(tc.top, 5)
		require.Len(t, ticks, tc.wantCount, "top=%d", tc.top)
		assert.Equal(t, float64(0), ticks[0].Value)
		assert.Equal(t, tc.wantLast, ticks[len(ticks)-1].Value)
		for _, tick := range ticks {
			assert.Equal(t, float64(int64(tick.Value)), tick.Value, "tick %v is fractional", tick.Value)
		}
	}
}

func TestParseRGBA(t *testing.T) {
	c, err := ParseRGBA(charts.ColorYellow)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{255, 206, 86}, [3]uint8{c.R, c.G, c.B})
	assert.InDelta(t, 178.5, float64(c.A), 1)

	c, err = ParseRGBA("rgb(1,2,3)")
	require.NoError(t, err)
	assert.Equal(t, drawing.Color{R: 1, G: 2, B: 3, A: 255}, c)

	for _, bad := range []string{"#fff", "rgba(1,2)", "rgba(300,0,0,1)", "rgba(1,2,3,2)"} {
		_, err := ParseRGBA(bad)
		assert.Error(t, err, bad)
	}
}
