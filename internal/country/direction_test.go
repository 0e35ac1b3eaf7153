package country

import (
	"os"
	"path/filepath"
	"testing"

	"road-api/internal/track"

	"github.com/stretchr/testify/assert"
)

func TestLoadDirections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "direction_mapping.json")
	cfg := `{"direction_mapping":{"东侧":"right_track","西侧":"left_track","斜侧":"middle_track"}}`
	assert.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	dirs := LoadDirections(path)
	assert.Equal(t, track.SideRight, dirs["东侧"])
	assert.Equal(t, track.SideLeft, dirs["西侧"])
	// 未知取值的条目跳过
	_, ok := dirs["斜侧"]
	assert.False(t, ok)
}

func TestLoadDirectionsFallback(t *testing.T) {
	dirs := LoadDirections(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, DefaultDirections(), dirs)

	path := filepath.Join(t.TempDir(), "broken.json")
	assert.NoError(t, os.WriteFile(path, []byte("{bad"), 0o644))
	assert.Equal(t, DefaultDirections(), LoadDirections(path))
}

func TestDefaultDirectionsComplete(t *testing.T) {
	dirs := DefaultDirections()
	for _, label := range []string{"东侧", "西侧", "南侧", "北侧", "内圈", "外圈", "上行", "下行"} {
		_, ok := dirs[label]
		assert.True(t, ok, label)
	}
}
