package frame

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gransim/sceneexport/internal/config"
)

// writeFrame writes a frame CSV into a temp dir and returns its path.
func writeFrame(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func defaultCSV() config.CSVSettings {
	return config.Default().CSV
}

func TestParseKeepsCoordinatesVerbatim(t *testing.T) {
	path := writeFrame(t, "T0001.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"-1.2500000e+05,0.000,42,1,0,0,1,3\n"+
			"7.5,-8.25,9.000001,0,2,0,2,0\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)

	require.Equal(t, 2, f.BodyCount())
	assert.Equal(t, "-1.2500000e+05", f.Bodies[0].X)
	assert.Equal(t, "0.000", f.Bodies[0].Y)
	assert.Equal(t, "42", f.Bodies[0].Z)
	assert.Equal(t, "7.5", f.Bodies[1].X)
	assert.Equal(t, "-8.25", f.Bodies[1].Y)
	assert.Equal(t, "9.000001", f.Bodies[1].Z)
}

func TestParseSkipsHeaderRow(t *testing.T) {
	path := writeFrame(t, "T0002.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3,0,0,0,0,0\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)

	assert.Equal(t, 1, f.BodyCount())
	assert.Equal(t, []string{"x", "y", "z", "vx", "vy", "vz", "absv", "nTouched"}, f.Header)
}

func TestParseSpeedFromAbsV(t *testing.T) {
	path := writeFrame(t, "T0003.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3,3,4,0,5,0\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)

	require.Equal(t, 1, f.BodyCount())
	assert.True(t, f.Bodies[0].HasSpeed)
	assert.InDelta(t, 5.0, f.Bodies[0].Speed, 1e-12)
}

func TestParseSpeedFallsBackToVelocity(t *testing.T) {
	// Row without the absv column: speed comes from |v|.
	path := writeFrame(t, "T0004.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3,3,4,0\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)

	require.Equal(t, 1, f.BodyCount())
	assert.True(t, f.Bodies[0].HasSpeed)
	assert.InDelta(t, 5.0, f.Bodies[0].Speed, 1e-12)
}

func TestParsePositionOnlyRowHasNoSpeed(t *testing.T) {
	path := writeFrame(t, "T0005.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)

	require.Equal(t, 1, f.BodyCount())
	assert.False(t, f.Bodies[0].HasSpeed)
}

func TestParseShortRowIsError(t *testing.T) {
	path := writeFrame(t, "T0006.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2\n")

	_, err := Parse(path, defaultCSV())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "need at least 3")
}

func TestParseSkipsEmptyRows(t *testing.T) {
	path := writeFrame(t, "T0007.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3,0,0,0,0,0\n"+
			"\n"+
			"4,5,6,0,0,0,0,0\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)
	assert.Equal(t, 2, f.BodyCount())
}

func TestParseHeaderOnlyFileIsEmptyFrame(t *testing.T) {
	path := writeFrame(t, "T0008.csv", "x,y,z,vx,vy,vz,absv,nTouched\n")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)
	assert.Equal(t, 0, f.BodyCount())
}

func TestParseEmptyFileIsEmptyFrame(t *testing.T) {
	path := writeFrame(t, "T0009.csv", "")

	f, err := Parse(path, defaultCSV())
	require.NoError(t, err)
	assert.Equal(t, 0, f.BodyCount())
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.csv"), defaultCSV())
	require.Error(t, err)
}

func TestParseCustomDelimiter(t *testing.T) {
	path := writeFrame(t, "T0010.csv",
		"x;y;z;vx;vy;vz;absv;nTouched\n"+
			"1.5;2.5;3.5;0;0;0;0;0\n")

	settings := defaultCSV()
	settings.Delimiter = ";"

	f, err := Parse(path, settings)
	require.NoError(t, err)
	require.Equal(t, 1, f.BodyCount())
	assert.Equal(t, "2.5", f.Bodies[0].Y)
}

func TestStreamingParser(t *testing.T) {
	path := writeFrame(t, "T0011.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3,0,0,0,0,0\n"+
			"4,5,6,0,0,0,0,0\n"+
			"7,8,9,0,0,0,0,0\n")

	p, err := NewStreamingParser(path, defaultCSV())
	require.NoError(t, err)
	defer p.Close()

	var xs []string
	for p.Next() {
		xs = append(xs, p.Body().X)
	}
	require.NoError(t, p.Err())
	assert.Equal(t, []string{"1", "4", "7"}, xs)
	assert.Equal(t, 4, p.RowNumber())
}

func TestStreamingParserReportsRowNumbers(t *testing.T) {
	path := writeFrame(t, "T0012.csv",
		"x,y,z,vx,vy,vz,absv,nTouched\n"+
			"1,2,3,0,0,0,0,0\n"+
			"bad\n")

	p, err := NewStreamingParser(path, defaultCSV())
	require.NoError(t, err)
	defer p.Close()

	require.True(t, p.Next())
	require.False(t, p.Next())
	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "row 3")
}
