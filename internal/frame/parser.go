// =============================================================================
// Frame to Scene Exporter - Frame Parser Module
// =============================================================================
//
// This module is responsible for parsing frame CSV files produced by the
// granular simulation. Each file holds one timestep: a header row followed
// by one row per simulated body with the fields
//
//   x,y,z,vx,vy,vz,absv,nTouched
//
// Only the first three fields end up in the scene, and they are kept
// VERBATIM as text: the scene writer copies them into translate attributes
// without reformatting, so a coordinate printed by the simulation as
// "-1.2500000e+05" stays exactly that. The velocity magnitude is parsed
// numerically when present, it feeds the optional speed-tinted material.
//
// =============================================================================

package frame

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gransim/sceneexport/internal/config"
)

// Column indices of the historical frame layout.
const (
	colX = iota
	colY
	colZ
	colVX
	colVY
	colVZ
	colAbsV
)

// =============================================================================
// FRAME DATA STRUCTURES
// =============================================================================

// Body is one simulated body within a frame.
type Body struct {
	// X, Y, Z are the position fields exactly as they appear in the CSV.
	// They are never reparsed or reformatted on the way to the scene file.
	X, Y, Z string

	// Speed is the body's velocity magnitude, taken from the absv column
	// or recomputed from vx,vy,vz when absv is absent or malformed.
	// Only meaningful when HasSpeed is true.
	Speed float64

	// HasSpeed reports whether a usable speed was found for this body.
	HasSpeed bool

	// Row is the 1-indexed row number in the source file, for error
	// reporting.
	Row int
}

// Frame represents one parsed frame CSV file.
type Frame struct {
	// Bodies contains the parsed body rows in file order.
	Bodies []Body

	// SourceFile is the path to the source CSV file.
	SourceFile string

	// Header contains the header fields of the first header row, if any.
	Header []string
}

// BodyCount returns the number of bodies in the frame.
func (f *Frame) BodyCount() int {
	return len(f.Bodies)
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a frame CSV file and returns the parsed frame.
//
// PARAMETERS:
//   - filePath: The path to the frame CSV file.
//   - settings: The CSV parsing settings.
//
// RETURNS:
//   - A pointer to the Frame containing the parsed bodies.
//   - An error if the file cannot be read, or a data row has fewer than
//     three fields.
//
// PARSING PROCESS:
//  1. Open the file and configure the CSV reader
//  2. Skip the configured number of header rows (keeping the first for
//     reference)
//  3. Read data rows, keeping x,y,z verbatim and parsing the speed
//  4. Skip rows that are entirely empty
func Parse(filePath string, settings config.CSVSettings) (*Frame, error) {
	p, err := NewStreamingParser(filePath, settings)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	f := &Frame{
		SourceFile: filePath,
		Header:     p.Header(),
	}

	for p.Next() {
		f.Bodies = append(f.Bodies, p.Body())
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	return f, nil
}

// configureReader configures the CSV reader based on the settings.
// TrimLeadingSpace stays off: position fields must survive untouched.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	if len(settings.Delimiter) > 0 {
		reader.Comma = rune(settings.Delimiter[0])
	} else {
		reader.Comma = ','
	}

	// Frame files occasionally carry ragged rows (a trailing diagnostic
	// column on some timesteps); length is checked per row instead.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// bodyFromRow converts a CSV row to a Body.
//
// RETURNS:
//   - The Body with verbatim coordinates and, when available, the speed.
//   - An error if the row has fewer than three fields.
func bodyFromRow(row []string, rowNumber int, sourceFile string) (Body, error) {
	if len(row) < 3 {
		return Body{}, fmt.Errorf("%s: row %d has %d field(s), need at least 3 (x,y,z)",
			sourceFile, rowNumber, len(row))
	}

	b := Body{
		X:   row[colX],
		Y:   row[colY],
		Z:   row[colZ],
		Row: rowNumber,
	}

	// Prefer the precomputed absv column; fall back to |v| from the
	// velocity components. Either may be missing on truncated rows.
	if len(row) > colAbsV {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[colAbsV]), 64); err == nil {
			b.Speed = v
			b.HasSpeed = true
			return b, nil
		}
	}
	if len(row) > colVZ {
		vx, errX := strconv.ParseFloat(strings.TrimSpace(row[colVX]), 64)
		vy, errY := strconv.ParseFloat(strings.TrimSpace(row[colVY]), 64)
		vz, errZ := strconv.ParseFloat(strings.TrimSpace(row[colVZ]), 64)
		if errX == nil && errY == nil && errZ == nil {
			b.Speed = math.Sqrt(vx*vx + vy*vy + vz*vz)
			b.HasSpeed = true
		}
	}

	return b, nil
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads a frame CSV one body at a time. A frame from a
// large packing can hold millions of bodies; streaming keeps the validate
// path and row counting from buffering whole files.
//
// USAGE:
//   parser, err := NewStreamingParser(filePath, settings)
//   if err != nil {
//       return err
//   }
//   defer parser.Close()
//
//   for parser.Next() {
//       body := parser.Body()
//       // Process the body...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
type StreamingParser struct {
	file      *os.File
	reader    *csv.Reader
	header    []string
	current   Body
	rowNumber int
	err       error
	settings  config.CSVSettings
}

// NewStreamingParser opens a frame CSV and consumes its header rows.
func NewStreamingParser(filePath string, settings config.CSVSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame file: %w", err)
	}

	reader := csv.NewReader(bufio.NewReader(file))
	configureReader(reader, settings)

	p := &StreamingParser{
		file:     file,
		reader:   reader,
		settings: settings,
	}

	if err := p.skipHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return p, nil
}

// skipHeader consumes the configured header rows, keeping the first.
// A file with nothing but headers is a valid empty frame.
func (p *StreamingParser) skipHeader() error {
	for i := 0; i < p.settings.HeaderRows; i++ {
		row, err := p.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: error reading header row %d: %w", p.file.Name(), i+1, err)
		}
		if i == 0 {
			p.header = row
		}
		p.rowNumber++
	}
	return nil
}

// Next advances to the next body. Returns false when there are no more
// rows or an error occurred; check Err after the loop.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	for {
		row, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("%s: error reading row %d: %w", p.file.Name(), p.rowNumber+1, err)
			return false
		}

		p.rowNumber++

		if isRowEmpty(row) {
			continue
		}

		body, err := bodyFromRow(row, p.rowNumber, p.file.Name())
		if err != nil {
			p.err = err
			return false
		}

		p.current = body
		return true
	}
}

// Body returns the current body.
func (p *StreamingParser) Body() Body {
	return p.current
}

// Header returns the header fields of the first header row.
func (p *StreamingParser) Header() []string {
	return p.header
}

// RowNumber returns the current row number (1-indexed).
func (p *StreamingParser) RowNumber() int {
	return p.rowNumber
}

// Err returns any error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file.
func (p *StreamingParser) Close() error {
	return p.file.Close()
}
