package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// ----- Table Layout ----- //

// TableLayout describes the bands of a table set: one table of Size samples per
// octave, starting at the lowest frequency that falls on a bin.
type TableLayout struct {
	Size        int
	SampleRate  float64
	Bin         float64
	Lowest      float64
	Frequencies []float64
	rates       []float64
}

// NewTableLayout ...
func NewTableLayout(q int, sampleRate float64, favoredLowest float64) (*TableLayout, error) {
	if q < 2 || q > 24 {
		return nil, fmt.Errorf("table exponent %d: %w", q, ErrNotPowerOfTwo)
	}
	if sampleRate <= 0 || favoredLowest <= 0 {
		return nil, fmt.Errorf("invalid table layout: sampleRate=%v lowest=%v", sampleRate, favoredLowest)
	}
	size := 1 << uint(q)
	bin := sampleRate / float64(size)
	lowest := math.Ceil(favoredLowest/bin) * bin
	nyquist := sampleRate * 0.5
	if lowest >= nyquist {
		return nil, fmt.Errorf("lowest frequency %v is above nyquist", lowest)
	}
	count := 1 + int(math.Floor(math.Log2(nyquist/lowest)))
	l := &TableLayout{
		Size:        size,
		SampleRate:  sampleRate,
		Bin:         bin,
		Lowest:      lowest,
		Frequencies: make([]float64, count),
		rates:       make([]float64, count),
	}
	for i := 0; i < count; i++ {
		l.Frequencies[i] = lowest * math.Pow(2, float64(i))
		l.rates[i] = sampleRate / l.Frequencies[i]
	}
	return l, nil
}

// Count ...
func (l *TableLayout) Count() int {
	return len(l.Frequencies)
}

// Index returns the fractional band index for a playback frequency.
func (l *TableLayout) Index(frequency float64) float64 {
	return math.Max(0, math.Log2(frequency/l.Lowest)+1)
}

// Rate is the number of table samples per cycle of band i.
func (l *TableLayout) Rate(i int) float64 {
	return l.rates[i]
}

// LoopCycles is a number of cycles after which every band reads from its start
// again.
func (l *TableLayout) LoopCycles() float64 {
	return math.Round(l.Lowest/l.Bin) * math.Pow(2, float64(l.Count()-1))
}

// ----- Table Set ----- //

// TableSet is an immutable set of tables, one per band.
type TableSet struct {
	Tables [][]float32
}

// Fits reports whether the set can be played with the layout.
func (s *TableSet) Fits(l *TableLayout) bool {
	if s == nil || len(s.Tables) != l.Count() {
		return false
	}
	for _, t := range s.Tables {
		if len(t) != l.Size {
			return false
		}
	}
	return true
}

// IO
//   all = { number_of_tables int32, tables []table }
//   table = { number_of_samples int32, samples []float32 }

// Save ...
func (s *TableSet) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.BigEndian, int32(len(s.Tables))); err != nil {
		return err
	}
	for _, table := range s.Tables {
		if err := binary.Write(w, binary.BigEndian, int32(len(table))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, table); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

const maxTableSamples = 1 << 24

// LoadTableSet ...
func LoadTableSet(path string) (*TableSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	r := bufio.NewReader(file)
	var numTables int32
	if err := binary.Read(r, binary.BigEndian, &numTables); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if numTables < 0 || numTables > 64 {
		return nil, fmt.Errorf("number of tables exceeded: %d", numTables)
	}
	s := &TableSet{Tables: make([][]float32, numTables)}
	for i := range s.Tables {
		var numSamples int32
		if err := binary.Read(r, binary.BigEndian, &numSamples); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if numSamples < 0 || numSamples > maxTableSamples {
			return nil, fmt.Errorf("number of samples exceeded: %d", numSamples)
		}
		s.Tables[i] = make([]float32, numSamples)
		if err := binary.Read(r, binary.BigEndian, s.Tables[i]); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return s, nil
}
