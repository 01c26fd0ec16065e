// SPDX-License-Identifier: MIT
package stats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse reads a two-column frequency/amplitude table. Lines that are not
// exactly two numbers (headers, the tool's summary block) are skipped.
func Parse(r io.Reader) (Sample, error) {
	var s Sample

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		freq, amp, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		s.Frequencies = append(s.Frequencies, freq)
		s.Amplitudes = append(s.Amplitudes, amp)
	}
	if err := scanner.Err(); err != nil {
		return Sample{}, fmt.Errorf("failed to read spectral data: %w", err)
	}
	if s.Len() == 0 {
		return Sample{}, errors.New("no frequency/amplitude pairs found")
	}

	return s, nil
}

// Load parses the table stored at path.
func Load(path string) (Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to open spectral data: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// parseLine reports whether line holds a frequency/amplitude pair.
func parseLine(line string) (freq, amp float64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, false
	}
	freq, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	amp, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return freq, amp, true
}

// WriteTable writes a sample in the same two-column format Parse reads.
func WriteTable(w io.Writer, s Sample) error {
	bw := bufio.NewWriter(w)
	for i := range s.Frequencies {
		if _, err := fmt.Fprintf(bw, "%f  %f\n", s.Frequencies[i], s.Amplitudes[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
