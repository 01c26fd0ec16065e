package utils

import (
	"bytes"
	"fmt"
	"math"
	"sync"
)

// MockTransport implements the Transport interface for testing.
type MockTransport struct {
	mu       sync.Mutex
	messages []any
	Err      error
}

// Send records the message for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, data)
	return m.Err
}

// Close implements the Transport interface.
func (m *MockTransport) Close() error { return nil }

// Messages returns a copy of everything sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.messages...)
}

func GenerateComplexWave(size int, sampleRate float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = int32(signal * math.MaxInt32 * 0.9)
	}
	return buffer
}

func GenerateSineWave(size int, sampleRate, frequency float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * 0.9)
	}
	return buffer
}

// GenerateSilence returns size zero samples.
func GenerateSilence(size int) []int32 {
	return make([]int32, size)
}

// StatFreqOutput renders a frequency/amplitude table the way `sox stat -freq`
// prints it on stderr, followed by the usual statistics summary.
func StatFreqOutput(frequencies, amplitudes []float64) []byte {
	var b bytes.Buffer
	for i := range frequencies {
		fmt.Fprintf(&b, "%f  %f\n", frequencies[i], amplitudes[i])
	}
	b.WriteString(statSummary)
	return b.Bytes()
}

const statSummary = `Samples read:            882000
Length (seconds):     10.000000
Scaled by:         2147483647.0
Maximum amplitude:     0.035675
Minimum amplitude:    -0.033936
Midline amplitude:     0.000870
Mean    norm:          0.003418
Mean    amplitude:     0.000011
RMS     amplitude:     0.004498
Maximum delta:         0.013428
Minimum delta:         0.000000
Mean    delta:         0.000872
RMS     delta:         0.001168
Rough   frequency:          1818
Volume adjustment:       28.031
`
