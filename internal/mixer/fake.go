package mixer

import (
	"context"
	"sync"
)

// FakeServer is an in-memory Server.
type FakeServer struct {
	mu      sync.Mutex
	Inputs  []SinkInput
	Volumes map[uint32][]uint32
	ListErr error
	SetErr  error
	Closed  bool
}

// AddInput registers a sink input, e.g. when a fake synth starts.
func (f *FakeServer) AddInput(si SinkInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Inputs = append(f.Inputs, si)
}

// SinkInputs implements Server.
func (f *FakeServer) SinkInputs() ([]SinkInput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]SinkInput(nil), f.Inputs...), nil
}

// SetSinkInputVolume implements Server.
func (f *FakeServer) SetSinkInputVolume(index uint32, volumes []uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil {
		return f.SetErr
	}
	if f.Volumes == nil {
		f.Volumes = make(map[uint32][]uint32)
	}
	f.Volumes[index] = append([]uint32(nil), volumes...)
	return nil
}

// VolumeOf returns the last volumes set on index.
func (f *FakeServer) VolumeOf(index uint32) []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.Volumes[index]...)
}

// Close implements Server.
func (f *FakeServer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// FakeVolumeReader returns a fixed, settable volume.
type FakeVolumeReader struct {
	mu     sync.Mutex
	Volume Volume
	Err    error
	reads  int
}

// Set changes the reported volume.
func (f *FakeVolumeReader) Set(v Volume) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Volume = v
}

// Reads returns how often SystemVolume was called.
func (f *FakeVolumeReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// SystemVolume implements VolumeReader.
func (f *FakeVolumeReader) SystemVolume(context.Context) (Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.Volume, f.Err
}
