// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"noisemask/internal/transport"
)

// HeaderSize is the fixed part of every packet.
const HeaderSize = 4 + 8 + 2

/*
Packet layout (BigEndian):

	|<-- 4 Bytes -->|<---- 8 Bytes ---->|<-- 2 Bytes -->|<---- N Bytes ---->|
	+---------------+-------------------+---------------+-------------------+
	|   Sequence    |     Timestamp     |    Length     |   JSON payload    |
	|   (uint32)    |  (int64, ns UTC)  |   (uint16)    |                   |
	+---------------+-------------------+---------------+-------------------+
*/

// Publisher is a transport.Transport that sends every status update as one
// datagram. Sequence numbers let a listener spot dropped packets.
type Publisher struct {
	sender *Sender

	mu          sync.Mutex
	sequenceNum uint32
	buf         bytes.Buffer // Reused between packets
	now         func() time.Time
}

// NewPublisher sends status packets to targetAddress.
func NewPublisher(targetAddress string) (*Publisher, error) {
	s, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Publisher{sender: s, now: time.Now}, nil
}

// Send implements transport.Transport.
func (p *Publisher) Send(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("udp: failed to encode status: %w", err)
	}
	if len(payload) > math.MaxUint16 {
		return fmt.Errorf("udp: status too large (%d bytes)", len(payload))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sequenceNum++
	p.buf.Reset()
	binary.Write(&p.buf, binary.BigEndian, p.sequenceNum)
	binary.Write(&p.buf, binary.BigEndian, p.now().UnixNano())
	binary.Write(&p.buf, binary.BigEndian, uint16(len(payload)))
	p.buf.Write(payload)

	return p.sender.Send(p.buf.Bytes())
}

// Close implements transport.Transport.
func (p *Publisher) Close() error {
	return p.sender.Close()
}

// Packet is a decoded status datagram.
type Packet struct {
	Sequence  uint32
	Timestamp time.Time
	Payload   []byte
}

// Decode parses a datagram written by Publisher.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("udp: short packet (%d bytes)", len(b))
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	if len(b)-HeaderSize != n {
		return Packet{}, fmt.Errorf("udp: payload length %d does not match header %d", len(b)-HeaderSize, n)
	}
	return Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:4]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(b[4:12]))),
		Payload:   b[HeaderSize:],
	}, nil
}

var _ transport.Transport = (*Publisher)(nil)
