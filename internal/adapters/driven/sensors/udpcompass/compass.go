// Package udpcompass receives heading readings over UDP.
//
// A phone or IMU bridge sends one datagram per reading. Accepted payloads:
//
//	<heading>
//	<timestamp>,<heading>
//	<timestamp>,<heading>,<steps>
//
// Headings are in degrees and are normalised to [0, 360). The optional
// steps field is a cumulative pedometer count; when present the compass
// also serves as the step counter.
package udpcompass

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/logger"
)

// Ensure Compass implements the interfaces.
var (
	_ driven.Compass     = (*Compass)(nil)
	_ driven.StepCounter = (*Compass)(nil)
)

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:5600"

// readTimeout bounds each read so cancellation is noticed promptly.
const readTimeout = 100 * time.Millisecond

// Compass listens for heading datagrams.
type Compass struct {
	addr string

	mu        sync.Mutex
	conn      *net.UDPConn
	steps     int
	baseSteps int
	haveSteps bool
	received  int
	dropped   int
}

// New creates a compass that will listen on addr.
func New(addr string) *Compass {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Compass{addr: addr}
}

// Headings starts listening and streams readings until ctx is done.
// Only one stream may be open at a time.
func (c *Compass) Headings(ctx context.Context) (<-chan float64, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", domain.ErrSensorUnavailable, c.addr, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: compass already streaming", domain.ErrSessionActive)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: listen on %s: %w", domain.ErrSensorUnavailable, c.addr, err)
	}
	c.conn = conn
	c.mu.Unlock()

	logger.Info("udpcompass: listening on %s", conn.LocalAddr())

	out := make(chan float64, 16)
	go c.read(ctx, conn, out)
	return out, nil
}

func (c *Compass) read(ctx context.Context, conn *net.UDPConn, out chan float64) {
	defer func() {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		close(out)
	}()

	buffer := make([]byte, 512)
	for {
		if ctx.Err() != nil {
			return
		}
		// Set read deadline to allow checking context cancellation
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		n, from, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("udpcompass: read error: %v", err)
			continue
		}

		heading, steps, hasSteps, err := ParsePayload(string(buffer[:n]))
		if err != nil {
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
			logger.Debug("udpcompass: bad datagram from %v: %v", from, err)
			continue
		}

		c.mu.Lock()
		c.received++
		if hasSteps {
			if !c.haveSteps {
				c.baseSteps = steps
				c.haveSteps = true
			}
			c.steps = steps
		}
		c.mu.Unlock()

		c.offer(out, heading)
	}
}

// offer queues heading without blocking. When out is full the oldest
// queued reading is dropped, so a slow consumer still sees the newest.
func (c *Compass) offer(out chan float64, heading float64) {
	for {
		select {
		case out <- heading:
			return
		default:
		}
		select {
		case <-out:
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		default:
		}
	}
}

// ParsePayload decodes one datagram.
func ParsePayload(payload string) (heading float64, steps int, hasSteps bool, err error) {
	fields := strings.Split(strings.TrimSpace(payload), ",")
	var headingField string
	switch len(fields) {
	case 1:
		headingField = fields[0]
	case 2, 3:
		headingField = fields[1]
	default:
		return 0, 0, false, fmt.Errorf("%w: expected 1 to 3 fields, got %d", domain.ErrInvalidInput, len(fields))
	}

	heading, err = strconv.ParseFloat(strings.TrimSpace(headingField), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: heading: %v", domain.ErrInvalidInput, err)
	}
	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		return 0, 0, false, fmt.Errorf("%w: heading is not finite", domain.ErrInvalidInput)
	}

	if len(fields) == 3 {
		steps, err = strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || steps < 0 {
			return 0, 0, false, fmt.Errorf("%w: steps: %q", domain.ErrInvalidInput, fields[2])
		}
		hasSteps = true
	}
	return domain.Normalize(heading), steps, hasSteps, nil
}

// Steps returns steps counted since the first reading that carried a
// pedometer value.
func (c *Compass) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return max(c.steps-c.baseSteps, 0)
}

// Stats returns how many datagrams were accepted and dropped.
func (c *Compass) Stats() (received, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received, c.dropped
}

// LocalAddr returns the bound address while streaming, nil otherwise.
func (c *Compass) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}
