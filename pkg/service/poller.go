package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 10 * time.Second

// Poller refreshes the balance reader on an interval while the dashboard is visible.
type Poller struct {
	reader   *BalanceReader
	interval time.Duration
	visible  atomic.Bool
	wake     chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(reader *BalanceReader, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		reader:   reader,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
	p.visible.Store(true)
	return p
}

// Start refreshes address right away and then on every tick. A running loop
// for another address is stopped first.
func (p *Poller) Start(address solana.PublicKey) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, address, p.done)

	logrus.WithFields(logrus.Fields{
		"address":  address.String(),
		"interval": p.interval.String(),
	}).Info("balance polling started")
}

func (p *Poller) loop(ctx context.Context, address solana.PublicKey, done chan struct{}) {
	defer close(done)

	p.reader.Refresh(ctx, &address)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.visible.Load() {
				continue
			}
		case <-p.wake:
		}
		if ctx.Err() != nil {
			return
		}
		p.reader.Refresh(ctx, &address)
	}
}

// Stop cancels the in-flight fetch and returns once the loop has exited.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logrus.Info("balance polling stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// SetVisible pauses ticks while hidden; becoming visible refreshes at once.
func (p *Poller) SetVisible(visible bool) {
	was := p.visible.Swap(visible)
	if visible && !was {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

func (p *Poller) Visible() bool {
	return p.visible.Load()
}
