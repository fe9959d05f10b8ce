package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"solana_wallet_dashboard/models"
)

// Approver decides whether a transfer may be signed.
type Approver interface {
	Approve(ctx context.Context, summary models.TransferSummary) (bool, error)
}

type ApproverFunc func(ctx context.Context, summary models.TransferSummary) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, summary models.TransferSummary) (bool, error) {
	return f(ctx, summary)
}

var (
	AutoApprove Approver = ApproverFunc(func(context.Context, models.TransferSummary) (bool, error) {
		return true, nil
	})
	DenyAll Approver = ApproverFunc(func(context.Context, models.TransferSummary) (bool, error) {
		return false, nil
	})
)

// PromptApprover asks on a terminal. One reader is kept across prompts so
// input typed ahead is not lost. A prompt abandoned through ctx leaves its
// read pending; the next prompt receives that line.
type PromptApprover struct {
	In  io.Reader
	Out io.Writer

	once    sync.Once
	answers chan string
}

func (p *PromptApprover) readLines() {
	r := bufio.NewReader(p.In)
	for {
		line, err := r.ReadString('\n')
		if line != "" || err == nil {
			p.answers <- strings.ToLower(strings.TrimSpace(line))
		}
		if err != nil {
			close(p.answers)
			return
		}
	}
}

func (p *PromptApprover) Approve(ctx context.Context, s models.TransferSummary) (bool, error) {
	p.once.Do(func() {
		p.answers = make(chan string, 1)
		go p.readLines()
	})
	fmt.Fprintf(p.Out, "Sign transfer of %s %s from %s to %s? [y/N]: ", s.Amount, s.Symbol, s.From, s.To)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-p.answers:
		if !ok {
			return false, nil
		}
		return a == "y" || a == "yes", nil
	}
}

var ErrNoPendingApproval = errors.New("no transfer is waiting for approval")

// ManualApprover parks a signature request until someone decides on it
// through Decide, like a wallet popup. Requests not decided within the
// timeout count as declined.
type ManualApprover struct {
	timeout time.Duration

	mu      sync.Mutex
	pending *pendingApproval
}

type pendingApproval struct {
	summary models.TransferSummary
	result  chan bool
}

func NewManualApprover(timeout time.Duration) *ManualApprover {
	return &ManualApprover{timeout: timeout}
}

func (m *ManualApprover) Approve(ctx context.Context, s models.TransferSummary) (bool, error) {
	p := &pendingApproval{summary: s, result: make(chan bool, 1)}

	m.mu.Lock()
	if m.pending != nil {
		m.mu.Unlock()
		return false, errors.New("another signature request is pending")
	}
	m.pending = p
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.pending == p {
			m.pending = nil
		}
		m.mu.Unlock()
	}()

	var expired <-chan time.Time
	if m.timeout > 0 {
		timer := time.NewTimer(m.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ok := <-p.result:
		return ok, nil
	case <-expired:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Pending returns the summary awaiting a decision, if any.
func (m *ManualApprover) Pending() (models.TransferSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return models.TransferSummary{}, false
	}
	return m.pending.summary, true
}

// Decide resolves the pending request.
func (m *ManualApprover) Decide(approve bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ErrNoPendingApproval
	}
	select {
	case m.pending.result <- approve:
	default:
	}
	return nil
}
