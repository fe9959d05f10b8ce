package wallet

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"solana_wallet_dashboard/models"
)

func newTransferTx(t *testing.T, from, to solana.PublicKey) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1000, from, to).Build()},
		solana.Hash{},
		solana.TransactionPayer(from),
	)
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func mustKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestKeypairSigner_SignTransaction(t *testing.T) {
	key := mustKey(t)
	dest := mustKey(t).PublicKey()

	tests := []struct {
		name     string
		approver Approver
		wantErr  error
		wantSig  bool
	}{
		{name: "approved", approver: AutoApprove, wantSig: true},
		{name: "declined", approver: DenyAll, wantErr: ErrUserRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := NewKeypairSigner(key, tt.approver)
			tx := newTransferTx(t, key.PublicKey(), dest)

			err := signer.SignTransaction(context.Background(), tx, models.TransferSummary{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SignTransaction() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("SignTransaction() unexpected error: %v", err)
			}

			signed := len(tx.Signatures) > 0 && !tx.Signatures[0].IsZero()
			if signed != tt.wantSig {
				t.Errorf("signed = %v, want %v", signed, tt.wantSig)
			}
		})
	}
}

func TestKeypairSigner_RejectsForeignFeePayer(t *testing.T) {
	key := mustKey(t)
	other := mustKey(t).PublicKey()
	signer := NewKeypairSigner(key, AutoApprove)

	tx := newTransferTx(t, other, key.PublicKey())
	if err := signer.SignTransaction(context.Background(), tx, models.TransferSummary{}); err == nil {
		t.Fatal("expected error for foreign fee payer")
	}
}

func TestParseSecret(t *testing.T) {
	key := mustKey(t)

	fromB58, err := ParseSecret(key.String())
	if err != nil {
		t.Fatal(err)
	}
	if !fromB58.PublicKey().Equals(key.PublicKey()) {
		t.Error("base58 secret produced a different key")
	}

	path := filepath.Join(t.TempDir(), "id.json")
	if err := SaveKeypairFile(path, key); err != nil {
		t.Fatal(err)
	}
	fromFile, err := LoadKeypairFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !fromFile.PublicKey().Equals(key.PublicKey()) {
		t.Error("keypair file round trip produced a different key")
	}

	for _, bad := range []string{"", "not base58 0OIl", base58.Encode([]byte{1, 2, 3}), "[1,2,3]"} {
		if _, err := ParseSecret(bad); !errors.Is(err, ErrInvalidSecret) {
			t.Errorf("ParseSecret(%q) error = %v, want ErrInvalidSecret", bad, err)
		}
	}
}

func TestParseAddress(t *testing.T) {
	key := mustKey(t)

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid", address: key.PublicKey().String()},
		{name: "system program", address: "11111111111111111111111111111111"},
		{name: "invalid characters", address: "not-a-valid-address", wantErr: true},
		{name: "too short", address: base58.Encode([]byte{1, 2, 3, 4}), wantErr: true},
		{name: "empty", address: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("error %v is not ErrInvalidAddress", err)
			}
		})
	}
}

func TestManualApprover(t *testing.T) {
	t.Run("decided", func(t *testing.T) {
		m := NewManualApprover(time.Minute)
		done := make(chan bool, 1)
		go func() {
			ok, _ := m.Approve(context.Background(), models.TransferSummary{AttemptID: "a1"})
			done <- ok
		}()

		deadline := time.After(time.Second)
		for {
			if s, ok := m.Pending(); ok {
				if s.AttemptID != "a1" {
					t.Fatalf("pending attempt = %q", s.AttemptID)
				}
				break
			}
			select {
			case <-deadline:
				t.Fatal("request never became pending")
			case <-time.After(5 * time.Millisecond):
			}
		}

		if err := m.Decide(false); err != nil {
			t.Fatal(err)
		}
		if <-done {
			t.Error("declined request was approved")
		}
		if _, ok := m.Pending(); ok {
			t.Error("request still pending after decision")
		}
	})

	t.Run("timeout declines", func(t *testing.T) {
		m := NewManualApprover(10 * time.Millisecond)
		ok, err := m.Approve(context.Background(), models.TransferSummary{})
		if err != nil || ok {
			t.Fatalf("Approve() = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("nothing pending", func(t *testing.T) {
		m := NewManualApprover(time.Second)
		if err := m.Decide(true); !errors.Is(err, ErrNoPendingApproval) {
			t.Fatalf("Decide() error = %v", err)
		}
	})
}

func TestPromptApprover(t *testing.T) {
	out := &bytes.Buffer{}
	p := &PromptApprover{In: strings.NewReader("y\n"), Out: out}
	ok, err := p.Approve(context.Background(), models.TransferSummary{Amount: "1", Symbol: "SOL"})
	if err != nil || !ok {
		t.Fatalf("Approve() = %v, %v", ok, err)
	}
	if !strings.Contains(out.String(), "1 SOL") {
		t.Errorf("prompt = %q", out.String())
	}
}

func TestPromptApprover_KeepsBufferedAnswers(t *testing.T) {
	p := &PromptApprover{In: strings.NewReader("y\nn\nyes\n"), Out: &bytes.Buffer{}}

	for i, want := range []bool{true, false, true, false} {
		ok, err := p.Approve(context.Background(), models.TransferSummary{})
		if err != nil {
			t.Fatalf("prompt %d: %v", i, err)
		}
		if ok != want {
			t.Errorf("prompt %d = %v, want %v", i, ok, want)
		}
	}
}

func TestPromptApprover_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := &PromptApprover{In: r, Out: &bytes.Buffer{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Approve(ctx, models.TransferSummary{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Approve() error = %v", err)
	}

	go w.Write([]byte("y\n"))
	ok, err := p.Approve(context.Background(), models.TransferSummary{})
	if err != nil || !ok {
		t.Fatalf("Approve() after cancel = %v, %v", ok, err)
	}
}
