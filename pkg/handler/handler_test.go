package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gin-gonic/gin"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/metrics"
	"solana_wallet_dashboard/pkg/middleware"
	"solana_wallet_dashboard/pkg/repository"
	"solana_wallet_dashboard/pkg/service"
	"solana_wallet_dashboard/pkg/solclient"
)

type stubLedger struct {
	lamports uint64
}

func (s *stubLedger) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return s.lamports, nil
}

func (s *stubLedger) ListTokenHoldings(context.Context, solana.PublicKey) ([]models.TokenHolding, error) {
	return nil, nil
}

func (s *stubLedger) LatestReference(context.Context) (models.ReferencePoint, error) {
	return models.ReferencePoint{Blockhash: solana.Hash{7}}, nil
}

func (s *stubLedger) Send(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return tx.Signatures[0], nil
}

func (s *stubLedger) AwaitConfirmation(context.Context, solana.Signature, models.ReferencePoint, rpc.CommitmentType) error {
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := &repository.Repository{
		Ledger:        &stubLedger{lamports: 2500000000},
		TokenAccounts: solclient.New(solclient.Config{Endpoint: "http://127.0.0.1:0"}),
		Endpoint:      rpc.DevNet_RPC,
	}
	svc := service.NewService(repos, service.Config{PollInterval: time.Hour}, metrics.New())
	t.Cleanup(svc.Close)
	return NewHandler(svc, []string{"http://localhost:3000"}), svc
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]json.RawMessage
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: bad json %q", method, path, w.Body.String())
		}
	}
	return w, out
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.InitRoute()

	if w, _ := do(t, router, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	w, _ := do(t, router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dashboard_") {
		t.Errorf("metrics = %d", w.Code)
	}
}

func TestWalletFlow(t *testing.T) {
	h, svc := newTestHandler(t)
	router := h.InitRoute()

	if w, _ := do(t, router, http.MethodGet, "/api/wallet/holdings", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("holdings before connect = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodPost, "/api/wallet/connect", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("connect without keypair = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodPost, "/api/wallet/connect", `{"address":"nope"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("connect with bad address = %d", w.Code)
	}

	addr := solana.NewWallet().PublicKey().String()
	w, out := do(t, router, http.MethodPost, "/api/wallet/connect", `{"address":"`+addr+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("connect = %d %s", w.Code, w.Body.String())
	}
	var conn models.Connection
	if err := json.Unmarshal(out["data"], &conn); err != nil || !conn.Connected || conn.Address != addr || conn.CanSign {
		t.Fatalf("connection = %+v, %v", conn, err)
	}

	w, out = do(t, router, http.MethodPost, "/api/wallet/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d", w.Code)
	}
	var state struct {
		Holdings []struct {
			Symbol string `json:"symbol"`
			Amount string `json:"amount"`
			Raw    string `json:"raw_amount"`
		} `json:"holdings"`
	}
	if err := json.Unmarshal(out["data"], &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Holdings) != 1 || state.Holdings[0].Symbol != "SOL" || state.Holdings[0].Amount != "2.5" || state.Holdings[0].Raw != "2500000000" {
		t.Errorf("holdings = %+v", state.Holdings)
	}

	if w, _ := do(t, router, http.MethodPost, "/api/wallet/visibility", `{"visible":false}`); w.Code != http.StatusOK || svc.Poller.Visible() {
		t.Errorf("visibility = %d, visible %v", w.Code, svc.Poller.Visible())
	}
	if w, _ := do(t, router, http.MethodPost, "/api/wallet/visibility", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("visibility without flag = %d", w.Code)
	}

	if w, _ := do(t, router, http.MethodPost, "/api/wallet/disconnect", ""); w.Code != http.StatusOK {
		t.Fatalf("disconnect = %d", w.Code)
	}
	if svc.Poller.Running() || len(svc.Balance.State().Holdings) != 0 {
		t.Error("disconnect left polling or holdings behind")
	}
}

func TestTransferEndpoints(t *testing.T) {
	h, svc := newTestHandler(t)
	key, err := wallet.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	svc.Keypair = wallet.NewKeypairSigner(key, nil)
	router := h.InitRoute()

	if w, _ := do(t, router, http.MethodPost, "/api/transfer", `{"to":"x","amount":"1"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("transfer before connect = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodPost, "/api/wallet/connect", ""); w.Code != http.StatusOK {
		t.Fatalf("connect = %d", w.Code)
	}
	addr, _ := svc.Session.Address()
	svc.Balance.Refresh(context.Background(), &addr)

	status := func() models.TransferStatus {
		_, out := do(t, router, http.MethodGet, "/api/transfer", "")
		var st models.TransferStatus
		if err := json.Unmarshal(out["data"], &st); err != nil {
			t.Fatal(err)
		}
		return st
	}
	waitStage := func(stages ...models.TransferStage) models.TransferStatus {
		deadline := time.Now().Add(2 * time.Second)
		for {
			st := status()
			for _, s := range stages {
				if st.Stage == s {
					return st
				}
			}
			if time.Now().After(deadline) {
				t.Fatalf("stage %s, want one of %v", st.Stage, stages)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	w, _ := do(t, router, http.MethodPost, "/api/transfer", `{"asset":"SOL","to":"not-a-valid-address","amount":"0.1"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit = %d %s", w.Code, w.Body.String())
	}
	st := waitStage(models.StageError)
	if st.ErrorKind != models.ErrKindValidation || st.Visited(models.StageSigning) {
		t.Errorf("invalid destination status = %+v", st)
	}

	dest := solana.NewWallet().PublicKey().String()
	if w, _ := do(t, router, http.MethodPost, "/api/transfer", `{"asset":"SOL","to":"`+dest+`","amount":"0.1"}`); w.Code != http.StatusAccepted {
		t.Fatalf("submit = %d", w.Code)
	}
	st = waitStage(models.StageConfirmed, models.StageError)
	if st.Stage != models.StageConfirmed || st.Signature == "" || st.ExplorerURL == "" {
		t.Errorf("native transfer status = %+v", st)
	}

	if w, _ := do(t, router, http.MethodPost, "/api/transfer/reset", ""); w.Code != http.StatusOK {
		t.Errorf("reset = %d", w.Code)
	}
	if st := status(); st.Stage != models.StageIdle {
		t.Errorf("stage after reset = %s", st.Stage)
	}

	if w, _ := do(t, router, http.MethodPost, "/api/transfer/approve", ""); w.Code != http.StatusNotFound {
		t.Errorf("approve without manual mode = %d", w.Code)
	}
	svc.Approvals = wallet.NewManualApprover(time.Second)
	if w, _ := do(t, router, http.MethodPost, "/api/transfer/decline", ""); w.Code != http.StatusConflict {
		t.Errorf("decline with nothing pending = %d", w.Code)
	}
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.InitRoute()

	req := httptest.NewRequest(http.MethodPost, "/api/wallet/connect", strings.NewReader(`{"address":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body Error
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RequestID != "req-42" || w.Header().Get(middleware.RequestIDHeader) != "req-42" {
		t.Errorf("request id = %q, header %q", body.RequestID, w.Header().Get(middleware.RequestIDHeader))
	}
	if body.Message == "" {
		t.Error("empty error message")
	}

	w, _ = do(t, router, http.MethodPost, "/api/wallet/connect", "")
	var generated Error
	if err := json.Unmarshal(w.Body.Bytes(), &generated); err != nil {
		t.Fatal(err)
	}
	if generated.RequestID == "" || generated.RequestID != w.Header().Get(middleware.RequestIDHeader) {
		t.Errorf("generated request id = %q, header %q", generated.RequestID, w.Header().Get(middleware.RequestIDHeader))
	}
}
