package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"solana_wallet_dashboard/models"
)

func (h *Handler) GetWallet(c *gin.Context) {
	wrapOkJSON(c, map[string]interface{}{
		"data": models.WalletResponse{
			Connection: h.service.Session.Connection(),
			Endpoint:   h.service.Endpoint,
			Cluster:    clusterName(h.service.Endpoint),
		},
	})
}

// Connect connects the configured keypair, or the address in the body as watch-only.
func (h *Handler) Connect(c *gin.Context) {
	var input models.ConnectInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var conn models.Connection
	switch {
	case input.Address != "":
		var err error
		conn, err = h.service.Session.ConnectWatchOnly(input.Address)
		if err != nil {
			newErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	case h.service.Keypair != nil:
		conn = h.service.Session.Connect(h.service.Keypair)
	default:
		newErrorResponse(c, http.StatusBadRequest, "no keypair configured, pass an address to watch")
		return
	}

	wrapOkJSON(c, map[string]interface{}{
		"data": conn,
	})
}

func (h *Handler) Disconnect(c *gin.Context) {
	h.service.Session.Disconnect()
	wrapOkJSON(c, map[string]interface{}{
		"data": h.service.Session.Connection(),
	})
}

func (h *Handler) SetVisibility(c *gin.Context) {
	var input models.VisibilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	h.service.Poller.SetVisible(*input.Visible)
	wrapOkJSON(c, map[string]interface{}{
		"visible": h.service.Poller.Visible(),
	})
}

// GetHoldings returns the last published holdings; ?fiat=1 adds fiat values.
func (h *Handler) GetHoldings(c *gin.Context) {
	state := h.service.Balance.State()
	response := map[string]interface{}{
		"data": state,
	}
	if c.Query("fiat") != "" && h.service.Rates != nil {
		response["valued"] = h.service.Rates.Value(c.Request.Context(), state.Holdings)
		response["currency"] = h.service.Rates.Currency()
	}
	wrapOkJSON(c, response)
}

func (h *Handler) Refresh(c *gin.Context) {
	addr, ok := h.service.Session.Address()
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Connect your wallet first.")
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": h.service.Balance.Refresh(c.Request.Context(), &addr),
	})
}

func clusterName(endpoint string) string {
	e := strings.ToLower(endpoint)
	switch {
	case strings.Contains(e, "devnet"):
		return "devnet"
	case strings.Contains(e, "testnet"):
		return "testnet"
	case strings.Contains(e, "mainnet"):
		return "mainnet-beta"
	case strings.Contains(e, "localhost"), strings.Contains(e, "127.0.0.1"):
		return "localnet"
	}
	return "custom"
}
