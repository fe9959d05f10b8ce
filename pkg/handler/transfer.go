package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
	"solana_wallet_dashboard/pkg/service"
)

// Submit starts a transfer and answers 202 with the attempt; progress is read
// from GET /api/transfer. Body: {asset, to, amount}.
func (h *Handler) Submit(c *gin.Context) {
	var input models.TransferInput
	if err := c.BindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	req := models.TransferRequest{
		Destination: input.To,
		HumanAmount: input.Amount,
	}
	if holding, ok := h.service.Balance.Holding(input.Asset); ok {
		req.Asset = &holding
	}

	status, err := h.service.Transfer.SubmitAsync(c.Request.Context(), req)
	if errors.Is(err, service.ErrTransferInProgress) {
		newErrorResponse(c, http.StatusConflict, service.FriendlyMessage(err))
		return
	}
	if err != nil {
		newErrorResponse(c, http.StatusInternalServerError, service.FriendlyMessage(err))
		return
	}

	c.JSON(http.StatusAccepted, map[string]interface{}{
		"data": status,
	})
}

func (h *Handler) GetTransfer(c *gin.Context) {
	response := map[string]interface{}{
		"data": h.service.Transfer.Status(),
	}
	if h.service.Approvals != nil {
		if pending, ok := h.service.Approvals.Pending(); ok {
			response["pending_approval"] = pending
		}
	}
	wrapOkJSON(c, response)
}

func (h *Handler) ResetTransfer(c *gin.Context) {
	status, err := h.service.Transfer.Reset()
	if err != nil {
		newErrorResponse(c, http.StatusConflict, service.FriendlyMessage(err))
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": status,
	})
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, true)
}

func (h *Handler) Decline(c *gin.Context) {
	h.decide(c, false)
}

func (h *Handler) decide(c *gin.Context, approve bool) {
	if h.service.Approvals == nil {
		newErrorResponse(c, http.StatusNotFound, "manual approval is not enabled")
		return
	}
	if err := h.service.Approvals.Decide(approve); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, wallet.ErrNoPendingApproval) {
			status = http.StatusConflict
		}
		newErrorResponse(c, status, err.Error())
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"approved": approve,
	})
}
