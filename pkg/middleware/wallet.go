package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/pkg/service"
)

const AddressKey = "address"

// RequireWallet rejects requests while no address is connected.
func RequireWallet(session *service.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn := session.Connection()
		if !conn.Connected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Connect your wallet first."})
			return
		}
		logrus.WithField("address", conn.Address).Debug("RequireWallet: connected")
		c.Set(AddressKey, conn.Address)
		c.Next()
	}
}
