package service

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana_wallet_dashboard/internal/wallet"
	"solana_wallet_dashboard/models"
)

// Session is the connection context of one dashboard: the connected address
// and, when the owner can sign, its signing agent.
type Session struct {
	mu        sync.RWMutex
	address   *solana.PublicKey
	signer    wallet.Signer
	listeners []func(models.Connection)
}

func NewSession() *Session {
	return &Session{}
}

// Connect connects the signer's address.
func (s *Session) Connect(signer wallet.Signer) models.Connection {
	pub := signer.PublicKey()
	s.mu.Lock()
	s.address = &pub
	s.signer = signer
	s.mu.Unlock()

	logrus.WithField("address", pub.String()).Info("wallet connected")
	return s.notify()
}

// ConnectWatchOnly connects an address without a signer. Balances are
// readable, transfers fail validation.
func (s *Session) ConnectWatchOnly(address string) (models.Connection, error) {
	pub, err := wallet.ParseAddress(address)
	if err != nil {
		return models.Connection{}, err
	}
	s.mu.Lock()
	s.address = &pub
	s.signer = nil
	s.mu.Unlock()

	logrus.WithField("address", pub.String()).Info("address connected in watch-only mode")
	return s.notify(), nil
}

// Disconnect returns after every listener has observed the disconnection.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.address == nil {
		s.mu.Unlock()
		return
	}
	s.address = nil
	s.signer = nil
	s.mu.Unlock()

	logrus.Info("wallet disconnected")
	s.notify()
}

func (s *Session) Connection() models.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectionLocked()
}

func (s *Session) connectionLocked() models.Connection {
	if s.address == nil {
		return models.Connection{}
	}
	return models.Connection{
		Connected: true,
		Address:   s.address.String(),
		CanSign:   s.signer != nil,
	}
}

func (s *Session) Address() (solana.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.address == nil {
		return solana.PublicKey{}, false
	}
	return *s.address, true
}

func (s *Session) Signer() wallet.Signer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signer
}

// OnChange registers fn to run on every connect and disconnect.
func (s *Session) OnChange(fn func(models.Connection)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) notify() models.Connection {
	s.mu.RLock()
	conn := s.connectionLocked()
	listeners := append([]func(models.Connection){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(conn)
	}
	return conn
}
