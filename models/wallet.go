package models

type Connection struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	CanSign   bool   `json:"can_sign"`
}

type ConnectInput struct {
	Address string `json:"address"`
}

type VisibilityInput struct {
	Visible *bool `json:"visible" binding:"required"`
}

type WalletResponse struct {
	Connection
	Endpoint string `json:"endpoint"`
	Cluster  string `json:"cluster"`
}

type KeypairFile struct {
	Address string `json:"address"`
	Secret  string `json:"secret,omitempty"`
}
