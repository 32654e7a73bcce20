package main

import (
	"time"
)

type PoolView struct {
	Address   string    `json:"address"`
	MintX     string    `json:"mintX"`
	MintY     string    `json:"mintY"`
	VaultX    string    `json:"vaultX"`
	VaultY    string    `json:"vaultY"`
	MintLP    string    `json:"mintLp"`
	ReserveX  string    `json:"reserveX"`
	ReserveY  string    `json:"reserveY"`
	LPSupply  string    `json:"lpSupply"`
	FeeBps    uint16    `json:"feeBps"`
	State     string    `json:"state"`
	Price     string    `json:"price,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type QuoteResponse struct {
	Pool                 string    `json:"pool"`
	InputMint            string    `json:"inputMint"`
	OutputMint           string    `json:"outputMint"`
	InAmount             string    `json:"inAmount"`
	OutAmount            string    `json:"outAmount"`
	FeeBps               uint16    `json:"feeBps"`
	SlippageBps          int       `json:"slippageBps"`
	OtherAmountThreshold string    `json:"otherAmountThreshold"`
	LastUpdate           time.Time `json:"lastUpdate"`
	TimeTaken            string    `json:"timeTaken"`
}

type DepositQuoteResponse struct {
	Pool      string `json:"pool"`
	LPAmount  string `json:"lpAmount"`
	MaxX      string `json:"maxX"`
	MaxY      string `json:"maxY"`
	FirstTime bool   `json:"firstDeposit"`
}

type WithdrawQuoteResponse struct {
	Pool     string `json:"pool"`
	LPAmount string `json:"lpAmount"`
	MinX     string `json:"minX"`
	MinY     string `json:"minY"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	Pools      int       `json:"pools"`
	Subscribed bool      `json:"subscribed"`
	LastUpdate time.Time `json:"lastUpdate"`
	Uptime     string    `json:"uptime"`
}
