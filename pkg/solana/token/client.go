package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/distributor-client/pkg/solana"
)

// Client provides utilities for accessing token accounts for a given mint.
type Client struct {
	sc   solana.Client
	mint ed25519.PublicKey
}

// NewClient creates a new Client.
func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return &Client{
		sc:   sc,
		mint: mint,
	}
}

func (c *Client) Mint() ed25519.PublicKey {
	return c.mint
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(accountID ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	accountInfo, err := c.sc.GetAccountInfo(accountID, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, ProgramKey) {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if !account.Unmarshal(accountInfo.Data) || account.State == AccountStateUninitialized {
		return nil, ErrInvalidTokenAccount
	}

	if !bytes.Equal(c.mint, account.Mint) {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetAssociatedBalance returns the balance held in the associated account of
// owner. A missing account has a zero balance.
func (c *Client) GetAssociatedBalance(owner ed25519.PublicKey, commitment solana.Commitment) (uint64, error) {
	addr, err := GetAssociatedAccount(owner, c.mint)
	if err != nil {
		return 0, err
	}

	account, err := c.GetAccount(addr, commitment)
	if err == ErrAccountNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	return account.Amount, nil
}
