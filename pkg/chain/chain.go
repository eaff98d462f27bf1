package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	ErrInvalidAddress   = errors.New("invalid solana address")
	ErrInvalidSignature = errors.New("invalid transaction signature")
	ErrTxFailed         = errors.New("transaction execution failed")
)

// ParseWallet decodes a base58 Solana public key. Surrounding whitespace is
// rejected rather than trimmed.
func ParseWallet(address string) (solana.PublicKey, error) {
	if address == "" || strings.TrimSpace(address) != address {
		return solana.PublicKey{}, ErrInvalidAddress
	}

	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	return pk, nil
}

func IsValidWallet(address string) bool {
	_, err := ParseWallet(address)
	return err == nil
}

func ParseSignature(sig string) (solana.Signature, error) {
	s, err := solana.SignatureFromBase58(sig)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return s, nil
}

// Confirmer reports whether a transaction reached confirmed commitment.
type Confirmer interface {
	ConfirmTransaction(ctx context.Context, signature string) (bool, error)
}

type Client struct {
	rpc *rpc.Client
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = rpc.DevNet_RPC
	}
	return &Client{rpc: rpc.New(endpoint)}
}

// ConfirmTransaction returns false without error when the signature is
// unknown to the cluster or still below confirmed commitment.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) (bool, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return false, err
	}

	status, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}

	if len(status.Value) == 0 || status.Value[0] == nil {
		return false, nil
	}

	if status.Value[0].Err != nil {
		return false, fmt.Errorf("%w: %v", ErrTxFailed, status.Value[0].Err)
	}

	conf := status.Value[0].ConfirmationStatus
	return conf == rpc.ConfirmationStatusConfirmed || conf == rpc.ConfirmationStatusFinalized, nil
}
