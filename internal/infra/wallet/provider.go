// Package wallet manages the single wallet session the stream operations run against.
//
// A Provider stands in for the wallet injected by the hosting environment: it
// authorizes accounts, exposes the node backend and derives a signer. The
// Session publishes the resulting handles atomically, so callers observe either
// a fully connected state or none at all.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/infra/chain/evm"
)

// Provider is an injected wallet.
type Provider interface {
	// RequestAccounts asks the wallet to authorize its accounts
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Backend returns the network provider handle
	Backend() evm.Backend

	// Signer derives a transaction signer for an authorized account
	Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error)

	// Close releases the network connection
	Close()
}

// Environment detects whether a wallet was injected into the host.
type Environment interface {
	// Available reports whether an injected wallet is present
	Available() bool

	// Injected returns the injected wallet, or domain.ErrNoWallet
	Injected(ctx context.Context) (Provider, error)
}

// Config holds wallet and network settings.
type Config struct {
	RPCURL       string `yaml:"rpc_url"`
	ChainID      int64  `yaml:"chain_id"` // 0 = ask the node
	PrivateKey   string `yaml:"private_key"`
	KeystoreFile string `yaml:"keystore_file"`
	Passphrase   string `yaml:"passphrase"`
	AutoConnect  bool   `yaml:"auto_connect"`
}

// ConfigEnvironment treats a configured RPC endpoint plus signing key as the injected wallet.
type ConfigEnvironment struct {
	cfg Config
}

func NewConfigEnvironment(cfg Config) *ConfigEnvironment {
	return &ConfigEnvironment{cfg: cfg}
}

func (e *ConfigEnvironment) Available() bool {
	return e.cfg.RPCURL != "" && (e.cfg.PrivateKey != "" || e.cfg.KeystoreFile != "")
}

func (e *ConfigEnvironment) Injected(ctx context.Context) (Provider, error) {
	if !e.Available() {
		return nil, domain.ErrNoWallet
	}

	key, err := loadKey(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, e.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", e.cfg.RPCURL, err)
	}

	var chainID *big.Int
	if e.cfg.ChainID > 0 {
		chainID = big.NewInt(e.cfg.ChainID)
	}

	return &RPCProvider{client: client, key: key, chainID: chainID}, nil
}

func loadKey(cfg Config) (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey != "" {
		return crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	}

	data, err := os.ReadFile(cfg.KeystoreFile)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(data, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return key.PrivateKey, nil
}

// RPCProvider is a JSON-RPC node connection paired with a local signing key.
type RPCProvider struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

var errUnknownAccount = errors.New("account not managed by this wallet")

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{crypto.PubkeyToAddress(p.key.PublicKey)}, nil
}

func (p *RPCProvider) Backend() evm.Backend {
	return p.client
}

func (p *RPCProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if account != crypto.PubkeyToAddress(p.key.PublicKey) {
		return nil, fmt.Errorf("%w: %s", errUnknownAccount, account.Hex())
	}

	chainID := p.chainID
	if chainID == nil {
		id, err := p.client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("query chain id: %w", err)
		}
		chainID = id
	}

	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}

func (p *RPCProvider) Close() {
	p.client.Close()
}
