package ethtxhelper

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/Ethernal-Tech/cardano-infrastructure/secrets"
	bridgeCommon "github.com/Giveth/giveth-bridge/common"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type IEthTxWallet interface {
	GetTransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
	GetAddress() common.Address
}

type EthTxWallet struct {
	addr       common.Address
	privateKey *ecdsa.PrivateKey
}

var _ IEthTxWallet = (*EthTxWallet)(nil)

func NewEthTxWallet(pk string) (*EthTxWallet, error) {
	pkBytes, err := bridgeCommon.DecodeHex(strings.TrimSpace(pk))
	if err != nil {
		return nil, err
	}

	privateKey, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, err
	}

	return &EthTxWallet{
		privateKey: privateKey,
		addr:       crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// LoadEthTxWallet reads a hex encoded private key stored under keyName
func LoadEthTxWallet(secretsManager secrets.SecretsManager, keyName string) (*EthTxWallet, error) {
	pkBytes, err := secretsManager.GetSecret(keyName)
	if err != nil {
		return nil, err
	}

	return NewEthTxWallet(string(pkBytes))
}

func GenerateNewEthTxWallet() (*EthTxWallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return &EthTxWallet{
		privateKey: privateKey,
		addr:       crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

func (w EthTxWallet) GetTransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(w.privateKey, chainID)
}

func (w EthTxWallet) GetAddress() common.Address {
	return w.addr
}

func (w EthTxWallet) GetAddressHex() string {
	return w.addr.String()
}

func (w EthTxWallet) Save(secretsManager secrets.SecretsManager, keyName string) error {
	return secretsManager.SetSecret(keyName, []byte(hex.EncodeToString(crypto.FromECDSA(w.privateKey))))
}

// GetHexData returns private key, compressed public key and address as hex strings
func (w EthTxWallet) GetHexData() (string, string, string) {
	return hex.EncodeToString(crypto.FromECDSA(w.privateKey)),
		hex.EncodeToString(crypto.CompressPubkey(&w.privateKey.PublicKey)),
		w.addr.String()
}
