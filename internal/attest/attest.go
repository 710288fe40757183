// Package attest signs run results with the node key so a third party can
// verify which node produced a vector.
package attest

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Attestation binds a run result to a node address.
type Attestation struct {
	Address   string `json:"address"`
	Digest    string `json:"digest"`
	Signature string `json:"signature"`
}

// Digest computes the canonical hash of a run result: Keccak256 over the run
// ID, the kernel entry point name, the dispatch geometry and the raw result
// bytes. The dimensions are encoded as fixed-width big-endian words so the
// digest does not depend on host formatting.
func Digest(runID, kernel string, length, workgroupSize int, result []byte) common.Hash {
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[0:8], uint64(length))
	binary.BigEndian.PutUint64(dims[8:16], uint64(workgroupSize))
	return crypto.Keccak256Hash([]byte(runID), []byte(kernel), dims[:], result)
}

// Sign produces an attestation over digest with the given key.
func Sign(privateKey *ecdsa.PrivateKey, digest common.Hash) (*Attestation, error) {
	signature, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		return nil, err
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	return &Attestation{
		Address:   address.Hex(),
		Digest:    digest.Hex(),
		Signature: common.Bytes2Hex(signature),
	}, nil
}

// Verify recovers the signer of a and checks it against the embedded address.
func Verify(a *Attestation) (bool, error) {
	digest := common.HexToHash(a.Digest)
	signature := common.Hex2Bytes(a.Signature)
	if len(signature) != crypto.SignatureLength {
		return false, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}
	if signature[64] == 27 || signature[64] == 28 {
		signature[64] -= 27
	}

	sigPublicKey, err := crypto.SigToPub(digest.Bytes(), signature)
	if err != nil {
		return false, err
	}

	recoveredAddress := crypto.PubkeyToAddress(*sigPublicKey).Hex()
	return recoveredAddress == a.Address, nil
}
