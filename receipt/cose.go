package receipt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

// ErrInvalidSignature is returned when a receipt fails signature verification.
var ErrInvalidSignature = errors.New("invalid receipt signature")

// encMode encodes payloads deterministically so equal receipts sign equal bytes.
var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("receipt: cbor encoding mode: %v", err))
	}
	return mode
}()

// Signer signs receipts as COSE_Sign1 messages using ES256.
type Signer struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
}

// NewSigner creates a Signer with a fresh P-256 key pair.
func NewSigner() (*Signer, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return NewSignerFromKey(privateKey), nil
}

// NewSignerFromKey wraps an existing P-256 private key.
func NewSignerFromKey(privateKey *ecdsa.PrivateKey) *Signer {
	return &Signer{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}
}

// Sign encodes the receipt as CBOR and wraps it in a tagged COSE_Sign1 message.
func (s *Signer) Sign(r *Receipt) ([]byte, error) {
	payload, err := encMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Headers.Protected[cose.HeaderLabelContentType] = "application/cbor"
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	return msg.MarshalCBOR()
}

// PublicKeyPEM returns the verification key in PEM format
func (s *Signer) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(s.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// ParsePublicKeyPEM decodes a PEM-encoded ECDSA public key.
func ParsePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// Verify checks a signed receipt against the public key and returns the decoded receipt.
func Verify(signed []byte, publicKey crypto.PublicKey) (*Receipt, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(signed); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}

	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("read algorithm: %w", err)
	}
	if alg != cose.AlgorithmES256 {
		return nil, fmt.Errorf("unexpected algorithm %v", alg)
	}

	verifier, err := cose.NewVerifier(alg, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return decodePayload(msg.Payload)
}

// ExtractPayload decodes the receipt of a signed message without verifying the signature.
func ExtractPayload(signed []byte) (*Receipt, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(signed); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	return decodePayload(msg.Payload)
}

func decodePayload(payload []byte) (*Receipt, error) {
	var r Receipt
	if err := cbor.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &r, nil
}
