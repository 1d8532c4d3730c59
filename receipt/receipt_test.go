package receipt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/resourceauction/core"
	"github.com/cloudx-io/resourceauction/report"
)

func newTestTrial(t *testing.T) *report.Trial {
	t.Helper()
	resources := []core.Resource{"r1", "r2"}
	bidders := []core.Bidder{"u1", "u2"}
	bids := core.BidMatrix{
		"u1": {5, -1},
		"u2": {7.25, -1},
	}

	result, err := core.Allocate(resources, bidders, bids)
	assert.NoError(t, err)

	return &report.Trial{
		ID:        uuid.NewString(),
		Resources: resources,
		Bidders:   bidders,
		Bids:      bids,
		Result:    result,
	}
}

func TestNew(t *testing.T) {
	trial := newTestTrial(t)
	now := time.Unix(1700000000, 0)

	r := New(trial, "nonce", now)

	_, err := uuid.Parse(r.ID)
	check.NoError(t, err)
	check.Equal(t, trial.ID, r.TrialID)
	check.Equal(t, int64(1700000000), r.IssuedAt)
	check.Equal(t, core.ComputeMatrixHash(trial.Resources, trial.Bidders, trial.Bids, "nonce"), r.MatrixHash)

	assert.Equal(t, 2, len(r.Resources))
	check.Equal(t, "u2", r.Resources[0].Winner)
	check.Equal(t, "5", r.Resources[0].Price)
	check.Equal(t, core.ComputeBidHash("u2", "r1", 7.25, "nonce"), r.Resources[0].BidHash)
	check.Equal(t, "", r.Resources[1].Winner)
	check.Equal(t, "", r.Resources[1].BidHash)

	check.Equal(t, []PaymentLine{{Bidder: "u1", Amount: "0"}, {Bidder: "u2", Amount: "5"}}, r.Payments)
	check.Equal(t, "", r.AdjustmentFactorsHash)

	trial.AdjustmentFactors = map[core.Bidder]float64{"u1": 1.1}
	check.Equal(t, core.ComputeAdjustmentFactorsHash(trial.AdjustmentFactors, "nonce"), New(trial, "nonce", now).AdjustmentFactorsHash)

	winner, ok := r.Winner("r1")
	check.True(t, ok)
	check.Equal(t, core.Bidder("u2"), winner)
	_, ok = r.Winner("r2")
	check.False(t, ok)
}

func TestSignAndVerify(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	original := New(newTestTrial(t), "nonce", time.Unix(1700000000, 0))

	signed, err := signer.Sign(original)
	assert.NoError(t, err)

	verified, err := Verify(signed, signer.PublicKey)
	assert.NoError(t, err)
	check.Equal(t, original, verified)

	extracted, err := ExtractPayload(signed)
	assert.NoError(t, err)
	check.Equal(t, original, extracted)
}

func TestVerify_WrongKey(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)
	other, err := NewSigner()
	assert.NoError(t, err)

	signed, err := signer.Sign(New(newTestTrial(t), "nonce", time.Now()))
	assert.NoError(t, err)

	_, err = Verify(signed, other.PublicKey)
	check.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestVerify_Tampered(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	signed, err := signer.Sign(New(newTestTrial(t), "nonce", time.Now()))
	assert.NoError(t, err)

	// Flip a byte in the last 64 bytes (the signature)
	tampered := append([]byte(nil), signed...)
	tampered[len(tampered)-10] ^= 0xff

	_, err = Verify(tampered, signer.PublicKey)
	check.Error(t, err)

	_, err = Verify([]byte("not cbor"), signer.PublicKey)
	check.Error(t, err)
}

func TestPublicKeyPEM(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	pemString, err := signer.PublicKeyPEM()
	assert.NoError(t, err)
	check.True(t, regexp.MustCompile(`^-----BEGIN PUBLIC KEY-----\n`).MatchString(pemString))

	parsed, err := ParsePublicKeyPEM([]byte(pemString))
	assert.NoError(t, err)
	check.True(t, parsed.Equal(signer.PublicKey))

	_, err = ParsePublicKeyPEM([]byte("garbage"))
	check.Error(t, err)
}

func TestGenerateNonce(t *testing.T) {
	nonce1, err := GenerateNonce()
	assert.NoError(t, err)
	nonce2, err := GenerateNonce()
	assert.NoError(t, err)

	check.Equal(t, 64, len(nonce1))
	check.NotEqual(t, nonce1, nonce2)
}

func TestSink(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	dir := t.TempDir()
	sink := &Sink{
		Signer: signer,
		Dir:    dir,
		Now:    func() time.Time { return time.Unix(42, 0) },
	}

	trial := newTestTrial(t)
	trial.Index = 3
	assert.NoError(t, sink.Report(context.Background(), trial))

	signed, err := os.ReadFile(filepath.Join(dir, "trial-3.cose"))
	assert.NoError(t, err)

	r, err := Verify(signed, signer.PublicKey)
	assert.NoError(t, err)
	check.Equal(t, trial.ID, r.TrialID)
	check.Equal(t, int64(42), r.IssuedAt)
}
