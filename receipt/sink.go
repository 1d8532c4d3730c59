package receipt

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudx-io/resourceauction/report"
)

// Sink signs a receipt for every trial and writes it to Dir as trial-<index>.cose.
type Sink struct {
	Signer *Signer
	Dir    string

	// Now is the clock used for IssuedAt; time.Now when nil
	Now func() time.Time
}

// Report issues and stores the receipt.
func (s *Sink) Report(_ context.Context, trial *report.Trial) error {
	nonce, err := GenerateNonce()
	if err != nil {
		return err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	signed, err := s.Signer.Sign(New(trial, nonce, now()))
	if err != nil {
		return err
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("trial-%d.cose", trial.Index))
	if err := os.WriteFile(path, signed, 0o644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	log.Printf("INFO: Wrote receipt for trial %s to %s", trial.ID, path)
	return nil
}

var _ report.Sink = (*Sink)(nil)
