package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/resourceauction/receipt"
)

var verifyCmd = &cli.Command{
	Name:  "verify",
	Usage: "Verify a signed auction receipt",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "receipt",
			Required: true,
			Usage:    "specify the signed receipt (.cose)",
		},
		&cli.StringFlag{
			Name:     "key",
			Required: true,
			Usage:    "specify the PEM verification key",
		},
	},
	Action: func(ctx *cli.Context) error {
		signed, err := os.ReadFile(ctx.String("receipt"))
		if err != nil {
			return fmt.Errorf("read receipt: %w", err)
		}

		keyPEM, err := os.ReadFile(ctx.String("key"))
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		publicKey, err := receipt.ParsePublicKeyPEM(keyPEM)
		if err != nil {
			return err
		}

		r, err := receipt.Verify(signed, publicKey)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "Receipt signature is valid")
		return outputJSON(r)
	},
}
