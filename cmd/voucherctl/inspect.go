package main

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"voucherd/internal/voucher"
)

func newVoucherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voucher",
		Short: "Work with issued voucher files",
	}

	cmd.AddCommand(newVoucherInspectCmd())
	return cmd
}

func newVoucherInspectCmd() *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Decode a voucher envelope and verify its signature",
		Long: "Decode a voucher envelope, print its payload, and verify the detached " +
			"signature against the public key of the pinned domain certificate.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			env, err := voucher.Decode(data)
			if err != nil {
				return err
			}
			payload, err := voucher.DecodePayload(env.Payload)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Envelope version:  %d\n", env.Version)
			fmt.Fprintf(out, "Signer id:         %s\n", env.SignerID)
			fmt.Fprintf(out, "Algorithm:         %s\n", env.Algorithm)
			fmt.Fprintf(out, "Serial number:     %s\n", payload.SerialNumber)
			fmt.Fprintf(out, "Assertion:         %s\n", payload.Assertion)
			fmt.Fprintf(out, "IEN:               %s\n", payload.IEN)
			fmt.Fprintf(out, "Created on:        %s\n", time.Unix(payload.CreatedOn, 0).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "Expires on:        %s\n", time.Unix(payload.ExpiresOn, 0).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "Revocation checks: %t\n", payload.RevocationChecks)

			cert, err := x509.ParseCertificate(payload.PinnedDomainCert)
			if err != nil {
				return fmt.Errorf("pinned domain cert does not parse: %w", err)
			}
			sum := sha256.Sum256(payload.PinnedDomainCert)
			fmt.Fprintf(out, "Pinned cert:       %s (sha256 %s)\n", cert.Subject, hex.EncodeToString(sum[:]))

			if skipVerify {
				return nil
			}
			if _, err := voucher.Verify(cert.PublicKey, data); err != nil {
				// Expiry is checked after the signature, so an expired
				// voucher still proves its signature.
				if errors.Is(err, voucher.ErrExpired) {
					fmt.Fprintln(out, "Signature:         valid (voucher expired)")
					return nil
				}
				return err
			}
			fmt.Fprintln(out, "Signature:         valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Skip signature verification")
	return cmd
}
