/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/Seednode/santabox/santa"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	baseURL string
	qrDir   string
	qrSize  int
	seed    uint64
}

func newGenerateCmd(cfg *Config) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate NAME...",
		Short: "Draw assignments and print the links to share.",
		Args:  cobra.MinimumNArgs(santa.MinParticipants),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cfg.rand()
			if cmd.Flags().Changed("seed") {
				r = santa.SeededRand(opts.seed)
			}

			return runGenerate(cmd.OutOrStdout(), opts, args, r)
		},
	}

	fs := cmd.Flags()

	normalizeFlags(fs)

	fs.StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "url the server is reachable at, including any prefix (env: SANTABOX_BASE_URL)")
	fs.StringVar(&opts.qrDir, "qr", "", "directory to write one qr code per link into (env: SANTABOX_QR)")
	fs.IntVar(&opts.qrSize, "qr-size", 320, "edge length of generated qr codes, in pixels (env: SANTABOX_QR_SIZE)")
	fs.Uint64Var(&opts.seed, "seed", 0, "seed for a reproducible draw (env: SANTABOX_SEED)")

	bindEnv(newViper(), fs)

	return cmd
}

func runGenerate(w io.Writer, opts *generateOptions, names []string, r santa.Rand) error {
	var s santa.Session

	for _, name := range names {
		if err := s.AddParticipant(name); err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
	}

	if err := s.Generate(r); err != nil {
		return err
	}

	base := strings.TrimSuffix(opts.baseURL, "/") + "/santa"
	organizer := base + "?" + santa.Encode(s)
	group := base + "/view?" + santa.Encode(s.Viewer())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Organizer\t%s\n", organizer)
	fmt.Fprintf(tw, "Group\t%s\n", group)

	gifts := make([]string, len(s.Assignments))
	for i, a := range s.Assignments {
		gifts[i] = base + "/gift/" + santa.EncodeToken(a)
		fmt.Fprintf(tw, "%s\t%s\n", a.Giver, gifts[i])
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.qrDir == "" {
		return nil
	}

	if err := os.MkdirAll(opts.qrDir, 0o755); err != nil {
		return err
	}

	if err := qrcode.WriteFile(group, qrcode.Low, opts.qrSize, filepath.Join(opts.qrDir, "group.png")); err != nil {
		return fmt.Errorf("group link: %w", err)
	}

	for i, a := range s.Assignments {
		fname := filepath.Join(opts.qrDir, fmt.Sprintf("%02d-%s.png", i+1, fileSafe(a.Giver)))
		if err := qrcode.WriteFile(gifts[i], qrcode.Medium, opts.qrSize, fname); err != nil {
			return fmt.Errorf("%q: %w", a.Giver, err)
		}
	}

	return nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode URL",
		Short: "Print the session stored in a link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.OutOrStdout(), args[0])
		},
	}

	normalizeFlags(cmd.Flags())

	return cmd
}

// runDecode prints whatever decoded, then reports any field that did not.
func runDecode(w io.Writer, link string) error {
	if dir, token := path.Split(strings.SplitN(link, "?", 2)[0]); strings.HasSuffix(dir, "/gift/") {
		a, err := santa.DecodeToken(token)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, "%s -> %s\n", a.Giver, a.Receiver)

		return err
	}

	s, decodeErr := santa.Decode(link)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Participants\t%s\n", strings.Join(s.Participants, ", "))
	if s.Selected != "" {
		fmt.Fprintf(tw, "Selected\t%s\n", s.Selected)
	}
	for _, a := range s.Assignments {
		fmt.Fprintf(tw, "%s\t-> %s\n", a.Giver, a.Receiver)
	}

	if err := tw.Flush(); err != nil {
		return errors.Join(decodeErr, err)
	}

	return decodeErr
}
