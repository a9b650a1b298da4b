/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Seednode/santabox/santa"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	baseURL         string
	bind            string
	maxParticipants int
	metrics         bool
	port            int
	prefix          string
	profile         bool
	qrSize          int
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool

	// newRand supplies the randomness for each draw.
	newRand func() santa.Rand
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxParticipants < santa.MinParticipants {
		return fmt.Errorf("invalid max participants (must be at least %d): %d", santa.MinParticipants, c.maxParticipants)
	}
	if c.qrSize < 64 || c.qrSize > 2048 {
		return fmt.Errorf("invalid qr size (must be between 64-2048 inclusive): %d", c.qrSize)
	}
	if c.baseURL != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base url (must be absolute, e.g. https://santa.example.com): %q", c.baseURL)
		}
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) rand() santa.Rand {
	if c.newRand != nil {
		return c.newRand()
	}
	return santa.DefaultRand()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SANTABOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func normalizeFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

// bindEnv lets SANTABOX_* environment variables fill in any flag not set
// on the command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:           "santabox",
		Short:         "Secret Santa organizer that keeps every draw in the link itself.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	normalizeFlags(fs)

	fs.StringVar(&cfg.baseURL, "base-url", "", "absolute url used in shared links and qr codes, when behind a reverse proxy (env: SANTABOX_BASE_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SANTABOX_BIND)")
	fs.IntVar(&cfg.maxParticipants, "max-participants", 100, "maximum participants per draw (env: SANTABOX_MAX_PARTICIPANTS)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: SANTABOX_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SANTABOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SANTABOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SANTABOX_PROFILE)")
	fs.IntVar(&cfg.qrSize, "qr-size", 320, "edge length of generated qr codes, in pixels (env: SANTABOX_QR_SIZE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SANTABOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SANTABOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SANTABOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SANTABOX_VERSION)")

	bindEnv(v, fs)

	cmd.AddCommand(newGenerateCmd(cfg), newDecodeCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("santabox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
