package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/sizeconv/units"
)

type Config struct {
	bind           string
	from           string
	port           int
	precision      int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	to             string
	value          string
	verbose        bool
	version        bool

	fromUnit units.Unit
	toUnit   units.Unit
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if err := validatePrecision(c.precision); err != nil {
		return err
	}

	var err error
	if c.fromUnit, err = units.ParseUnit(c.from); err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	if c.toUnit, err = units.ParseUnit(c.to); err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	return nil
}

func validatePrecision(p int) error {
	if p < 0 || p > units.MaxPrecision {
		return fmt.Errorf("invalid precision (must be between 0-%d inclusive): %d", units.MaxPrecision, p)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SIZECONV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "sizeconv",
		Short:         "Converts storage sizes between B, KB, MB, GB and TB, in the browser or the terminal.",
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

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SIZECONV_BIND)")
	fs.StringVar(&cfg.from, "from", "GB", "unit new sessions convert from (env: SIZECONV_FROM)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SIZECONV_PORT)")
	fs.IntVar(&cfg.precision, "precision", 0, "decimal places shown in results (env: SIZECONV_PRECISION)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SIZECONV_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SIZECONV_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle converter sessions are ended (env: SIZECONV_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SIZECONV_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SIZECONV_TLS_KEY)")
	fs.StringVar(&cfg.to, "to", "MB", "unit new sessions convert to (env: SIZECONV_TO)")
	fs.StringVar(&cfg.value, "value", "1", "value new sessions start with (env: SIZECONV_VALUE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SIZECONV_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SIZECONV_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newConvertCmd(cfg), newTableCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	cmd.SetVersionTemplate("sizeconv v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
