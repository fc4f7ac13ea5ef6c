// rosctl runs RouterOS API commands from the command line: execute a
// command and print its rows, follow a stream, or probe a device. With
// -listen it also serves /metrics and /healthz while it runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	routeros "github.com/ShafiqSadat/RouterOSClient"
	"github.com/ShafiqSadat/RouterOSClient/internal/auth"
	"github.com/ShafiqSadat/RouterOSClient/internal/observability"
)

type options struct {
	configPath  string
	address     string
	username    string
	password    string
	useTLS      bool
	insecure    bool
	timeout     time.Duration
	verbose     bool
	listenAddr  string
	listenToken string
	probe       bool
	stream      bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "rosctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rosctl", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&opts.address, "address", "", "device address, host or host:port")
	fs.StringVar(&opts.username, "user", "", "API username")
	fs.StringVar(&opts.password, "password", "", "API password")
	fs.BoolVar(&opts.useTLS, "tls", false, "connect over TLS")
	fs.BoolVar(&opts.insecure, "insecure", false, "skip TLS certificate verification")
	fs.DurationVar(&opts.timeout, "timeout", 0, "connect, login, read, and write timeout")
	fs.BoolVar(&opts.verbose, "verbose", false, "log word traffic")
	fs.StringVar(&opts.listenAddr, "listen", "", "serve /metrics and /healthz on this address")
	fs.StringVar(&opts.listenToken, "listen-token", "", "require this bearer token on the listener")
	fs.BoolVar(&opts.probe, "probe", false, "check the device answers and exit")
	fs.BoolVar(&opts.stream, "stream", false, "print rows as they arrive instead of buffering")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := routeros.DefaultConfig()
	if opts.configPath != "" {
		if err := applyFileConfig(opts.configPath, &cfg, &opts, set); err != nil {
			return err
		}
	}
	if set["address"] {
		cfg.Address = opts.address
	}
	if set["user"] {
		cfg.Username = opts.username
	}
	if set["password"] {
		cfg.Password = opts.password
	}
	if set["tls"] {
		cfg.TLS.Enabled = opts.useTLS
	}
	if set["insecure"] {
		cfg.TLS.InsecureSkipVerify = opts.insecure
	}
	if set["timeout"] {
		applyTimeout(&cfg, opts.timeout)
	}

	logger := observability.InitLogger("rosctl").Level(zerolog.InfoLevel)
	if opts.verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	cfg.Logger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.listenAddr != "" {
		startListener(opts.listenAddr, opts.listenToken, logger)
	}

	session, err := routeros.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	if opts.probe {
		if !session.Probe(ctx) {
			return errors.New("device did not answer the probe")
		}
		fmt.Fprintln(out, "alive")
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("command required, e.g. /system/resource/print")
	}
	cmd := routeros.NewCommand(rest[0], rest[1:]...)

	if opts.stream {
		stream, err := session.Stream(ctx, cmd)
		if err != nil {
			return err
		}
		defer stream.Close()
		for stream.Next(ctx) {
			printRow(out, stream.Row())
		}
		return stream.Err()
	}

	rows, err := session.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	for _, row := range rows {
		printRow(out, row)
	}
	return nil
}

// newListenerRouter builds the observability endpoint: health, metrics,
// request logging.
func newListenerRouter(token string, logger zerolog.Logger) *gin.Engine {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.RequestLogger(logger))
	router.Use(observability.RequestMetrics())
	if token != "" {
		router.Use(auth.Middleware(auth.StaticToken{Token: token}))
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func startListener(addr, token string, logger zerolog.Logger) {
	router := newListenerRouter(token, logger)
	go func() {
		if err := router.Run(addr); err != nil {
			logger.Error().Err(err).Str("addr", addr).Msg("listener stopped")
		}
	}()
}

func printRow(out io.Writer, row routeros.Row) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+row[k])
	}
	fmt.Fprintln(out, strings.Join(parts, "\t"))
}
