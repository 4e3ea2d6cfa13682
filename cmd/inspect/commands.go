package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	inspection "github.com/st-keller/inspection"
	"github.com/st-keller/inspection/config"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/logging"
	"github.com/st-keller/inspection/snapshot"
	"github.com/st-keller/inspection/standard"
	"github.com/st-keller/inspection/transport"
	"github.com/st-keller/inspection/update"
)

func newHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Inspect the host machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectAndPrint(cmd, func(in *inspection.Inspector) (any, error) {
				return in.Host(), nil
			})
		},
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Inspect this process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectAndPrint(cmd, func(*inspection.Inspector) (any, error) {
				return standard.AutoDetect(), nil
			})
		},
	}
}

func newCertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cert <file>",
		Short: "Inspect a PEM certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectAndPrint(cmd, func(*inspection.Inspector) (any, error) {
				return standard.LoadCertificate(args[0])
			})
		},
	}
}

func newTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <string>",
		Short: "Inspect a piece of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectAndPrint(cmd, func(*inspection.Inspector) (any, error) {
				return standard.Text(args[0]), nil
			})
		},
	}
}

func newExpandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <group title> <true|false>",
		Short: "Store whether a group starts expanded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expanded, err := strconv.ParseBool(args[1])
			if err != nil {
				return errors.Wrapf(err, errors.ErrInvalidInput, "parsing %q", args[1])
			}
			in, err := newInspector()
			if err != nil {
				return err
			}
			defer in.Close()

			if err := in.SetExpanded(args[0], expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: expanded=%t\n", args[0], expanded)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var (
		certs     []string
		logBuffer int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots of the host, this process and certificates over HTTP/2",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recent := standard.NewRecentLogs(logBuffer)
			log.Logger = log.Logger.Hook(recent)

			in, err := newInspector()
			if err != nil {
				return err
			}
			defer in.Close()

			in.Publish("logs", recent)
			in.Publish("host", in.Host())
			in.Publish("process", standard.AutoDetect())
			for _, path := range certs {
				cert, err := standard.LoadCertificate(path)
				if err != nil {
					return err
				}
				in.Publish(filepath.Base(path), cert)
			}

			return serve(cmd.Context(), in)
		},
	}
	cmd.Flags().StringSliceVar(&certs, "cert", nil, "certificate files to publish")
	cmd.Flags().IntVar(&logBuffer, "log-buffer", 100, "log lines kept for the logs target")
	return cmd
}

func serve(ctx context.Context, in *inspection.Inspector) error {
	cfg := in.Config().Server
	logger := logging.GetLogger("transport")
	h := transport.NewHandler(in, logger)

	var (
		srv *http.Server
		err error
	)
	if in.Config().TLSEnabled() {
		tlsConfig, tlsErr := transport.ServerTLSConfig(cfg.CertPath, cfg.KeyPath, cfg.CAPath)
		if tlsErr != nil {
			return tlsErr
		}
		if srv, err = transport.NewTLSServer(cfg.Addr, h, tlsConfig); err != nil {
			return err
		}
	} else {
		srv = transport.NewServer(cfg.Addr, h)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Bool("tls", srv.TLSConfig != nil).Strs("targets", in.Names()).Msg("Serving snapshots")
		if srv.TLSConfig != nil {
			errc <- srv.ListenAndServeTLS("", "")
		} else {
			errc <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, errors.ErrTransport, "serving")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrTransport, "shutting down")
	}
	return nil
}

func serverURL(cfg config.Config) string {
	if cfg.TLSEnabled() {
		return "https://" + cfg.Server.Addr
	}
	return "http://" + cfg.Server.Addr
}

func newClient() (*transport.Client, *standard.Connectivity, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	base := serverURL(cfg)
	tracker := standard.NewConnectivity(base)
	opts := []transport.ClientOption{
		transport.WithClientLogger(logging.GetLogger("client")),
		transport.WithTracker(tracker),
	}

	if !cfg.TLSEnabled() {
		return transport.NewClient(base, nil, opts...), tracker, nil
	}
	tlsConfig, err := transport.ClientTLSConfig(cfg.Server.CertPath, cfg.Server.KeyPath, cfg.Server.CAPath)
	if err != nil {
		return nil, nil, err
	}
	return transport.NewClient(base, tlsConfig, opts...), tracker, nil
}

func newWatchCmd() *cobra.Command {
	var (
		interval string
		stats    bool
	)
	cmd := &cobra.Command{
		Use:   "watch <target>",
		Short: "Print a served target whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			every, err := update.Parse(interval)
			if err != nil {
				return errors.Wrap(err, errors.ErrInvalidInput, "parsing --interval")
			}
			client, tracker, err := newClient()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var printErr error
			err = client.Watch(ctx, args[0], every.Duration(), func(snap snapshot.Snapshot) {
				if printErr = printSnapshot(cmd, snap); printErr != nil {
					stop()
				}
			})
			if printErr != nil {
				return printErr
			}
			if ctx.Err() == nil {
				return err
			}
			if stats {
				return inspectAndPrint(cmd, func(*inspection.Inspector) (any, error) {
					return tracker, nil
				})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "medium", "refresh cadence: fast, medium or slow")
	cmd.Flags().BoolVar(&stats, "stats", false, "print connection statistics when the watch ends")
	return cmd
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <target> <group> <index> <value>",
		Short: "Write a value to an attribute of a served target",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return errors.Wrapf(err, errors.ErrInvalidInput, "parsing index %q", args[2])
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}
			snap, err := client.Edit(cmd.Context(), args[0], transport.EditRequest{
				Group: args[1],
				Index: index,
				Value: args[3],
			})
			if err != nil {
				return err
			}
			return printSnapshot(cmd, snap)
		},
	}
}
