package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	inspection "github.com/st-keller/inspection"
	"github.com/st-keller/inspection/config"
	"github.com/st-keller/inspection/logging"
	"github.com/st-keller/inspection/report"
	"github.com/st-keller/inspection/snapshot"
)

var (
	verbosity int
	cfgFile   string
	asJSON    bool
	showAll   bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect live runtime objects",
		Long: `inspect resolves the inspectable facts of runtime objects (the host,
this process, certificates, text) into ordered groups and prints them, or
serves them as snapshots over HTTP/2.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity, os.Stderr)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print snapshots as JSON")
	cmd.PersistentFlags().BoolVarP(&showAll, "all", "a", false, "show rows of collapsed groups")

	cmd.AddCommand(
		newHostCmd(),
		newProcessCmd(),
		newCertCmd(),
		newTextCmd(),
		newWatchCmd(),
		newEditCmd(),
		newServeCmd(),
		newExpandCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

func newInspector() (*inspection.Inspector, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return inspection.New(cfg, inspection.WithLogger(logging.GetLogger("inspection")))
}

func printSnapshot(cmd *cobra.Command, snap snapshot.Snapshot) error {
	if asJSON {
		return report.WriteJSON(cmd.OutOrStdout(), snap)
	}
	return report.New(report.ShowCollapsed(showAll)).Write(cmd.OutOrStdout(), snap)
}

// inspectAndPrint inspects the target built by mk and prints the snapshot.
func inspectAndPrint(cmd *cobra.Command, mk func(in *inspection.Inspector) (any, error)) error {
	in, err := newInspector()
	if err != nil {
		return err
	}
	defer in.Close()

	target, err := mk(in)
	if err != nil {
		return err
	}
	return printSnapshot(cmd, in.Inspect(target).Snapshot())
}
