package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/timokae/ma-node/internal/cli/prompt"
	"github.com/timokae/ma-node/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init <state-dir>",
	Short: "Interactively create config.json in a new state directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.json")
}

func runInit(cmd *cobra.Command, args []string) error {
	stateDir := args[0]
	configPath := filepath.Join(stateDir, "config.json")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	cfg := config.DefaultConfig()

	fingerprint, err := prompt.InputRequired("Fingerprint (unique node identity)")
	if err != nil {
		return abortOr(err)
	}
	cfg.Fingerprint = fingerprint

	managerAddr, err := prompt.Input("Manager address", cfg.ManagerAddr)
	if err != nil {
		return abortOr(err)
	}
	cfg.ManagerAddr = managerAddr

	port, err := prompt.InputPort("Port", cfg.Port)
	if err != nil {
		return abortOr(err)
	}
	cfg.Port = port

	region, err := prompt.Input("Region", cfg.Stats.Region)
	if err != nil {
		return abortOr(err)
	}
	cfg.Stats.Region = region

	placement, err := prompt.Select("Placement policy", []string{"simple", "region-fan-out", "locale-biased"})
	if err != nil {
		return abortOr(err)
	}
	cfg.Placement = placement

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("generated configuration is invalid: %w", err)
	}
	if err := config.Save(stateDir, cfg); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", configPath)
	fmt.Printf("Start the node with: manode start %s\n", stateDir)
	return nil
}

func abortOr(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		return errors.New("aborted")
	}
	return err
}
