// Copyright 2024 The FSXVol Authors
// This file is part of FSXVol.
//
// FSXVol is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FSXVol is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with FSXVol. If not, see <http://www.gnu.org/licenses/>.

// Command fsxvolctl is the CLI front end over the volume-op opcode surface
// (spec.md §6): one subcommand for each opcode except PRINT_BRICK and
// ADD_PROXY, which have none. print-volume reads the volume directly; the
// others dispatch through fsxlib/volume's DispatchOffline/DispatchOnline
// entry points. Failures map to a negative-errno-style exit code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/distvol/fsxvol/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fsxvolctl:", err)
		os.Exit(errnoOf(err))
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "fsxvolctl",
		Short:         "Control a fsxvol distribution-table volume",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "fsxvol.toml", "path to the volume config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	env := &cliEnv{configPath: &configPath, verbose: &verbose}

	root.AddCommand(
		newRegisterBrickCmd(env),
		newUnregisterBrickCmd(env),
		newVolumeHeaderCmd(env),
		newBrickHeaderCmd(env),
		newPrintVolumeCmd(env),
		newResizeBrickCmd(env),
		newAddBrickCmd(env),
		newRemoveBrickCmd(env),
		newScaleVolumeCmd(env),
		newBalanceVolumeCmd(env),
		newMigrateFileCmd(env),
		newSetFileImmobileCmd(env),
		newClrFileImmobileCmd(env),
	)
	return root
}

// cliEnv carries the flags shared by every subcommand's RunE closure.
type cliEnv struct {
	configPath *string
	verbose    *bool
}

func (e *cliEnv) loadConfig() (config.VolumeConfig, error) {
	return config.Load(*e.configPath)
}
