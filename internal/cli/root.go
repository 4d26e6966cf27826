// Package cli is the gitlet command layer: it parses arguments, opens the
// repository for one operation and prints the outcome.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/systemshift/gitlet/internal/config"
	gerrors "github.com/systemshift/gitlet/internal/errors"
	"github.com/systemshift/gitlet/internal/logging"
	"github.com/systemshift/gitlet/internal/repo"
)

// app carries what every command needs. It is built once per invocation.
type app struct {
	workDir string
	now     func() time.Time
	cfg     *config.Config
}

func (a *app) open() (*repo.Repository, error) {
	return repo.Open(a.workDir)
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var verbosity int
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "gitlet",
		Short: MsgRootShort,
		Long:  MsgRootLong,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return gerrors.Wrap(err, gerrors.ErrInternal, "resolve working directory")
			}
			a.workDir = wd
			cfg, err := config.Load(repo.Dir(wd))
			if err != nil {
				return gerrors.Wrap(err, gerrors.ErrInternal, "load configuration")
			}
			a.cfg = cfg
			logging.SetupLogger(cfg.Log.Level, verbosity)
			log.Debug().Str("command", cmd.Name()).Strs("args", args).Msg("Command started")
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), MsgNoCommand)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return gerrors.Wrap(err, gerrors.ErrUsage, MsgIncorrectOperands)
	})

	rootCmd.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newCommitCmd(a),
		newRmCmd(a),
		newLogCmd(a),
		newGlobalLogCmd(a),
		newFindCmd(a),
		newStatusCmd(a),
		newCheckoutCmd(a),
		newBranchCmd(a),
		newRmBranchCmd(a),
		newResetCmd(a),
		newMergeCmd(a),
		newMountCmd(a),
	)
	return rootCmd
}

// Execute runs the command and prints any failure as a single line to the
// command's output. Every outcome is reported the same way, so callers exit 0.
func Execute(cmd *cobra.Command) {
	err := cmd.Execute()
	if err == nil {
		return
	}
	if gerrors.IsErrorCode(err, gerrors.ErrInternal) {
		log.Error().Err(err).Msg("Command failed")
	} else {
		log.Debug().
			Str("code", string(gerrors.GetErrorCode(err))).
			Fields(gerrors.GetErrorDetails(err)).
			Msg("Command refused")
	}
	fmt.Fprintln(cmd.OutOrStdout(), userMessage(err))
}

// userMessage maps a failure to the line shown to the user.
func userMessage(err error) string {
	var typed *gerrors.Error
	if errors.As(err, &typed) {
		return typed.Error()
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return MsgUnknownCommand
	}
	return MsgIncorrectOperands
}

// exactArgs is cobra.ExactArgs with the gitlet usage message.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return gerrors.New(gerrors.ErrUsage, MsgIncorrectOperands)
		}
		return nil
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
