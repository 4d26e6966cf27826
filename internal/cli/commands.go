package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	gerrors "github.com/systemshift/gitlet/internal/errors"
	"github.com/systemshift/gitlet/internal/fuse"
	"github.com/systemshift/gitlet/internal/repo"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: MsgInitShort,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Init(a.workDir, repo.Options{
				DefaultBranch:  a.cfg.Core.DefaultBranch,
				InitialMessage: a.cfg.Core.InitialMessage,
			})
			if err != nil {
				return err
			}
			return r.Close()
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: MsgAddShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.Add(args[0])
		},
	}
}

func newCommitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commit <message>",
		Short: MsgCommitShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			id, err := r.Commit(args[0], a.now())
			if err != nil {
				return err
			}
			log.Info().Str("commit", id).Msg("Committed")
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>",
		Short: MsgRmShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.Remove(args[0])
		},
	}
}

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: MsgLogShort,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			entries, err := r.Log()
			if err != nil {
				return err
			}
			for entry, err := range entries {
				if err != nil {
					return gerrors.Wrap(err, gerrors.ErrInternal, "read history")
				}
				formatLogEntry(out(cmd), entry)
			}
			return nil
		},
	}
}

func newGlobalLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "global-log",
		Short: MsgGlobalLogShort,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			for entry, err := range r.GlobalLog() {
				if err != nil {
					return gerrors.Wrap(err, gerrors.ErrInternal, "read commits")
				}
				formatLogEntry(out(cmd), entry)
			}
			return nil
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <message>",
		Short: MsgFindShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			ids, err := r.Find(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out(cmd), id)
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: MsgStatusShort,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			report, err := r.Status()
			if err != nil {
				return err
			}
			formatStatus(out(cmd), report)
			return nil
		},
	}
}

// checkoutArgs splits the three checkout forms. commit and file are empty
// when the form does not use them.
func checkoutArgs(cmd *cobra.Command, args []string) (branch, commit, file string, err error) {
	switch dash := cmd.ArgsLenAtDash(); {
	case dash == -1 && len(args) == 1:
		return args[0], "", "", nil
	case dash == 0 && len(args) == 1:
		return "", "", args[0], nil
	case dash == 1 && len(args) == 2:
		return "", args[0], args[1], nil
	default:
		return "", "", "", gerrors.New(gerrors.ErrUsage, MsgIncorrectOperands)
	}
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "checkout [<branch> | -- <file> | <commit id> -- <file>]",
		Short:   MsgCheckoutShort,
		Example: MsgCheckoutExample,
		Args: func(cmd *cobra.Command, args []string) error {
			_, _, _, err := checkoutArgs(cmd, args)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, commit, file, _ := checkoutArgs(cmd, args)
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			if file != "" {
				return r.CheckoutFile(commit, file)
			}
			return r.CheckoutBranch(branch)
		},
	}
}

func newBranchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branch <name>",
		Short: MsgBranchShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.CreateBranch(args[0])
		},
	}
}

func newRmBranchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-branch <name>",
		Short: MsgRmBranchShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.RemoveBranch(args[0])
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <commit id>",
		Short: MsgResetShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.Reset(args[0])
		},
	}
}

func newMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: MsgMergeShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			defer r.Close()
			res, err := r.Merge(args[0], a.now())
			if err != nil {
				return err
			}
			switch {
			case res.Outcome == repo.MergeAlreadyAncestor:
				fmt.Fprintln(out(cmd), MsgMergeAncestor)
			case res.Outcome == repo.MergeFastForwarded:
				fmt.Fprintln(out(cmd), MsgMergeFastForward)
			case res.Conflicted():
				fmt.Fprintln(out(cmd), MsgMergeConflict)
			}
			return nil
		},
	}
}

func newMountCmd(a *app) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "mount <dir>",
		Short: MsgMountShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mountpoint := args[0]
			r, err := repo.OpenReadOnly(a.workDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(mountpoint, 0755); err != nil {
				return gerrors.Wrap(err, gerrors.ErrInternal, "create mountpoint")
			}

			log.Info().Str("mountpoint", mountpoint).Msg("Mounting repository")
			server, err := fuse.MountFS(mountpoint, r, debug || a.cfg.Mount.Debug)
			if err != nil {
				return gerrors.Wrap(err, gerrors.ErrInternal, "mount failed")
			}

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-done
				log.Info().Msg("Unmounting")
				server.Unmount()
			}()

			fmt.Fprintf(out(cmd), MsgMounted, mountpoint)
			server.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Log every FUSE request")
	return cmd
}
