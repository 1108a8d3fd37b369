package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/spf13/cobra"
)

var errNoAdmin = errors.New("no active admin user; run bootstrap first")

func newResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Retry every candidate whose latest spreadsheet sync failed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := wire(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer d.Close()

			admin, err := firstAdmin(ctx, d)
			if err != nil {
				return err
			}
			actor := authz.FromUser(admin)
			rep, err := d.svc.ResyncFailed(ctx, &actor)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "resync finished",
				logger.Int("attempted", rep.Attempted),
				logger.Int("succeeded", rep.Succeeded),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "attempted %d, succeeded %d\n", rep.Attempted, rep.Succeeded)
			return nil
		},
	}
}

func newBootstrapCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first admin user and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := wire(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer d.Close()

			u, err := d.svc.Bootstrap(ctx, name, email)
			if err != nil {
				return err
			}
			return printToken(cmd, d, u)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "admin display name")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := wire(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer d.Close()

			u, err := d.store.Users.FindByID(ctx, userID)
			if err != nil {
				return err
			}
			if !u.Active {
				return fmt.Errorf("user %s is inactive", u.ID)
			}
			return printToken(cmd, d, u)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printToken(cmd *cobra.Command, d *deps, u model.User) error {
	token, claims, err := d.maker.CreateToken(u, d.cfg.JWTTTL)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "user:    %s (%s)\n", u.ID, u.Role)
	fmt.Fprintf(out, "expires: %s\n", claims.ExpiresAt.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "token:   %s\n", token)
	return nil
}

func firstAdmin(ctx context.Context, d *deps) (model.User, error) {
	users, err := d.store.Users.List(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Role == model.RoleAdmin && u.Active {
			return u, nil
		}
	}
	return model.User{}, errNoAdmin
}
