package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foe05/HGMH-App/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user or update an existing one; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nu.Username == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword("Enter password:")
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if nu.PasswordConfirm, err = cli.promptPassword("Confirm password:"); err != nil {
				return err
			}
			nu.Password = pwd

			ctx := cmd.Context()
			usr, err := cli.addUser(ctx, nu)
			if err != nil {
				return err
			}
			cmd.Printf("User %q (ID %d) saved\n", usr.Username, usr.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&nu.Username, "username", "u", "", "login name")
	flags.StringVarP(&nu.Email, "email", "e", "", "email address")
	flags.StringVarP(&nu.DisplayName, "name", "n", "", "display name")
	flags.StringSliceVarP(&nu.Roles, "role", "r", nil, "roles: administrator, pr25_obmann, jaeger (repeatable)")
	flags.IntSliceVarP(&nu.Jagdgebiete, "jagdgebiete", "j", nil, "IDs of the assigned Jagdgebiete")
	return cmd
}

// addUser creates the user `nu`, or reactivates & updates it when the username is taken.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, nu.Username)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, nu)
	}

	active := true
	uu := user.UpdateUser{IsActive: &active, Password: nu.Password, PasswordConfirm: nu.PasswordConfirm}
	if nu.DisplayName != "" {
		uu.DisplayName = &nu.DisplayName
	}
	if nu.Email != "" {
		uu.Email = &nu.Email
	}
	if len(nu.Roles) > 0 {
		uu.Roles = &nu.Roles
	}
	if len(nu.Jagdgebiete) > 0 {
		uu.Jagdgebiete = &nu.Jagdgebiete
	}
	if err = uu.Validate(ctx, usr, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Update(ctx, usr, uu)
}
