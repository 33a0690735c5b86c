package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/stammdaten"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	usrSvc     *user.Service
	stammSvc   *stammdaten.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "HGAM administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(cli.migrateCmd(), cli.seedCmd(), cli.addUserCmd(), cli.resetPasswordCmd())
	return root
}

// run executes the command line `args`, program name included.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) < 2 {
		_ = root.Usage()
		return errHelp
	}
	root.SetArgs(args[1:])
	return root.Execute()
}

func (cli *commandLine) promptPassword(label string) (string, error) {
	_, _ = fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", pkgerrors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// describe renders validation errors as one "field: message" line per field.
func (cli *commandLine) describe(err error) string {
	var lines []string
	switch e := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		for field, msg := range e.Translate(cli.translator) {
			lines = append(lines, field[strings.IndexByte(field, '.')+1:]+": "+msg)
		}
	case *core.ValidationError:
		for _, f := range e.Fields {
			lines = append(lines, f.Field+": "+f.Error)
		}
	}
	if len(lines) == 0 {
		return err.Error()
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
