package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/rollbook/internal/app/engine"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

// PasswordEnv holds the staff password when acting with --as-email.
const PasswordEnv = "ROLLBOOK_PASSWORD"

var errHelp = errors.New("help provided")

type commandLine struct {
	eng    *engine.Engine
	out    io.Writer
	getenv func(string) string // mockable
}

func newCommandLine(eng *engine.Engine, out io.Writer) *commandLine {
	return &commandLine{eng: eng, out: out, getenv: os.Getenv}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  import  -kind grade|attendance|participation|roster -file PATH [-category C] [-date YYYY-MM-DD]")
	fmt.Fprintln(cli.out, "  permit  -account ACCOUNT -role student|group_leader|teacher [-attendance] [-grades]")
	fmt.Fprintln(cli.out, "  summary -account ACCOUNT")
	fmt.Fprintln(cli.out, "  stats   [-from YYYY-MM-DD] [-to YYYY-MM-DD]")
	fmt.Fprintln(cli.out, "  roster  [-group GROUP]")
	fmt.Fprintln(cli.out, "Every command acts as -as-account ACCOUNT or -as-email EMAIL (password in "+PasswordEnv+").")
}

// actor holds the identity flags every subcommand shares.
type actor struct {
	account *string
	email   *string
}

func actorFlags(fs *flag.FlagSet) actor {
	return actor{
		account: fs.String("as-account", "", "Act as this roster account"),
		email:   fs.String("as-email", "", "Act as this staff email; password is read from "+PasswordEnv),
	}
}

// subject resolves the acting identity through the normal login paths.
func (cli *commandLine) subject(ctx context.Context, a actor) (models.Subject, error) {
	switch {
	case *a.email != "":
		return cli.eng.Identity.Resolve(ctx, identity.PasswordCredential{Email: *a.email, Password: cli.getenv(PasswordEnv)})
	case *a.account != "":
		return cli.eng.Identity.Resolve(ctx, identity.AccountCredential{Account: *a.account})
	}
	return models.Subject{}, errors.New("one of -as-account or -as-email is required")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importAs := actorFlags(importCmd)
	importKind := importCmd.String("kind", "", "What the file holds: grade, attendance, participation or roster")
	importFile := importCmd.String("file", "", "CSV or XLSX file with a header row")
	importCategory := importCmd.String("category", "", "Grade category for -kind grade")
	importDate := importCmd.String("date", "", "Session date for attendance and participation")

	permitCmd := flag.NewFlagSet("permit", flag.ContinueOnError)
	permitAs := actorFlags(permitCmd)
	permitAccount := permitCmd.String("account", "", "Account or email to grant")
	permitRole := permitCmd.String("role", "", "student, group_leader or teacher")
	permitAttendance := permitCmd.Bool("attendance", false, "Group leaders: may mark attendance")
	permitGrades := permitCmd.Bool("grades", false, "Group leaders: may edit grades")

	summaryCmd := flag.NewFlagSet("summary", flag.ContinueOnError)
	summaryAs := actorFlags(summaryCmd)
	summaryAccount := summaryCmd.String("account", "", "Student account")

	statsCmd := flag.NewFlagSet("stats", flag.ContinueOnError)
	statsAs := actorFlags(statsCmd)
	statsFrom := statsCmd.String("from", "", "First day, inclusive")
	statsTo := statsCmd.String("to", "", "Last day, inclusive")

	rosterCmd := flag.NewFlagSet("roster", flag.ContinueOnError)
	rosterAs := actorFlags(rosterCmd)
	rosterGroup := rosterCmd.String("group", "", "Only this group")

	for _, fs := range []*flag.FlagSet{importCmd, permitCmd, summaryCmd, statsCmd, rosterCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importKind == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		sub, err := cli.subject(ctx, importAs)
		if err != nil {
			return err
		}
		return cli.importFile(ctx, sub, *importKind, *importFile, *importCategory, *importDate)

	case "permit":
		if err := permitCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *permitAccount == "" || *permitRole == "" {
			permitCmd.Usage()
			return errHelp
		}
		sub, err := cli.subject(ctx, permitAs)
		if err != nil {
			return err
		}
		return cli.permit(ctx, sub, *permitAccount, models.Role(strings.ToLower(*permitRole)), *permitAttendance, *permitGrades)

	case "summary":
		if err := summaryCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *summaryAccount == "" {
			summaryCmd.Usage()
			return errHelp
		}
		sub, err := cli.subject(ctx, summaryAs)
		if err != nil {
			return err
		}
		return cli.summary(ctx, sub, *summaryAccount)

	case "stats":
		if err := statsCmd.Parse(args[2:]); err != nil {
			return err
		}
		sub, err := cli.subject(ctx, statsAs)
		if err != nil {
			return err
		}
		return cli.stats(ctx, sub, models.DateRange{From: *statsFrom, To: *statsTo})

	case "roster":
		if err := rosterCmd.Parse(args[2:]); err != nil {
			return err
		}
		sub, err := cli.subject(ctx, rosterAs)
		if err != nil {
			return err
		}
		return cli.roster(ctx, sub, *rosterGroup)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) printJSON(v any) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
