package cmd

import (
	"fmt"
	"io"

	"krib-booking/pkg/database"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

// Migrate runs `migrate up|down|status` against the configured database
func Migrate(out io.Writer, config utils.DatabaseConfig, args []string, log *zap.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: migrate up|down|status")
	}

	migrator, err := database.NewMigrator(config, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch args[0] {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "status":
		status, err := migrator.Status()
		if err != nil {
			return err
		}
		printStatus(out, status)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
}

func printStatus(out io.Writer, status database.MigrationStatus) {
	if !status.Applied {
		fmt.Fprintln(out, "no migrations applied")
		return
	}

	fmt.Fprintf(out, "version %d", status.Version)
	if status.Dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)
}
