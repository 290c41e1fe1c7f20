package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed assets/autoexec.cfg
var autoexecCfg []byte

var gamecfgCmd = &cobra.Command{
	Use:   "gamecfg [CFG-DIR]",
	Short: "Install the game config snippet that enables chat logging",
	Long: paragraph(fmt.Sprintf(
		"\nWrite the %s snippet that makes the game log chat to a console file. Pass the game's cfg directory (for Team Fortress 2 that is tf/cfg) to install it as chatvox.cfg, or pass nothing to print it.",
		keyword("con_logfile"))),
	Example: paragraph("chatvox gamecfg\nchatvox gamecfg \"~/.steam/steam/steamapps/common/Team Fortress 2/tf/cfg\""),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Print(string(autoexecCfg))
			return nil
		}

		dir := expandTilde(args[0])
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}

		dst := filepath.Join(dir, "chatvox.cfg")
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("%s already exists, remove it first to reinstall", dst)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to stat %s: %w", dst, err)
		}

		if err := os.WriteFile(dst, autoexecCfg, 0o644); err != nil {
			return fmt.Errorf("unable to write game config: %w", err)
		}

		fmt.Println("Wrote game config to:", dst)
		fmt.Println("Add \"exec chatvox\" to your autoexec.cfg so it loads on launch.")
		return nil
	},
}
