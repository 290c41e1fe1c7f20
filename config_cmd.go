package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# game to monitor: tf2 or drg
game: "tf2"
# chat trigger prefix
prefix: "!tts"
# only speak messages from admins
private: false
# playback volume (0.0 to 2.0)
volume: 1.0
# usernames that may run admin commands from chat
admins: []

# Per-game settings. "log" is the chat log chatvox tails; leave it empty
# and pass the path on the command line instead.
games:
  tf2:
    log: ""
    # prefix: "!tts"
    # admins: []
  drg:
    log: ""

# Speech engine: dectalk, sapi, mock, or auto. Auto prefers DECtalk and
# falls back to the system speech API.
engine: "auto"

dectalk:
  # path to the DECtalk "say" binary, if it is not on PATH
  path: ""

voice:
  # voice spoken when a message names none and the user has no preference
  default: ""
  # chat command that saves a user's preferred voice
  toggle_trigger: "/vt"
  # extra chat triggers mapped to installed voices
  commands: {}
  #   whisper: "[DECtalk] Whispering Wendy"
  #   zira: "[SAPI] Microsoft Zira Desktop"
  random:
    # hand first-time speakers a random voice instead of the default
    enabled: true
    # voices never handed out randomly
    exclusions: []

autoblock:
  # block users whose messages contain a listed keyword
  enabled: true
  keywords: []

announcements:
  # voice for moderation announcements (empty uses the default voice)
  voice: ""
  # events to keep silent: admin_add, block_add, block_remove,
  # autoblock, stopped
  disabled: []
  # spoken suffix per event, prefixed with the username
  templates: {}
  #   block_add: "blocked, you abused it so you losed it"

cache:
  # synthesized audio cache, in megabytes (0 disables)
  max_size: 16
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the chatvox config file",
	Long:    paragraph(fmt.Sprintf("\n%s the chatvox config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("chatvox config\nchatvox config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Chatvox", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
