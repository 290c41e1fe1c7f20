// Package main provides the entry point for the chatvox CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huskievoice/chatvox/internal/app"
	"github.com/huskievoice/chatvox/internal/chatlog"
	"github.com/huskievoice/chatvox/internal/speech"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	gameName    string
	engineName  string
	voiceName   string
	prefix      string
	privateMode bool
	volume      float64

	rootCmd = &cobra.Command{
		Use:   "chatvox [LOGFILE]",
		Short: "Text-to-speech for in-game chat, with pizzazz!",
		Long: paragraph(
			fmt.Sprintf("\nTail a game's chat log and speak %s commands out loud. Works with Team Fortress 2 console logs and Deep Rock Galactic chat exports.", keyword("!tts")),
		),
		Example:          paragraph("chatvox ~/.steam/steam/steamapps/common/Team\\ Fortress\\ 2/tf/console.log\nchatvox --game drg chatlog.csv\nchatvox --engine sapi --voice \"Microsoft Zira\""),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOptions()
		},
		RunE: execute,
	}
)

func validateOptions() error {
	// grab config values from Viper
	gameName = strings.ToLower(viper.GetString("game"))
	engineName = viper.GetString("engine")
	volume = viper.GetFloat64("volume")
	privateMode = viper.GetBool("private")

	switch gameName {
	case string(chatlog.GameTF2), string(chatlog.GameDRG):
	default:
		return fmt.Errorf("unknown game %q: use %q or %q", gameName, chatlog.GameTF2, chatlog.GameDRG)
	}

	switch engineName {
	case "", "auto", "dectalk", "sapi", "mock":
	default:
		return fmt.Errorf("unknown engine %q: use dectalk, sapi, mock, or auto", engineName)
	}
	if engineName == "auto" {
		engineName = ""
	}

	if volume < 0 || volume > 2 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %.2f", volume)
	}
	return nil
}

// gameKey reads a per-game config value, falling back to the global key.
func gameKey(key string) string {
	if v := viper.GetString("games." + gameName + "." + key); v != "" {
		return v
	}
	return viper.GetString(key)
}

func resolveLogPath(args []string) (string, error) {
	if len(args) == 1 {
		return expandTilde(args[0]), nil
	}
	if p := viper.GetString("games." + gameName + ".log"); p != "" {
		return expandTilde(p), nil
	}
	return "", fmt.Errorf("no chat log for %s: pass LOGFILE or set games.%s.log in the config", gameName, gameName)
}

func announcerConfig() speech.AnnouncerConfig {
	cfg := speech.AnnouncerConfig{
		Voice:     viper.GetString("announcements.voice"),
		Templates: map[speech.Announcement]string{},
	}
	for kind, text := range viper.GetStringMapString("announcements.templates") {
		cfg.Templates[speech.Announcement(kind)] = text
	}
	for _, kind := range viper.GetStringSlice("announcements.disabled") {
		cfg.Disabled = append(cfg.Disabled, speech.Announcement(kind))
	}
	return cfg
}

func execute(cmd *cobra.Command, args []string) error {
	logPath, err := resolveLogPath(args)
	if err != nil {
		return err
	}

	scope := gap.NewScope(gap.User, "chatvox")
	prefsPath, err := scope.DataPath("voices.yml")
	if err != nil {
		return fmt.Errorf("unable to find data directory: %w", err)
	}

	commandPrefix := gameKey("prefix")
	if cmd.Flags().Changed("prefix") {
		commandPrefix = viper.GetString("prefix")
	}
	admins := viper.GetStringSlice("admins")
	admins = append(admins, viper.GetStringSlice("games."+gameName+".admins")...)

	cfg := app.Config{
		Game:    chatlog.Game(gameName),
		LogPath: logPath,

		Prefix:        commandPrefix,
		ToggleTrigger: viper.GetString("voice.toggle_trigger"),
		PrivateMode:   privateMode,

		Admins:            admins,
		AutoBlock:         viper.GetBool("autoblock.enabled"),
		AutoBlockKeywords: viper.GetStringSlice("autoblock.keywords"),

		Engine:       engineName,
		DECtalkPath:  expandTilde(viper.GetString("dectalk.path")),
		DefaultVoice: viper.GetString("voice.default"),
		Volume:       volume,

		VoiceCommands:    viper.GetStringMapString("voice.commands"),
		RandomEnabled:    viper.GetBool("voice.random.enabled"),
		RandomExclusions: viper.GetStringSlice("voice.random.exclusions"),
		PrefsPath:        prefsPath,

		Announcements: announcerConfig(),

		CacheSize: viper.GetInt64("cache.max_size") << 20,
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// expandTilde resolves a leading ~ against the user's home directory.
func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&gameName, "game", "g", "tf2", "game to monitor (tf2 or drg)")
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", "speech engine (dectalk, sapi, mock, or auto)")
	rootCmd.Flags().StringVar(&voiceName, "voice", "", "default voice when a message names none")
	rootCmd.Flags().StringVarP(&prefix, "prefix", "p", "", "chat trigger prefix (default \"!tts\")")
	rootCmd.Flags().BoolVar(&privateMode, "private", false, "only speak messages from admins")
	rootCmd.Flags().Float64Var(&volume, "volume", 1.0, "playback volume (0.0 to 2.0)")

	// Config bindings
	_ = viper.BindPFlag("game", rootCmd.Flags().Lookup("game"))
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("voice.default", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("prefix", rootCmd.Flags().Lookup("prefix"))
	_ = viper.BindPFlag("private", rootCmd.Flags().Lookup("private"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))

	viper.SetDefault("game", "tf2")
	viper.SetDefault("engine", "")
	viper.SetDefault("prefix", "!tts")
	viper.SetDefault("private", false)
	viper.SetDefault("volume", 1.0)
	viper.SetDefault("admins", []string{})
	viper.SetDefault("autoblock.enabled", true)
	viper.SetDefault("autoblock.keywords", []string{})
	viper.SetDefault("voice.default", "")
	viper.SetDefault("voice.toggle_trigger", "/vt")
	viper.SetDefault("voice.random.enabled", true)
	viper.SetDefault("voice.random.exclusions", []string{})
	viper.SetDefault("announcements.voice", "")
	viper.SetDefault("dectalk.path", "")
	viper.SetDefault("cache.max_size", 16)

	rootCmd.AddCommand(configCmd, gamecfgCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "chatvox")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "chatvox")}, dirs...)
	}

	if c := os.Getenv("CHATVOX_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("chatvox")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("chatvox")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "chatvox.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
