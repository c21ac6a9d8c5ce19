package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkeye/WatchParty/internal/client"
	"github.com/dkeye/WatchParty/internal/domain"
)

const (
	serverKey       = "server"
	roomKey         = "room"
	passwordKey     = "password"
	nameKey         = "name"
	createKey       = "create"
	authPasswordKey = "auth-password"
	fileKey         = "file"
	readyKey        = "ready"
	logLevelKey     = "log-level"
)

var rootCmd = &cobra.Command{
	Use:   "watchparty-client",
	Short: "Headless WatchParty participant",
	Long: `Joins a WatchParty room and keeps a virtual player in sync with the partner.

Commands on stdin: play, pause, seek <s>, rate <r>, say <text>, load [name],
ready, status, quit.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if lvl, err := zerolog.ParseLevel(viper.GetString(logLevelKey)); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}

		s, err := client.NewSession(client.Options{
			Server:       viper.GetString(serverKey),
			RoomID:       domain.RoomID(viper.GetString(roomKey)),
			Password:     viper.GetString(passwordKey),
			Name:         viper.GetString(nameKey),
			Create:       viper.GetBool(createKey),
			AuthPassword: viper.GetString(authPasswordKey),
			File:         viper.GetString(fileKey),
			Ready:        viper.GetBool(readyKey),
		}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return s.Run(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	f := rootCmd.Flags()
	f.String(serverKey, "http://localhost:8080", "WatchParty server base URL")
	f.String(roomKey, "", "room id")
	f.String(passwordKey, "", "room password")
	f.String(nameKey, "", "display name")
	f.Bool(createKey, false, "create the room (joins if it already exists)")
	f.String(authPasswordKey, "", "log in (or sign up) with this password before joining")
	f.String(fileKey, "", "label of the locally loaded video; marks the file as loaded")
	f.Bool(readyKey, false, "mark ready right after joining")
	f.String(logLevelKey, "warn", "log level")

	_ = viper.BindPFlags(f)
	viper.SetEnvPrefix("watchparty")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
