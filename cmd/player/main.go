// Package main provides the player CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/session"
	"github.com/osa030/19player/internal/infra/api"
	"github.com/osa030/19player/internal/infra/audio"
	"github.com/osa030/19player/internal/infra/config"
	"github.com/osa030/19player/internal/infra/logger"
	"github.com/osa030/19player/internal/infra/tokenstore"
)

var (
	app        = kingpin.New("19player", "19player headless music client")
	configPath = app.Flag("config", "Path to config file (default: built-in defaults)").Envar("PLAYER_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// login command
	loginCmd      = app.Command("login", "Log in and store the tokens")
	loginMemberID = loginCmd.Arg("member-id", "Member ID").Required().String()
	loginPassword = loginCmd.Flag("password", "Password").Envar("PLAYER_PASSWORD").Required().String()

	// logout command
	logoutCmd = app.Command("logout", "Forget the stored tokens")

	// whoami command
	whoamiCmd = app.Command("whoami", "Show the logged-in member")

	// queue command
	queueCmd = app.Command("queue", "Show the current play queue")

	// add command
	addCmd      = app.Command("add", "Append tracks to the queue without playing them")
	addTrackIDs = addCmd.Arg("track-ids", "Track IDs").Required().Strings()
	addPlaylist = addCmd.Flag("playlist", "Look the tracks up in this playlist instead of the chart").String()

	// play command
	playCmd      = app.Command("play", "Play a track, then listen")
	playTrackID  = playCmd.Arg("track-id", "Track ID").Required().String()
	playPlaylist = playCmd.Flag("playlist", "Look the track up in this playlist instead of the chart").String()
	playForceAdd = playCmd.Flag("force-add", "Always append a new entry and play it, even if the track is queued or currently playing (it never toggles)").Bool()

	// play-all command
	playAllCmd      = app.Command("play-all", "Append tracks and play from the first one, then listen")
	playAllTrackIDs = playAllCmd.Arg("track-ids", "Track IDs").Strings()
	playAllChart    = playAllCmd.Flag("chart", "Play the top N chart tracks").Int()
	playAllPlaylist = playAllCmd.Flag("playlist", "Play this playlist (or look track IDs up in it)").String()

	// remove command
	removeCmd      = app.Command("remove", "Remove queue entries")
	removeEntryIDs = removeCmd.Arg("entry-ids", "Queue entry IDs").Required().Strings()

	// clear command
	clearCmd = app.Command("clear", "Remove every queue entry")

	// chart command
	chartCmd   = app.Command("chart", "Show the streaming chart")
	chartLimit = chartCmd.Flag("limit", "Number of tracks").Default("20").Int()

	// search command
	searchCmd   = app.Command("search", "Search the catalog for artists, albums and tracks")
	searchQuery = searchCmd.Arg("query", "Keywords").Required().Strings()

	// playlists command
	playlistsCmd = app.Command("playlists", "List your playlists, or the tracks of one")
	playlistsID  = playlistsCmd.Arg("playlist-id", "Playlist ID").String()

	// listen command
	listenCmd = app.Command("listen", "Interactive playback of the current queue")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override with command-line flags if specified
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logfile != "" {
		cfg.Log.Output = *logfile
	}
	// The listening view owns the terminal, so logs go to a file.
	if isInteractive(command) && *logfile == "" && isTerminalOutput(cfg.Log.Output) {
		cfg.Log.Output = filepath.Join(filepath.Dir(cfg.Auth.TokenFile), "player.log")
	}

	closer, err := logger.Init(logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Run command (defer in run ensures the player and coordinator are closed)
	err = run(command, cfg)
	_ = closer.Close()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components and executes one command.
func run(command string, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := tokenstore.Open(cfg.Auth.TokenFile)
	if err != nil {
		return err
	}

	client := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
	}, tokens)

	player := audio.NewClockPlayer(audio.WithFallbackDuration(cfg.Playback.FallbackDuration()))
	defer player.Close()

	coordinator := playback.NewCoordinator(api.NewQueueGateway(client), player, playback.Config{
		RestartThreshold:  cfg.Playback.RestartThreshold(),
		DoubleClickWindow: cfg.Playback.DoubleClickWindow(),
		InitialVolume:     cfg.Playback.Volume(),
		CompletionTimeout: cfg.Playback.CompletionTimeout(),
	})
	defer coordinator.Close()

	sess := session.NewStore(client, tokens)
	defer sess.Close()
	session.BindCoordinator(sess, coordinator)

	c := &cli{
		ctx:         ctx,
		catalog:     api.NewCatalogClient(client),
		coordinator: coordinator,
		session:     sess,
		tokens:      tokens,
	}

	zlog.Debug().Msgf("Running %s against %s", command, cfg.API.BaseURL)

	// Commands that need no session
	switch command {
	case loginCmd.FullCommand():
		return c.login(*loginMemberID, *loginPassword)
	case logoutCmd.FullCommand():
		return c.logout()
	case chartCmd.FullCommand():
		return c.chart(*chartLimit)
	case searchCmd.FullCommand():
		return c.search(strings.Join(*searchQuery, " "))
	}

	if err := c.restore(); err != nil {
		return err
	}

	switch command {
	case whoamiCmd.FullCommand():
		return c.whoami()
	case queueCmd.FullCommand():
		return c.queue()
	case addCmd.FullCommand():
		return c.add(*addTrackIDs, *addPlaylist)
	case playCmd.FullCommand():
		return c.play(*playTrackID, *playPlaylist, *playForceAdd)
	case playAllCmd.FullCommand():
		return c.playAll(*playAllTrackIDs, *playAllChart, *playAllPlaylist)
	case removeCmd.FullCommand():
		return c.remove(*removeEntryIDs)
	case clearCmd.FullCommand():
		return c.clear()
	case playlistsCmd.FullCommand():
		return c.playlists(*playlistsID)
	case listenCmd.FullCommand():
		return c.listen()
	}
	return nil
}

func isInteractive(command string) bool {
	switch command {
	case playCmd.FullCommand(), playAllCmd.FullCommand(), listenCmd.FullCommand():
		return true
	default:
		return false
	}
}

func isTerminalOutput(output string) bool {
	return output == "" || output == "stderr" || output == "stdout"
}
