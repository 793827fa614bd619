// Package main runs the voice session daemon: microphone capture with
// silence-based turn taking, transcription, a streamed agent reply, and
// spoken playback, with the transcript persisted locally and remotely.
//
// Usage:
//
//	go run ./cmd/janad
//
// Controls:
//
//	l               - Start listening
//	s               - Stop listening now
//	i               - Interrupt (stop everything, back to idle)
//	/t <text>       - Send a typed message
//	/speaker <name> - Change the voice
//	/new            - Start a fresh transcript
//	/history        - List saved transcripts
//	/login <email> <password> - Sign in
//	/logout         - Sign out
//	q               - Quit
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/janahq/jana-core/internal/config"
	"github.com/janahq/jana-core/pkg/auth"
	"github.com/janahq/jana-core/pkg/core/agent"
	"github.com/janahq/jana-core/pkg/core/audio"
	"github.com/janahq/jana-core/pkg/core/session"
	"github.com/janahq/jana-core/pkg/core/speech"
	"github.com/janahq/jana-core/pkg/core/types"
	"github.com/janahq/jana-core/pkg/store/docstore"
	"github.com/janahq/jana-core/pkg/store/kv"
	"github.com/janahq/jana-core/pkg/switchmon"
	"github.com/janahq/jana-core/pkg/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.SlogLevel())
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	kvStore, err := kv.Open(cfg.KVPath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer kvStore.Close()

	var remote transcript.Remote
	var ds *docstore.Store
	if cfg.DatabaseURL != "" {
		ds, err = docstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open document store: %v", err)
		}
		defer ds.Close()
		remote = ds
	} else {
		logger.Warn("no database configured, transcripts stay local")
	}

	authMgr := auth.NewManager(kvStore, logger)
	if err := authMgr.Restore(); err != nil {
		logger.Warn("restore session context failed", "error", err)
	}

	var authn *auth.Authenticator
	if cfg.WorkOSAPIKey != "" {
		authn = auth.NewAuthenticator(cfg.WorkOSAPIKey, cfg.WorkOSClientID, authMgr)
	}

	transcripts := transcript.NewStore(kvStore, remote, authMgr.Current().UserID, logger)
	if err := transcripts.Restore(); err != nil {
		logger.Warn("restore transcript failed", "error", err)
	}

	sessCfg := session.DefaultConfig()
	sessCfg.Speaker = cfg.Speaker
	sessCfg.AutoRestart = cfg.AutoRestart
	sessCfg.Messages = transcripts.Messages()

	relay := agent.NewRelay(cfg.AgentURL)
	relay.SetAssemblyMode(agent.AssemblyMode(cfg.AgentAssemblyMode))

	sess := session.New(
		sessCfg,
		audio.NewMicRecorder(audio.DefaultConfig()),
		audio.NewSpeakerPlayer(),
		speech.NewTranscribeClient(cfg.TranscribeURL),
		relay,
		speech.NewSynthesizeClient(cfg.TTSURL),
		logger,
	)
	// Persistence rides the synchronous handler; the events channel is
	// lossy and only feeds display.
	sess.SetMessageHandler(func(msg types.ChatMessage) {
		if msg.Sender == types.SenderUser {
			if err := transcripts.CreateIfNeeded(ctx, msg.Content); err != nil {
				logger.Warn("create transcript failed", "error", err)
			}
		}
		if err := transcripts.Append(msg); err != nil {
			logger.Warn("persist message failed", "error", err)
		}
	})

	if err := sess.Start(ctx); err != nil {
		log.Fatalf("start session: %v", err)
	}
	defer sess.Close()

	go handleEvents(sess)

	startSwitchMonitor(ctx, cfg, kvStore, logger)

	fmt.Println("jana ready. Commands: l, s, i, /t <text>, /speaker <name>, /new, /history, q")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "q":
			return
		case input == "l":
			if err := sess.StartListening(); err != nil {
				fmt.Printf("[ERROR] %v\n", err)
			}
		case input == "s":
			if err := sess.StopListening(); err != nil {
				fmt.Printf("[ERROR] %v\n", err)
			}
		case input == "i":
			sess.Interrupt()
		case input == "/new":
			if err := transcripts.Clear(); err != nil {
				fmt.Printf("[ERROR] %v\n", err)
			} else {
				fmt.Println("[INFO] started a fresh transcript")
			}
		case strings.HasPrefix(input, "/t "):
			text := strings.TrimPrefix(input, "/t ")
			if err := sess.SendText(text); err != nil {
				fmt.Printf("[ERROR] %v\n", err)
			}
		case strings.HasPrefix(input, "/speaker "):
			sess.SetSpeaker(strings.TrimSpace(strings.TrimPrefix(input, "/speaker ")))
		case strings.HasPrefix(input, "/login "):
			fields := strings.Fields(input)
			if authn == nil {
				fmt.Println("[ERROR] identity service not configured")
				continue
			}
			if len(fields) != 3 {
				fmt.Println("[INFO] usage: /login <email> <password>")
				continue
			}
			sctx, err := authn.Login(ctx, fields[1], fields[2])
			if err != nil {
				fmt.Printf("[ERROR] login failed: %v\n", err)
			} else {
				fmt.Printf("[INFO] signed in as %s (%s)\n", sctx.Email, sctx.Role)
			}
		case input == "/logout":
			if authn != nil {
				authn.Logout()
				fmt.Println("[INFO] signed out")
			}
		case input == "/history":
			printHistory(ctx, ds, authMgr.Current().UserID)
		default:
			fmt.Println("[INFO] Commands: l, s, i, /t <text>, /speaker <name>, /new, /history, q")
		}
	}
}

// printHistory lists the user's saved transcripts grouped by day.
func printHistory(ctx context.Context, ds *docstore.Store, userID string) {
	if ds == nil {
		fmt.Println("[ERROR] no document store configured")
		return
	}

	transcripts, _, err := ds.List(ctx, userID, "")
	if err != nil {
		fmt.Printf("[ERROR] list transcripts: %v\n", err)
		return
	}

	groups := transcript.Group(transcripts, time.Now())
	for _, label := range transcript.GroupOrder {
		bucket, ok := groups[label]
		if !ok {
			continue
		}
		fmt.Printf("%s:\n", label)
		for _, t := range bucket {
			fmt.Printf("  %s  %s\n", t.ID, t.Title)
		}
	}
}

// handleEvents prints session progress.
func handleEvents(sess *session.Session) {
	for event := range sess.Events() {
		switch e := event.(type) {
		case *session.StateChangedEvent:
			fmt.Printf("[STATE] %s -> %s\n", e.From, e.To)
		case *session.TranscriptReadyEvent:
			fmt.Printf("[YOU] %s\n", e.Text)
		case *session.EmptyTranscriptEvent:
			fmt.Println("[INFO] heard nothing, back to idle")
		case *session.AgentDoneEvent:
			fmt.Printf("[JANA] %s\n", e.Text)
		case *session.ErrorEvent:
			fmt.Printf("[ERROR] %s: %s\n", e.Code, e.Message)
		}
	}
}

// startSwitchMonitor begins port polling and the notification feed when
// a device is selected. Monitoring is optional; the voice session works
// without it.
func startSwitchMonitor(ctx context.Context, cfg *config.Config, kvStore kv.Store, logger *slog.Logger) {
	device, err := switchmon.LoadSelectedDevice(kvStore)
	if err != nil {
		logger.Warn("load selected device failed", "error", err)
		return
	}
	if device == nil {
		return
	}

	client, err := switchmon.NewClient(device.IP, switchmon.ClientConfig{InsecureTLS: cfg.SwitchInsecureTLS})
	if err != nil {
		logger.Warn("switch client failed", "error", err)
		return
	}
	if err := client.Login(ctx, device.Username, device.Password); err != nil {
		logger.Warn("switch login failed", "device", device.Name, "error", err)
		return
	}

	poller := switchmon.NewPoller(client, switchmon.DefaultPollerConfig(), logger, nil)
	if err := poller.Start(ctx); err != nil {
		logger.Warn("start port poller failed", "error", err)
		return
	}

	sub := switchmon.NewNotificationSubscriber(device.IP, "", cfg.SwitchInsecureTLS, logger, func(n switchmon.Notification) {
		logger.Info("switch notification", "resource", n.Resource)
	})
	go func() {
		if err := sub.Listen(ctx); err != nil {
			logger.Warn("notification feed ended", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		poller.Stop()
		sub.Close()
		if err := client.Logout(context.Background()); err != nil {
			logger.Warn("switch logout failed", "error", err)
		}
	}()
}
