// capataz is the field device daemon: it keeps the local cache warm,
// watches connectivity, drains the offline mutation queue on reconnect
// and raises reminders shortly before events start. The interactive
// surface (QR scanner UI) talks to this process; everything here works
// with or without a network.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/config"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/engine"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/gateway"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/netmon"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/queue"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/reminder"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/session"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/store"
	applogger "github.com/alarmdryros/cuadrilla-app-sub000/pkg/logger"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("capataz client starting",
		zap.String("server", cfg.Server.BaseURL),
		zap.String("store", cfg.Sync.StorePath),
		zap.String("device_id", cfg.Sync.DeviceID),
	)

	// 3. Open the local durable store
	st, err := store.Open(cfg.Sync.StorePath, logger)
	if err != nil {
		logger.Fatal("open local store failed", zap.Error(err))
	}
	defer st.Close()

	// 4. Sign in and build the relation gateway
	var token atomic.Value
	token.Store("")
	login, err := signIn(cfg.Server.BaseURL)
	if err != nil {
		logger.Warn("sign-in failed, starting offline", zap.Error(err))
	} else {
		token.Store(login.AccessToken)
	}
	gw := gateway.NewClient(cfg.Server.BaseURL, func() string {
		return token.Load().(string)
	}, logger)

	// 5. Mutation queue
	q := queue.NewManager(st, gw, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Connectivity monitor: drain on every reconnect
	prober := netmon.NewHTTPProber(cfg.Sync.ProbeURL, cfg.Sync.ProbeTimeout)
	monitor := netmon.NewMonitor(func() bool { return true }, prober, func() {
		sent, err := q.Drain(ctx)
		if err != nil {
			logger.Warn("drain after reconnect failed, queue retained", zap.Error(err))
			return
		}
		if sent > 0 {
			logger.Info("offline queue drained", zap.Int("sent", sent))
		}
	}, logger)

	// Initial mount: report the pending depth, do not drain.
	if depth, err := q.Depth(ctx); err == nil && depth > 0 {
		logger.Info("pending mutations from a previous session", zap.Int("depth", depth))
	}

	go monitor.Run(ctx, cfg.Sync.ProbeInterval)

	// 7. Reconciliation engine and session
	eng := engine.New(gw, q, monitor, st, logger)

	if login != nil {
		memberID := ""
		if login.User.MemberID != nil {
			memberID = *login.User.MemberID
		}
		sess, err := session.New(cfg.Season.DefaultYear, login.User.Role, login.User.ID, memberID, cfg.Sync.DeviceID)
		if err != nil {
			logger.Fatal("build session failed", zap.Error(err))
		}
		// Warm the event cache so reminders work offline.
		if _, err := eng.Events(ctx, sess); err != nil {
			logger.Warn("event cache warm-up failed", zap.Error(err))
		}
	}

	// 8. Reminder poller over the cached events
	sched := reminder.NewScheduler(st, cfg.Sync.ReminderWindow, func(ev engine.Event) {
		fmt.Printf("Reminder: %s starts at %s (%s)\n",
			ev.Name, ev.StartAt.Local().Format("15:04"), ev.Location)
	}, logger)
	go sched.Run(ctx, cfg.Sync.ReminderInterval)

	// 9. Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	cancel()

	if depth, err := q.Depth(context.Background()); err == nil && depth > 0 {
		logger.Info("stopping with mutations still queued", zap.Int("depth", depth))
	}
	logger.Info("capataz client stopped")
}

// loginResult is the token payload returned by the auth endpoint.
type loginResult struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID       string  `json:"id"`
		Role     string  `json:"role"`
		MemberID *string `json:"member_id"`
	} `json:"user"`
}

// signIn authenticates with credentials from the environment. Missing
// credentials or an unreachable server leave the client in offline
// mode; queued work waits for the next start.
func signIn(baseURL string) (*loginResult, error) {
	email := os.Getenv("CAPATAZ_EMAIL")
	password := os.Getenv("CAPATAZ_PASSWORD")
	if email == "" || password == "" {
		return nil, fmt.Errorf("CAPATAZ_EMAIL and CAPATAZ_PASSWORD are not set")
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    loginResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK || envelope.Code != 0 {
		return nil, fmt.Errorf("login rejected: %s (code %d)", envelope.Message, envelope.Code)
	}
	return &envelope.Data, nil
}
