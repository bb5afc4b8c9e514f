// Command authcli is a thin client for the auth service. It keeps one
// session per invocation directory: login verifies a PIN and persists the
// returned pair, watch holds the session open with proactive refresh, logout
// revokes it server-side and wipes the local blob.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/session"
	"github.com/gidipin/authcore/internal/util"
)

func main() {
	logger := util.NewZapLogger()

	baseURL := os.Getenv("AUTH_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	cfg := util.NewSessionManagerConfig()
	store := session.NewFileStore(cfg.StorePath)
	refresher := session.NewHTTPRefresher(baseURL)
	manager := session.NewManager(store, refresher, clockwork.NewRealClock(), logger, cfg.RefreshBuffer)

	if err := manager.Init(); err != nil {
		logger.Fatalf("init session: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "login":
		if len(os.Args) != 4 {
			usage()
		}
		login(logger, manager, baseURL, os.Args[2], os.Args[3])
	case "status":
		status(manager)
	case "refresh":
		if err := manager.Refresh(context.Background()); err != nil {
			logger.Fatalf("refresh: %v", err)
		}
		status(manager)
	case "watch":
		watch(logger, manager)
	case "logout":
		logout(logger, manager, baseURL)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: authcli login <user_id> <pin> | status | refresh | watch | logout")
	os.Exit(2)
}

func login(logger *zap.SugaredLogger, manager *session.Manager, baseURL, userID, pin string) {
	body, err := json.Marshal(models.PinVerifyRequest{UserID: userID, Pin: pin})
	if err != nil {
		logger.Fatalf("marshal login request: %v", err)
	}

	resp, err := http.Post(baseURL+"/api/auth/pin/verify", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Reason           string `json:"reason"`
			ErrorCode        string `json:"error_code"`
			RemainingSeconds int    `json:"remainingSeconds"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.RemainingSeconds > 0 {
			logger.Fatalf("login rejected: %s (retry in %ds)", failure.Reason, failure.RemainingSeconds)
		}
		logger.Fatalf("login rejected: %s", failure.Reason)
	}

	var pair models.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		logger.Fatalf("decode login response: %v", err)
	}
	if err := manager.SetSession(pair.AccessToken, pair.RefreshToken); err != nil {
		logger.Fatalf("adopt session: %v", err)
	}

	logger.Infow("logged in", "user_id", pair.UserID, "expires_at", pair.ExpiresAt)
}

func status(manager *session.Manager) {
	if userID, ok := manager.UserID(); ok && manager.IsAuthenticated() {
		fmt.Printf("authenticated as %s\n", userID)
		return
	}
	fmt.Println("not authenticated")
}

// watch keeps the process alive so the manager's refresh schedule runs,
// exiting when the session ends or on SIGINT.
func watch(logger *zap.SugaredLogger, manager *session.Manager) {
	if !manager.IsAuthenticated() {
		logger.Fatal("no active session; run login first")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case ev := <-manager.Expired():
		logger.Warnw("session ended", "reason", ev.Reason)
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("stopped watching; session left intact")
	}
}

func logout(logger *zap.SugaredLogger, manager *session.Manager, baseURL string) {
	refreshToken, ok := manager.RefreshToken()
	if ok {
		body, err := json.Marshal(models.LogoutRequest{RefreshToken: refreshToken})
		if err != nil {
			logger.Fatalf("marshal logout request: %v", err)
		}
		resp, err := http.Post(baseURL+"/api/auth/logout", "application/json", bytes.NewReader(body))
		if err != nil {
			logger.Warnw("server-side revoke failed, clearing locally", "error", err)
		} else {
			resp.Body.Close()
		}
	}

	manager.ClearSession()
	logger.Info("logged out")
}
