package server

import (
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/raumwerk/raumwerk/pkg/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGracefulServer_SIGHUPKeepsServing(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), logging.NewNopLogger())

	go func() {
		if err := gs.Start(); err != nil {
			t.Logf("server stopped: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("send SIGHUP: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if gs.IsShuttingDown() {
		t.Error("server should not shut down on SIGHUP")
	}

	if err := gs.Shutdown(1 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestGracefulServer_ReloadRules(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), logging.NewNopLogger())

	reloadCalled := false
	gs.SetRuleReloadFunc(func() error {
		reloadCalled = true
		return nil
	})

	if err := gs.ReloadRules(); err != nil {
		t.Errorf("ReloadRules() error = %v", err)
	}
	if !reloadCalled {
		t.Error("reload hook was not called")
	}
}

func TestGracefulServer_ReloadRulesError(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), logging.NewNopLogger())

	gs.SetRuleReloadFunc(func() error {
		return http.ErrServerClosed
	})

	if err := gs.ReloadRules(); err != http.ErrServerClosed {
		t.Errorf("ReloadRules() error = %v, want %v", err, http.ErrServerClosed)
	}
}

func TestGracefulServer_ReloadWithoutHook(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), logging.NewNopLogger())

	if err := gs.ReloadRules(); err != nil {
		t.Errorf("ReloadRules() without hook error = %v", err)
	}
}

func TestGracefulServer_ShutdownIdempotent(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), logging.NewNopLogger())

	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("first Shutdown() error = %v", err)
	}
	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if !gs.IsShuttingDown() {
		t.Error("IsShuttingDown() = false after Shutdown")
	}
}
