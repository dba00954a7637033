package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/notes-api/internal/config"
	"example.com/notes-api/internal/notes"
)

func TestBuild_SeedsAndServes(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
- id: extra-1
  title: From file
  content: Loaded at startup
  tags: [seed]
`), 0o600))

	cfg := config.Defaults(config.Test)
	cfg.SeedFile = seedPath

	a, err := build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(a.close)
	require.Equal(t, len(notes.DemoNotes())+1, a.store.Len())

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/notes/extra-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "From file", body.Data.Title)
}

func TestBuild_BadSeedFile(t *testing.T) {
	cfg := config.Defaults(config.Test)
	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := build(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := config.Defaults(config.Test)
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, "", zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_VERSION", "2.3.4")

	out := bytes.NewBuffer(nil)
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"version", "--env-file", ""})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	require.Equal(t, "notes-api version 2.3.4 (test)\n", out.String())
}

func TestVersionCommand_InvalidConfig(t *testing.T) {
	t.Setenv("APP_ENV", "staging")

	rootCmd.SetOut(bytes.NewBuffer(nil))
	rootCmd.SetErr(bytes.NewBuffer(nil))
	rootCmd.SetArgs([]string{"version", "--env-file", ""})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.ErrorContains(t, rootCmd.Execute(), "environment")
}
