package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racepace/pkg/processing/normalize"
)

func setDefaults(t *testing.T) {
	t.Helper()
	SourceBaseURL = "https://resources.motogp.com/files/results"
	FetchTimeout = "10s"
	CacheExpiration = "1h"
	Matcher = "substring"
	MaxDistance = 2
	Workers = 0
	LayoutFile = ""
}

func TestResolve(t *testing.T) {
	setDefaults(t)
	cfg, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Hour, cfg.CacheExpiration)
	assert.Equal(t, normalize.DefaultLayout, cfg.Layout)
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func()
	}{
		{name: "bad duration", modify: func() { FetchTimeout = "soon" }},
		{name: "zero timeout", modify: func() { FetchTimeout = "0s" }},
		{name: "bad url", modify: func() { SourceBaseURL = "not a url" }},
		{name: "unknown matcher", modify: func() { Matcher = "magic" }},
		{name: "negative workers", modify: func() { Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDefaults(t)
			tt.modify()
			_, err := Resolve()
			assert.Error(t, err)
		})
	}
}

func TestLoadLayout(t *testing.T) {
	file := filepath.Join(t.TempDir(), "layout.yml")
	require.NoError(t, os.WriteFile(file, []byte("firstPageHeadLines: 9\notherPageTailLines: 6\n"), 0o600))

	l, err := LoadLayout(file)
	require.NoError(t, err)
	want := normalize.DefaultLayout
	want.FirstPageHeadLines = 9
	want.OtherPageTailLines = 6
	assert.Equal(t, want, l)
}

func TestLayoutValidation(t *testing.T) {
	setDefaults(t)
	file := filepath.Join(t.TempDir(), "layout.yml")
	require.NoError(t, os.WriteFile(file, []byte("firstPageHeadLines: 30\n"), 0o600))
	LayoutFile = file
	defer func() { LayoutFile = "" }()
	_, err := Resolve()
	assert.Error(t, err)
}
