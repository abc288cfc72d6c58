package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/matzehuels/modelir/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)

	c.Config.Cache.Dir = "/tmp/modelir-cache"
	if dir, err := c.cacheDir(); err != nil || dir != "/tmp/modelir-cache" {
		t.Errorf("cacheDir() = %q, %v, want configured dir", dir, err)
	}

	c.Config.Cache.Dir = ""
	want, err := cache.DefaultDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	if dir, _ := c.cacheDir(); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "result:abc", []byte("{}"), time.Hour); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	cfg := writeConfig(t, "[cache]\ndir = \""+dir+"\"\n")
	root.SetArgs([]string{"--config", cfg, "cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, hit, _ := fc.Get(ctx, "result:abc"); hit {
		t.Error("entry survived cache clear")
	}
}
