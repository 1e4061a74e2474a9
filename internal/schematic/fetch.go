package schematic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

// Fetch downloads a schematic pack from src into the directory dst. src is
// any go-getter address, for example "git::https://host/repo.git//schematics"
// or an https URL of an archive. dst itself must not exist yet or must be
// left over from an earlier fetch of the same source.
func Fetch(ctx context.Context, src, dst string) error {
	if src == "" {
		return fmt.Errorf("schematic fetch: empty source")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create schematics directory: %w", err)
	}

	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("schematic fetch: %w", err)
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}

	logger.Info("Downloading schematics", "src", src, "dst", dst)
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to download schematics from %s: %w", src, err)
	}
	logger.Info("Downloaded schematics", "dst", dst)
	return nil
}
