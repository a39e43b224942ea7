// pkg/features/wallpaper.go - collector for the desktop wallpaper image.

package features

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/utils"
)

// WallpaperInfo records the active wallpaper and its image properties.
type WallpaperInfo struct {
	SourcePath string `json:"source_path"`
	StoredAs   string `json:"stored_as,omitempty"`
	Format     string `json:"format,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Style      string `json:"style,omitempty"`
	TileMode   string `json:"tile_mode,omitempty"`
}

// CollectWallpaper copies the active wallpaper image next to the feature's
// registry export and records its dimensions. Windows keeps a transcoded
// copy even when the original file has moved, so that is the fallback.
func CollectWallpaper(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	info, err := readWallpaperSettings()
	if err != nil {
		return nil, []string{fmt.Sprintf("reading wallpaper settings: %v", err)}
	}

	source := info.SourcePath
	if source == "" || !fileExists(source) {
		transcoded := utils.ExpandWindowsEnv(`%APPDATA%\Microsoft\Windows\Themes\TranscodedWallpaper`)
		if fileExists(transcoded) {
			source = transcoded
		}
	}
	if source == "" {
		return []backup.Outcome{{Name: "wallpaper image", Success: true, Detail: "solid color, no image to copy"}}, nil
	}

	stored := "wallpaper" + filepath.Ext(source)
	if filepath.Ext(source) == "" {
		// TranscodedWallpaper has no extension; it is JPEG in practice.
		stored = "wallpaper.jpg"
	}
	if err := copyWallpaper(source, filepath.Join(env.Dir, stored)); err != nil {
		return nil, []string{fmt.Sprintf("copying wallpaper: %v", err)}
	}
	info.StoredAs = stored

	if format, width, height, err := imageBounds(source); err != nil {
		logging.Debug("Could not decode wallpaper image", "path", source, "error", err)
	} else {
		info.Format = format
		info.Width = width
		info.Height = height
	}

	var errs []string
	if err := backup.WriteSnapshot(env.Dir, "wallpaper.json", info); err != nil {
		errs = append(errs, fmt.Sprintf("writing wallpaper.json: %v", err))
	}
	detail := stored
	if info.Width > 0 {
		detail = fmt.Sprintf("%s, %dx%d %s", stored, info.Width, info.Height, info.Format)
	}
	return []backup.Outcome{{Name: "wallpaper image", Success: true, Detail: detail}}, errs
}

// readWallpaperSettings pulls the active wallpaper path and display style
// from the Desktop control panel key.
func readWallpaperSettings() (WallpaperInfo, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Control Panel\Desktop`, registry.QUERY_VALUE)
	if err != nil {
		return WallpaperInfo{}, err
	}
	defer key.Close()

	var info WallpaperInfo
	info.SourcePath, _, _ = key.GetStringValue("WallPaper")
	info.Style, _, _ = key.GetStringValue("WallpaperStyle")
	info.TileMode, _, _ = key.GetStringValue("TileWallpaper")
	return info, nil
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func copyWallpaper(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// imageBounds decodes just the image header to learn format and size.
func imageBounds(path string) (string, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, 0, err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", 0, 0, err
	}
	return format, cfg.Width, cfg.Height, nil
}
