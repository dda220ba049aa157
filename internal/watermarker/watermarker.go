// Package watermarker batches watermark compositing over a folder of images
// and delivers the results to a chat, tolerating per-image failures.
package watermarker

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/waforge/waforge/internal/watermark"
)

// ImageSender delivers one finished JPEG to a chat and returns the message ID.
type ImageSender interface {
	SendImage(ctx context.Context, chatJID string, imageBytes []byte, imageType string, caption string) (string, error)
}

// Job describes one batch run. Exactly one of Text or WatermarkPath must be
// set; Text draws a rendered text watermark, WatermarkPath overlays an image.
type Job struct {
	FolderPath    string
	ChatJID       string
	Text          string
	FontPath      string
	WatermarkPath string
	Caption       string
	Options       watermark.Options
	Workers       int
}

// ItemResult is the outcome for a single source image.
type ItemResult struct {
	Path      string `json:"path"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`

	payload []byte
}

// Result summarizes a finished batch.
type Result struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Items     []ItemResult `json:"items"`
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ScanFolder lists the folder's images in name order, non-recursive.
func ScanFolder(folderPath string) ([]string, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(folderPath, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Run composites the watermark over every image in the folder and uploads the
// results in folder order. Compositing runs in parallel; a corrupt or
// unreadable image fails only its own item. A nil sender skips delivery,
// leaving a composite-only dry run.
func Run(ctx context.Context, job Job, sender ImageSender) (*Result, error) {
	if job.Text == "" && job.WatermarkPath == "" {
		return nil, errors.New("either a watermark text or a watermark image path is required")
	}
	if job.Text != "" && job.WatermarkPath != "" {
		return nil, errors.New("watermark text and watermark image are mutually exclusive")
	}
	if job.Text != "" && job.FontPath == "" {
		return nil, errors.New("a font path is required for text watermarks")
	}

	paths, err := ScanFolder(job.FolderPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Total: len(paths),
		Items: make([]ItemResult, len(paths)),
	}
	if len(paths) == 0 {
		return result, nil
	}

	workers := job.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			payload, err := compositeOne(path, job)
			mu.Lock()
			defer mu.Unlock()
			result.Items[i].Path = path
			if err != nil {
				result.Items[i].Error = err.Error()
				return nil
			}
			result.Items[i].payload = payload
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Deliveries stay in folder order so the chat reads like the folder.
	for i := range result.Items {
		item := &result.Items[i]
		if item.Error != "" {
			result.Failed++
			continue
		}
		if sender != nil {
			messageID, err := sender.SendImage(ctx, job.ChatJID, item.payload, "image/jpeg", job.Caption)
			if err != nil {
				item.Error = err.Error()
				result.Failed++
				continue
			}
			item.MessageID = messageID
		}
		result.Succeeded++
		item.payload = nil
	}

	return result, nil
}

func compositeOne(path string, job Job) ([]byte, error) {
	var asset watermark.Asset
	if job.Text != "" {
		width, err := imageWidth(path)
		if err != nil {
			return nil, err
		}
		raster, err := watermark.RenderText(job.Text, width, job.FontPath, job.Options.OpacityPercent, job.Options.ScalePercent)
		if err != nil {
			return nil, err
		}
		asset = watermark.TextAsset(raster)
	} else {
		asset = watermark.ImageAsset(job.WatermarkPath)
	}

	buf, err := watermark.Composite(path, asset, job.Options)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func imageWidth(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, err
	}
	return config.Width, nil
}
