package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Downloader 下载远程资源的客户端 (client.HTTPClient)
type Downloader interface {
	Download(ctx context.Context, url, userAgent string, w io.Writer) error
}

// ImageSaver 将头像类元数据保存为 <site>_image.jpg
type ImageSaver struct {
	Client    Downloader
	Dir       string
	UserAgent string
}

func NewImageSaver(client Downloader, dir, userAgent string) *ImageSaver {
	return &ImageSaver{Client: client, Dir: dir, UserAgent: userAgent}
}

// DownloadImage 下载失败时删除残留文件
func (s *ImageSaver) DownloadImage(ctx context.Context, site, url string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}
	path := filepath.Join(s.Dir, safeName(site)+"_image.jpg")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Client.Download(ctx, url, s.UserAgent, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
