/**
 * 规则列表同步
 * @description: 本地不存在时直接下载; 否则比较本地与远端的内容摘要, 不一致时覆盖; 任何失败退化为无条件刷新
 */

package listsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"neorecon/internal/pkg/client"
	"neorecon/internal/pkg/logger"
)

// Result 同步结果
type Result string

const (
	ResultDownloaded Result = "downloaded" // 本地不存在, 已下载
	ResultUpdated    Result = "updated"    // 摘要不一致, 已覆盖
	ResultUpToDate   Result = "up-to-date" // 摘要一致, 未写入
	ResultRefreshed  Result = "refreshed"  // 比较失败, 已无条件刷新
	ResultSkipped    Result = "skipped"    // 未配置远端地址
	ResultFailed     Result = "failed"     // 刷新也失败, 继续使用本地副本
)

// Source 一个需要同步的列表
type Source struct {
	Name string
	URL  string
	Path string
}

// Fetcher 获取远端列表
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DoerFetcher 通过探测客户端获取远端列表
type DoerFetcher struct {
	Doer      client.Doer
	UserAgent string
}

// Fetch GET 远端地址, 要求 200
func (f *DoerFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.Doer.Do(ctx, &client.Request{Method: http.MethodGet, URL: url, UserAgent: f.UserAgent})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return []byte(resp.Body), nil
}

// Synchronizer 列表同步器
type Synchronizer struct {
	fetcher     Fetcher
	comparisons atomic.Int64
}

// NewSynchronizer 创建同步器
func NewSynchronizer(fetcher Fetcher) *Synchronizer {
	return &Synchronizer{fetcher: fetcher}
}

// Comparisons 已执行的摘要比较次数
func (s *Synchronizer) Comparisons() int64 {
	return s.comparisons.Load()
}

// Sync 同步单个列表
// 返回的 error 仅用于记录, 调用方不应因此中止运行
func (s *Synchronizer) Sync(ctx context.Context, src Source) (Result, error) {
	if src.URL == "" {
		return ResultSkipped, nil
	}

	if _, err := os.Stat(src.Path); errors.Is(err, os.ErrNotExist) {
		if err := s.refresh(ctx, src, nil); err != nil {
			s.logFailure(src, err)
			return ResultFailed, err
		}
		s.logEvent(src, ResultDownloaded)
		return ResultDownloaded, nil
	}

	remote, result, err := s.compare(ctx, src)
	if err != nil {
		logger.LogSystemEvent("listsync", "compare_failed", err.Error(), logger.WarnLevel, map[string]interface{}{
			"list": src.Name,
			"path": src.Path,
		})
		if err := s.refresh(ctx, src, remote); err != nil {
			s.logFailure(src, err)
			return ResultFailed, err
		}
		s.logEvent(src, ResultRefreshed)
		return ResultRefreshed, nil
	}

	if result == ResultUpdated {
		if err := persist(src.Path, remote); err != nil {
			s.logFailure(src, err)
			return ResultFailed, err
		}
	}
	s.logEvent(src, result)
	return result, nil
}

// compare 获取远端并比较摘要; 远端获取成功时总是返回远端内容, 供回退刷新复用
func (s *Synchronizer) compare(ctx context.Context, src Source) ([]byte, Result, error) {
	remote, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch remote list: %w", err)
	}

	local, err := os.ReadFile(src.Path)
	if err != nil {
		return remote, "", fmt.Errorf("read local list: %w", err)
	}

	s.comparisons.Add(1)
	localDigest, err := Digest(local)
	if err != nil {
		return remote, "", fmt.Errorf("hash local list: %w", err)
	}
	remoteDigest, err := Digest(remote)
	if err != nil {
		return nil, "", fmt.Errorf("hash remote list: %w", err)
	}

	if localDigest == remoteDigest {
		return remote, ResultUpToDate, nil
	}
	return remote, ResultUpdated, nil
}

// refresh 无条件下载并写入; remote 非空时复用已获取的内容
func (s *Synchronizer) refresh(ctx context.Context, src Source, remote []byte) error {
	if remote == nil {
		var err error
		remote, err = s.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			return fmt.Errorf("fetch remote list: %w", err)
		}
	}
	return persist(src.Path, remote)
}

// persist 原子写入格式化后的列表
func persist(path string, data []byte) error {
	formatted, err := pretty(data)
	if err != nil {
		return fmt.Errorf("remote list is not valid json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(formatted); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Synchronizer) logEvent(src Source, result Result) {
	logger.LogSystemEvent("listsync", string(result), "list synchronized", logger.InfoLevel, map[string]interface{}{
		"list": src.Name,
		"path": src.Path,
	})
}

func (s *Synchronizer) logFailure(src Source, err error) {
	logger.LogSystemEvent("listsync", "refresh_failed", err.Error(), logger.ErrorLevel, map[string]interface{}{
		"list": src.Name,
		"path": src.Path,
	})
}
