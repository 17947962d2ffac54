package listsync

import (
	"context"

	"neorecon/internal/config"
)

// SourcesFromConfig 配置中的全部列表
func SourcesFromConfig(lists *config.ListsConfig) []Source {
	if lists == nil {
		return nil
	}
	return []Source{
		{Name: "username", URL: lists.UsernameURL, Path: lists.UsernamePath()},
		{Name: "email", URL: lists.EmailURL, Path: lists.EmailPath()},
	}
}

// SyncAll 依次同步所有列表, 单个列表失败不影响其余列表
func (s *Synchronizer) SyncAll(ctx context.Context, sources []Source) map[string]Result {
	results := make(map[string]Result, len(sources))
	for _, src := range sources {
		result, _ := s.Sync(ctx, src)
		results[src.Name] = result
	}
	return results
}
