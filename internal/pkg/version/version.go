// ### 发布流程
// 1. **更新版本号**：修改 `internal/pkg/version/version.go`
// 2. **构建**：通过 -ldflags 注入 BuildTime / GitCommit
// 3. **推送代码和 Tag**：推送到远程仓库

package version

import "runtime"

var (
	Version    = "1.2.0" // 版本号 -- 发布时候更新版本号
	APIVersion = "1.0"
	BuildTime  string
	GitCommit  string
	GoVersion  = runtime.Version()
)

// Info 版本信息
type Info struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	BuildTime  string `json:"build_time,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	GoVersion  string `json:"go_version"`
}

func GetVersion() string {
	return Version
}

// GetInfo 返回完整版本信息
func GetInfo() Info {
	return Info{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  GoVersion,
	}
}

// GetUserAgent 默认 User-Agent, 仅在没有可用的浏览器 UA 时使用
func GetUserAgent() string {
	return "Mozilla/5.0 (compatible; NeoRecon/" + Version + ") AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
}
