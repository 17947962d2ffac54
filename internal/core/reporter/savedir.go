package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// 日期格式
const (
	DateRawLayout    = "01_02_2006"
	DatePrettyLayout = "January 02, 2006"
)

// SaveDir 单个标识符的保存目录
// <root>/<identifier>_<MM_DD_YYYY>_neorecon/
type SaveDir struct {
	Root       string
	Identifier string
	Date       time.Time
}

// NewSaveDir 创建保存目录描述 (不落盘)
func NewSaveDir(root, identifier string, date time.Time) *SaveDir {
	return &SaveDir{Root: root, Identifier: identifier, Date: date}
}

// BaseName <identifier>_<MM_DD_YYYY>_neorecon
func (s *SaveDir) BaseName() string {
	return fmt.Sprintf("%s_%s_neorecon", safeName(s.Identifier), s.Date.Format(DateRawLayout))
}

// Path 保存目录路径
func (s *SaveDir) Path() string {
	return filepath.Join(s.Root, s.BaseName())
}

// FilePath 报告文件路径 <dir>/<basename>.<ext>
func (s *SaveDir) FilePath(ext string) string {
	return filepath.Join(s.Path(), s.BaseName()+"."+ext)
}

// DumpDir 响应体转储目录
func (s *SaveDir) DumpDir() string {
	return filepath.Join(s.Path(), "dump_"+safeName(s.Identifier))
}

// ImagesDir 图片目录
func (s *SaveDir) ImagesDir() string {
	return filepath.Join(s.Path(), "images_"+safeName(s.Identifier))
}

// Ensure 创建保存目录, 以及按需创建转储/图片子目录
func (s *SaveDir) Ensure(dump, images bool) error {
	dirs := []string{s.Path()}
	if dump {
		dirs = append(dirs, s.DumpDir())
	}
	if images {
		dirs = append(dirs, s.ImagesDir())
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create save directory: %w", err)
		}
	}
	return nil
}

// safeName 文件名中不能出现路径分隔符与空格
func safeName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_").Replace(s)
}
