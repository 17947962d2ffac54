/**
 * 元数据提取
 * @description: 对命中 (FOUND) 的响应按字段定义提取结构化信息, JSON 走键路径, HTML 走正则首个捕获组
 */

package metadata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/samber/lo"

	"neorecon/internal/core/model"
	"neorecon/internal/pkg/logger"
)

// regexTimeout 单个 HTML 正则的匹配超时
const regexTimeout = 2 * time.Second

// ImageDownloader 图片下载协作者
type ImageDownloader interface {
	DownloadImage(ctx context.Context, site, url string) error
}

// Extractor 元数据提取器
type Extractor struct {
	downloader ImageDownloader
	patterns   sync.Map // pattern -> *regexp2.Regexp
}

// NewExtractor 创建提取器, downloader 为 nil 时不下载图片
func NewExtractor(downloader ImageDownloader) *Extractor {
	return &Extractor{downloader: downloader}
}

// Extract 提取并整理元数据: 去重 (schema, type, name, path) 后按名称排序
func (e *Extractor) Extract(ctx context.Context, site string, fields []model.MetadataFieldSpec, resp *model.Response) []model.Metadata {
	out := make([]model.Metadata, 0, len(fields))
	for _, field := range fields {
		m, ok := e.extractField(ctx, site, field, resp)
		if ok {
			out = append(out, m)
		}
	}
	return Normalize(out)
}

// Normalize 去重 (首次出现优先) 并按名称稳定排序
func Normalize(items []model.Metadata) []model.Metadata {
	items = lo.UniqBy(items, func(m model.Metadata) string {
		return m.DedupKey()
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

func (e *Extractor) extractField(ctx context.Context, site string, field model.MetadataFieldSpec, resp *model.Response) (model.Metadata, bool) {
	m := model.Metadata{
		Schema: field.Schema,
		Type:   field.Type,
		Name:   field.Name,
		Path:   field.Path.String(),
	}

	var raw interface{}
	switch field.Schema {
	case model.SchemaJSON:
		v, ok := Lookup(resp.JSON, field.Path.Segments())
		if !ok {
			return m, false
		}
		raw = v
	case model.SchemaHTML:
		v, ok := e.matchHTML(field.Path.Pattern, resp.Body)
		if !ok {
			return m, false
		}
		raw = v
	default:
		return m, false
	}
	if !truthy(raw) {
		return m, false
	}

	switch field.Type {
	case model.FieldString:
		m.Value = field.Prefix + stripNewlines(Stringify(raw))
	case model.FieldArray:
		list, ok := raw.([]interface{})
		if !ok {
			return m, false
		}
		for _, item := range list {
			v, ok := Lookup(item, field.ItemPath.Segments())
			if field.ItemPath.IsZero() {
				v, ok = item, true
			}
			if ok && truthy(v) {
				m.Items = append(m.Items, Stringify(v))
			}
		}
		if len(m.Items) == 0 {
			return m, false
		}
	case model.FieldImage:
		m.Value = field.Prefix + Stringify(raw)
		if e.downloader != nil {
			if err := e.downloader.DownloadImage(ctx, site, m.Value); err != nil {
				logger.Debugf("image download failed for %s: %v", site, err)
			} else {
				m.Downloaded = true
			}
		}
	default:
		return m, false
	}
	return m, true
}

// matchHTML 返回首个捕获组 (去除换行)
func (e *Extractor) matchHTML(pattern, body string) (string, bool) {
	re, err := e.compile(pattern)
	if err != nil {
		logger.Debugf("invalid metadata pattern %q: %v", pattern, err)
		return "", false
	}
	match, err := re.FindStringMatch(body)
	if err != nil || match == nil {
		return "", false
	}
	groups := match.Groups()
	if len(groups) < 2 {
		return "", false
	}
	return stripNewlines(groups[1].String()), true
}

func (e *Extractor) compile(pattern string) (*regexp2.Regexp, error) {
	if v, ok := e.patterns.Load(pattern); ok {
		return v.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexTimeout
	e.patterns.Store(pattern, re)
	return re, nil
}
