/**
 * 规则注册表
 * @description: 加载并持有用户名/邮箱两类规则集合, 用户名规则从元数据侧表补充字段定义
 */

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"neorecon/internal/config"
	"neorecon/internal/core/model"
	"neorecon/internal/core/transform"
	"neorecon/internal/pkg/logger"
)

// Paths 规则文件路径
type Paths struct {
	Username string
	Metadata string // 用户名规则的元数据侧表, 可选
	Email    string
}

// PathsFromConfig 从列表配置构造路径
func PathsFromConfig(lists *config.ListsConfig) Paths {
	return Paths{
		Username: lists.UsernamePath(),
		Metadata: lists.MetadataPath(),
		Email:    lists.EmailPath(),
	}
}

// Registry 规则注册表, 进程生命周期内持有规则, 仅由重新加载替换
type Registry struct {
	paths Paths

	mu    sync.RWMutex
	rules map[model.RuleKind][]*model.SiteRule
}

// New 创建注册表, 规则在首次使用时加载
func New(paths Paths) *Registry {
	return &Registry{
		paths: paths,
		rules: make(map[model.RuleKind][]*model.SiteRule),
	}
}

// Paths 规则文件路径
func (r *Registry) Paths() Paths {
	return r.paths
}

// Rules 返回某类规则, 首次调用时加载
// 返回的切片可由调用方自由重排, 规则本身只读
func (r *Registry) Rules(kind model.RuleKind) ([]*model.SiteRule, error) {
	r.mu.RLock()
	rules, ok := r.rules[kind]
	r.mu.RUnlock()
	if !ok {
		if err := r.Reload(kind); err != nil {
			return nil, err
		}
		r.mu.RLock()
		rules = r.rules[kind]
		r.mu.RUnlock()
	}
	return append([]*model.SiteRule(nil), rules...), nil
}

// Reload 重新加载某类规则, 失败时保留原有规则
func (r *Registry) Reload(kind model.RuleKind) error {
	rules, err := r.load(kind)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.rules[kind] = rules
	r.mu.Unlock()
	logger.Infof("loaded %d %s rules", len(rules), kind)
	return nil
}

// LoadAll 加载全部规则集合, 返回各类的 LoadError 合并结果
// 服务模式启动时调用, 规则文件问题在启动阶段暴露
func (r *Registry) LoadAll() error {
	var errs []error
	for _, kind := range []model.RuleKind{model.RuleKindUsername, model.RuleKindEmail} {
		if err := r.Reload(kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Count 已加载的规则数
func (r *Registry) Count(kind model.RuleKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules[kind])
}

func (r *Registry) load(kind model.RuleKind) ([]*model.SiteRule, error) {
	switch kind {
	case model.RuleKindUsername:
		rules, err := LoadRules(kind, r.paths.Username)
		if err != nil {
			return nil, err
		}
		if r.paths.Metadata == "" {
			return rules, nil
		}
		side, err := LoadMetadata(r.paths.Metadata)
		if err != nil {
			return nil, &LoadError{Kind: kind, Path: r.paths.Metadata, Err: err}
		}
		AttachMetadata(rules, side)
		return rules, nil
	case model.RuleKindEmail:
		return LoadRules(kind, r.paths.Email)
	}
	return nil, fmt.Errorf("unknown rule kind: %s", kind)
}

// LoadRules 读取规则文件
// 文件不可读或不是合法的 {"sites": [...]} 时返回 *LoadError;
// 单条规则不合法时跳过并记录警告
func LoadRules(kind model.RuleKind, path string) ([]*model.SiteRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Kind: kind, Path: path, Err: err}
	}

	var file model.RuleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &LoadError{Kind: kind, Path: path, Err: err}
	}
	if file.Sites == nil {
		return nil, &LoadError{Kind: kind, Path: path, Err: errors.New(`missing "sites" array`)}
	}

	rules := make([]*model.SiteRule, 0, len(file.Sites))
	seen := make(map[string]struct{}, len(file.Sites))
	for i, raw := range file.Sites {
		rule, err := decodeRule(raw)
		if err != nil {
			logger.Warnf("skipping %s rule #%d in %s: %v", kind, i, path, err)
			continue
		}
		if _, dup := seen[rule.Name]; dup {
			logger.Warnf("skipping duplicate %s rule %q in %s", kind, rule.Name, path)
			continue
		}
		seen[rule.Name] = struct{}{}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(raw json.RawMessage) (*model.SiteRule, error) {
	var rule model.SiteRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if !transform.Supported(rule.InputOperation) {
		return nil, fmt.Errorf("rule %q: unknown input_operation %q", rule.Name, rule.InputOperation)
	}
	return &rule, nil
}

// LoadMetadata 读取元数据侧表, 文件不存在时返回空表
func LoadMetadata(path string) (map[string][]model.MetadataFieldSpec, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]model.MetadataFieldSpec{}, nil
	}
	if err != nil {
		return nil, err
	}
	var file model.MetadataFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Sites == nil {
		file.Sites = map[string][]model.MetadataFieldSpec{}
	}
	return file.Sites, nil
}

// AttachMetadata 为没有内联字段定义的规则补充侧表中的定义
func AttachMetadata(rules []*model.SiteRule, side map[string][]model.MetadataFieldSpec) {
	for _, rule := range rules {
		if len(rule.Metadata) > 0 {
			continue
		}
		fields, ok := side[rule.Name]
		if !ok {
			continue
		}
		valid := make([]model.MetadataFieldSpec, 0, len(fields))
		for _, f := range fields {
			if err := f.Validate(); err != nil {
				logger.Warnf("skipping metadata field for %s: %v", rule.Name, err)
				continue
			}
			valid = append(valid, f)
		}
		rule.Metadata = valid
	}
}
