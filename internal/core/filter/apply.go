package filter

import (
	"fmt"

	"github.com/samber/lo"

	"neorecon/internal/core/model"
)

// Apply 按表达式与 NSFW 开关缩小规则集合
// 表达式为空时跳过表达式过滤; 任一步骤过滤后为空都返回包装了 ErrNoRules 的错误
func Apply(rules []*model.SiteRule, text string, noNSFW bool) ([]*model.SiteRule, error) {
	selected := rules

	if text != "" {
		expr, err := Parse(text)
		if err != nil {
			return nil, err
		}
		var evalErr error
		selected = lo.Filter(selected, func(rule *model.SiteRule, _ int) bool {
			if evalErr != nil {
				return false
			}
			ok, err := expr.Evaluate(rule)
			if err != nil {
				evalErr = fmt.Errorf("rule %q: %w", rule.Name, err)
				return false
			}
			return ok
		})
		if evalErr != nil {
			return nil, evalErr
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("%w for the given filter %q", ErrNoRules, text)
		}
	}

	if noNSFW {
		selected = lo.Reject(selected, func(rule *model.SiteRule, _ int) bool {
			return rule.IsNSFW()
		})
		if len(selected) == 0 {
			return nil, fmt.Errorf("%w after NSFW filtering", ErrNoRules)
		}
	}

	return selected, nil
}
