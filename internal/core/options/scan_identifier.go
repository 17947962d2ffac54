package options

import (
	"bufio"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/samber/lo"

	"neorecon/internal/core/model"
	"neorecon/internal/core/permute"
)

// ScanOptions 标识符扫描的公共参数
type ScanOptions struct {
	Filter   string // --filter
	NoNSFW   bool   // --no-nsfw
	NoUpdate bool   // --no-update 跳过列表同步
	Run      RunOptions
	Output   OutputOptions
}

// UsernameScanOptions scan username 指令参数
type UsernameScanOptions struct {
	ScanOptions
	Usernames  []string
	File       string // --username-file
	Permute    bool   // --permute 忽略单元素
	PermuteAll bool   // --permute-all
}

// NewUsernameScanOptions 创建默认参数
func NewUsernameScanOptions() *UsernameScanOptions {
	return &UsernameScanOptions{ScanOptions: ScanOptions{Run: DefaultRunOptions()}}
}

// Validate 验证参数
func (o *UsernameScanOptions) Validate() error {
	if len(o.Usernames) == 0 && o.File == "" {
		return fmt.Errorf("at least one username or --username-file is required")
	}
	if (o.Permute || o.PermuteAll) && len(o.Usernames) == 0 {
		return fmt.Errorf("permutations require usernames")
	}
	return o.Run.Validate()
}

// ToTasks 展开用户名 (文件、排列组合) 为任务
func (o *UsernameScanOptions) ToTasks() ([]*model.Task, error) {
	names := o.Usernames
	if o.Permute || o.PermuteAll {
		if len(names) > 1 {
			names = permute.Generate(names, o.PermuteAll)
		}
	}
	if o.File != "" {
		fromFile, err := ReadIdentifiers(o.File)
		if err != nil {
			return nil, err
		}
		names = append(append([]string(nil), names...), fromFile...)
	}
	names = lo.Uniq(lo.Compact(lo.Map(names, func(s string, _ int) string { return strings.TrimSpace(s) })))
	if len(names) == 0 {
		return nil, fmt.Errorf("no usernames to search")
	}
	return lo.Map(names, func(n string, _ int) *model.Task {
		return model.NewTask(model.RuleKindUsername, n)
	}), nil
}

// EmailScanOptions scan email 指令参数
type EmailScanOptions struct {
	ScanOptions
	Emails []string
	File   string // --email-file
}

// NewEmailScanOptions 创建默认参数
func NewEmailScanOptions() *EmailScanOptions {
	return &EmailScanOptions{ScanOptions: ScanOptions{Run: DefaultRunOptions()}}
}

// Validate 验证参数
func (o *EmailScanOptions) Validate() error {
	if len(o.Emails) == 0 && o.File == "" {
		return fmt.Errorf("at least one email or --email-file is required")
	}
	for _, e := range o.Emails {
		if _, err := mail.ParseAddress(e); err != nil {
			return fmt.Errorf("invalid email %q: %w", e, err)
		}
	}
	return o.Run.Validate()
}

// ToTasks 展开邮箱为任务
func (o *EmailScanOptions) ToTasks() ([]*model.Task, error) {
	emails := append([]string(nil), o.Emails...)
	if o.File != "" {
		fromFile, err := ReadIdentifiers(o.File)
		if err != nil {
			return nil, err
		}
		emails = append(emails, fromFile...)
	}
	emails = lo.Uniq(lo.Compact(lo.Map(emails, func(s string, _ int) string { return strings.TrimSpace(s) })))
	if len(emails) == 0 {
		return nil, fmt.Errorf("no emails to search")
	}
	return lo.Map(emails, func(e string, _ int) *model.Task {
		return model.NewTask(model.RuleKindEmail, e)
	}), nil
}

// ReadIdentifiers 读取标识符文件, 每行一个
func ReadIdentifiers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read identifier file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read identifier file: %w", err)
	}
	return out, nil
}
