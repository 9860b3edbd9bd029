package utils

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 生成随机 ID，带业务前缀，例如 wi_3f2a...
func GenerateID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// 生成工单编号，例如 TCK-1A2B3C4D
func GenerateTicketKey() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TCK-" + strings.ToUpper(raw[:8])
}

// 时间格式化
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// NormalizeTags trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling seen. The result is sorted for stable storage.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// 验证文本长度
func ValidateText(content string, max int) bool {
	n := len(strings.TrimSpace(content))
	return n > 0 && n <= max
}
