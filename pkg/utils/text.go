package utils

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// CountWords 统计以空白分隔的词数，空串返回 0
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// Slugify 将标题转换为 URL 安全的片段：小写，非 [a-z0-9] 连续字符替换为 "-"，去掉首尾 "-"
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	dash := false
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLower(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// UniqueSlug 生成带时间戳后缀的 slug
func UniqueSlug(title string, at time.Time) string {
	suffix := strconv.FormatInt(at.UnixMilli(), 10)
	base := Slugify(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Excerpt 截取前 n 个字符（按 rune）
func Excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
