package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var multiHyphen = regexp.MustCompile(`-{2,}`)

// Slugify 生成 URL slug，保留任意文字系统的字母与数字（如孟加拉文、波斯文）
// 不做大小写转换
func Slugify(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "_", " ")

	var b strings.Builder
	for _, r := range value {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r), r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	slug = multiHyphen.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// UniqueSlug 在 existing 中去重，冲突时追加 -2、-3 ...
// base 清洗后为空则使用 fallback
func UniqueSlug(base string, existing []string, fallback string) string {
	slug := Slugify(base)
	if slug == "" {
		slug = fallback
	}

	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}
	if _, ok := taken[slug]; !ok {
		return slug
	}
	for i := 2; ; i++ {
		candidate := slug + "-" + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
