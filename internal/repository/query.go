package repository

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// slugsLike 返回 table 中与 base 相同或以 "base-" 开头的 slug
func slugsLike(ctx context.Context, db *gorm.DB, table interface{}, base string, excludeID int64) ([]string, error) {
	q := db.WithContext(ctx).
		Model(table).
		Where("slug = ? OR slug LIKE ?", base, base+"-%")
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var slugs []string
	err := q.Pluck("slug", &slugs).Error
	return slugs, err
}

// whereTagsContainAll 必须包含全部标签
// postgres 用数组包含运算；其他方言按 pq 的 {"a","b"} 文本逐个匹配带引号的元素
func whereTagsContainAll(q *gorm.DB, column string, tags []string) *gorm.DB {
	if q.Dialector.Name() == "postgres" {
		return q.Where(column+" @> ?", pq.StringArray(tags))
	}
	for _, tag := range tags {
		q = q.Where(column+" LIKE ?", "%"+quoteArrayElement(tag)+"%")
	}
	return q
}

func quoteArrayElement(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
