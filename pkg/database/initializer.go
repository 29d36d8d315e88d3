package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApplySchemaSQL 执行 root/<方言>/ 下的 .sql 文件，按文件名顺序
// 目录不存在视为无需处理；语句需自行保证幂等（IF NOT EXISTS）
func ApplySchemaSQL(ctx context.Context, db *gorm.DB, fsys fs.FS, root string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	dir := path.Join(root, db.Dialector.Name())

	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("无方言 SQL，跳过", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	start := time.Now()
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("读取 %s 失败: %w", name, err)
		}
		for _, stmt := range splitStatements(string(raw)) {
			if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
				return fmt.Errorf("执行 %s 失败: %w", name, err)
			}
		}
		log.Info("已执行 SQL", zap.String("file", name))
	}
	log.Info("补充 SQL 完成", zap.Int("files", len(files)), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// splitStatements 按分号拆分，去掉 -- 注释与空语句
// 不处理字符串里的分号，补充 SQL 里不应出现
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
