package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/coderi421/mvc/orm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sampleUsers = 25

// migrate 按文件名顺序执行建表语句，表是空的时候写入示例数据。
// orm 只负责读，所以这里直接使用 sql.DB
func (a *app) migrate(ctx context.Context) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	for _, f := range files {
		bs, err := migrationsFS.ReadFile(f)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(bs), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err = a.sqlDB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("mvc: 执行 %s 失败 %w", f, err)
			}
		}
		a.logger.Info("mvc: 执行迁移", slog.String("file", f))
	}

	cnt, err := orm.NewModel(a.db, "users").Query().Count(ctx)
	if err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	_, err = a.sqlDB.ExecContext(ctx, seedSQL(sampleUsers))
	if err != nil {
		return fmt.Errorf("mvc: 写入示例数据失败 %w", err)
	}
	a.logger.Info("mvc: 写入示例数据", slog.Int("users", sampleUsers))
	return nil
}

func seedSQL(n int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO users (id, name, email, age) VALUES ")
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%d, 'user%02d', 'user%02d@example.com', %d)", i, i, i, 18+i%30)
	}
	return sb.String()
}
