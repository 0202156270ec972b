package store

import "context"

// DefaultPageSize：单页读取条数
const DefaultPageSize = 500

// Cursor：键集分页游标（上一页最后一行的排序键）
type Cursor struct {
	Name string
	Key  string
}

// PageFunc 读取 after 之后的一页；返回 nil 游标表示没有更多数据
type PageFunc[T any] func(ctx context.Context, after *Cursor, limit int) ([]T, *Cursor, error)

// 文档注释：读尽分页
// 背景：只返回首页会让调用方静默丢失数据，因此循环读取直到短页或游标为空。
// 约束：任一页失败即整体失败，不返回部分结果。
func Drain[T any](ctx context.Context, limit int, fetch PageFunc[T]) ([]T, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var out []T
	var after *Cursor
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, next, err := fetch(ctx, after, limit)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < limit || next == nil {
			return out, nil
		}
		after = next
	}
}
