package directory

import (
	"strings"

	"geocontacts/internal/contact"
)

// DefaultImageBaseURL：相对头像路径的前缀
const DefaultImageBaseURL = "https://developer.microsoft.com/en-us/advocates/"

// Normalizer 把原始图片元数据与社交账号字符串转换为可直接展示的字段
type Normalizer struct {
	BaseURL string
}

// 文档注释：就地计算 PhotoUrl 与 TwitterHandle
// 规则：Image["Src"] 以 http 开头（不区分大小写）则原样使用，否则拼接 BaseURL；缺少 Src 时 PhotoUrl 保持为空。
// TwitterHandle 取 Twitter 最后一个 "/" 之后的部分并加 "@"；Twitter 为空或只剩斜杠时保持为空，不报错。
// 与单纯截取最后一个 "/" 之后子串的做法有意不同：先去掉末尾的 "/"，再去掉开头的 "@"，因此 ".../foo/" 与 "@foo" 都得到 "@foo"。
func (n Normalizer) Normalize(c *contact.Contact) {
	if src, ok := c.Image["Src"]; ok && src != "" {
		if len(src) >= 4 && strings.EqualFold(src[:4], "http") {
			c.PhotoUrl = src
		} else {
			base := n.BaseURL
			if base == "" {
				base = DefaultImageBaseURL
			}
			c.PhotoUrl = base + src
		}
	}

	raw := strings.TrimRight(strings.TrimSpace(c.Twitter), "/")
	name := strings.TrimPrefix(raw[strings.LastIndex(raw, "/")+1:], "@")
	if name == "" {
		return
	}
	c.TwitterHandle = "@" + name
}

// Normalize 使用默认图片前缀
func Normalize(c *contact.Contact) { Normalizer{}.Normalize(c) }
