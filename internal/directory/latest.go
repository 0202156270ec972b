package directory

import "geocontacts/internal/contact"

// 文档注释：每个身份只保留最新的一条签到
// 背景：单次遍历 + 哈希索引，输入规模随半径与窗口增长也保持线性。
// 约束：InsertTime 完全相同时保留输入中先出现的一条；输出按身份首次出现的顺序排列。
func LatestPerIdentity(updates []contact.LocationUpdate) []contact.LocationUpdate {
	idx := make(map[string]int, len(updates))
	out := make([]contact.LocationUpdate, 0, len(updates))
	for _, u := range updates {
		if i, ok := idx[u.UserPrincipalName]; ok {
			if u.InsertTime.After(out[i].InsertTime) {
				out[i] = u
			}
			continue
		}
		idx[u.UserPrincipalName] = len(out)
		out = append(out, u)
	}
	return out
}
