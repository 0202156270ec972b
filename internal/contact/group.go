package contact

import "fmt"

// GroupLabel：附近联系人的分组原因
type GroupLabel int

const (
	// GroupRecentCheckin：近期签到位置在范围内
	GroupRecentCheckin GroupLabel = iota
	// GroupHometown：常住地在范围内且无近期签到
	GroupHometown
)

// GroupLabels 按输出顺序列出全部标签
var GroupLabels = []GroupLabel{GroupRecentCheckin, GroupHometown}

func (l GroupLabel) String() string {
	switch l {
	case GroupRecentCheckin:
		return "recent-check-in"
	case GroupHometown:
		return "hometown-proximity"
	}
	return fmt.Sprintf("GroupLabel(%d)", int(l))
}

func (l GroupLabel) MarshalText() ([]byte, error) {
	switch l {
	case GroupRecentCheckin, GroupHometown:
		return []byte(l.String()), nil
	}
	return nil, fmt.Errorf("contact: unknown group label %d", int(l))
}

func (l *GroupLabel) UnmarshalText(b []byte) error {
	for _, g := range GroupLabels {
		if g.String() == string(b) {
			*l = g
			return nil
		}
	}
	return fmt.Errorf("contact: unknown group label %q", string(b))
}

// Group：一个标签及其下的有序联系人
type Group struct {
	Label    GroupLabel `json:"Key"`
	Contacts []Contact  `json:"Items"`
}
