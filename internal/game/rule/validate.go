package rule

import (
	"strings"

	"github.com/palemoky/atlas/internal/protocol"
)

// Dictionary 地名词典
type Dictionary interface {
	Contains(place string) bool
}

// Verdict 地名校验结果
type Verdict int

const (
	Accepted Verdict = iota
	AlreadyUsed
	UnknownPlace
	WrongLetter
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case AlreadyUsed:
		return protocol.ReasonAlreadyUsed
	case UnknownPlace:
		return protocol.ReasonUnknownPlace
	case WrongLetter:
		return protocol.ReasonWrongLetter
	}
	return "unknown"
}

// Message 返回面向玩家的拒绝提示
func (v Verdict) Message() string {
	switch v {
	case AlreadyUsed:
		return "Somebody already said that location!"
	case WrongLetter:
		return "That location does not start with the required letter!"
	case UnknownPlace:
		return "Invalid location!"
	}
	return ""
}

// Validate 校验地名，已用优先于其余拒绝原因。place 与 used 中的条目均应已规范化为小写。
func Validate(place, letter string, used map[string]struct{}, dict Dictionary) Verdict {
	if _, ok := used[place]; ok {
		return AlreadyUsed
	}
	if !dict.Contains(place) {
		return UnknownPlace
	}
	if letter == "" || !strings.HasPrefix(place, strings.ToLower(letter)) {
		return WrongLetter
	}
	return Accepted
}
