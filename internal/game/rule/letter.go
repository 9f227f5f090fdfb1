package rule

import (
	"math/rand/v2"
	"strings"
	"unicode"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// LetterSource 生成首回合所需的起始字母
type LetterSource interface {
	Letter() string
}

// RandomLetters 在 26 个字母中均匀随机取一个（小写）
type RandomLetters struct{}

func (RandomLetters) Letter() string {
	i := rand.IntN(len(alphabet))
	return alphabet[i : i+1]
}

// LastLetter 返回地名最后一个 a-z 字母（小写），没有则返回空串
func LastLetter(place string) string {
	runes := []rune(strings.ToLower(place))
	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			return string(r)
		}
	}
	return ""
}
