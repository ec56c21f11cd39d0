package lexer

import "unicode"

// Emoji tokenization treats a run starting with a pictographic code point and
// extending across joiners, variation selectors and skin-tone modifiers as a
// single token.

const (
	zwj  = 0x200D // zero-width joiner
	vs15 = 0xFE0E // text presentation selector
	vs16 = 0xFE0F // emoji presentation selector
)

func isSurrogate(r rune) bool {
	return r >= 0xD800 && r <= 0xDFFF
}

func isSkinTone(r rune) bool {
	return r >= 0x1F3FB && r <= 0x1F3FF
}

// isEmojiStart reports whether r can begin an emoji run. The original
// tokenizer keys off the Unicode "Symbol, other" category.
func isEmojiStart(r rune) bool {
	return unicode.Is(unicode.So, r)
}

// isEmojiContinue reports whether r may extend an emoji run.
func isEmojiContinue(r rune) bool {
	if r == zwj || r == vs15 || r == vs16 {
		return true
	}
	if isSkinTone(r) {
		return true
	}
	return unicode.Is(unicode.So, r)
}
