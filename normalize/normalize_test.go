package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Empty", "", ""},
		{"WhitespaceOnly", " \t\n", ""},
		{"Trim", "   a   ", "a"},
		{"Aspirated", "p\u02B0", "p\u02B0"},
		{"Labialized", "t\u02B7", "t\u02B7"},
		{"Lowercase", "PH", "ph"},
		{"MixedCase", "THis", "this"},
		{"Length", "a:", "a\u02D0"},
		{"DoubleLength", "a::", "a\u02D0\u02D0"},
		{"ToneRemovedComposed", "\u00E1", "a"},
		{"ToneRemovedDecomposed", "a\u0301", "a"},
		{"ToneLetters", "ma\u02E5\u02E9", "ma"},
		{"ToneNumbers", "ma\u00B3\u2075", "ma"},
		{"NasalKept", "\u00E3", "a\u0303"},
		{"VoicingBeforeNasal", "a\u0303\u0325", "a\u0325\u0303"},
		{"DentalBeforeAspiration", "t\u02B0\u032A", "t\u032A\u02B0"},
		{"LengthAfterAspiration", "t:\u02B0", "t\u02B0\u02D0"},
		{"UnknownAfterKnown", "a\u0351\u02B0", "a\u02B0\u0351"},
		{"UnknownKeepsOrder", "a\u0357\u0351", "a\u0357\u0351"},
		{"TieBelow", "t\u035Cs", "t\u0361s"},
		{"Undertie", "t\u203F\u0283", "t\u0361\u0283"},
		{"TieCollapsed", "t\u0361\u0361s", "t\u0361s"},
		{"TieAfterMarks", "t\u0361\u032As", "t\u032A\u0361s"},
		{"DanglingTies", "\u0361ts\u0361", "ts"},
		{"SpacedDiacritic", "a \u0325", "a\u0325"},
		{"ColonAffricate", " T\u035CS: ", "t\u0361s\u02D0"},
		{"NullByte", "null\x00", "null\x00"},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_Options(t *testing.T) {
	t.Run("PreserveTones", func(t *testing.T) {
		n := New(WithPreserveTones())
		assert.Equal(t, "ma\u0301", n.Normalize("m\u00E1"))
		assert.Equal(t, "ma\u02E5", n.Normalize("ma\u02E5"))
		assert.True(t, n.Options().PreserveTones)
	})

	t.Run("ToneOrderedAfterNasal", func(t *testing.T) {
		n := New(WithPreserveTones())
		assert.Equal(t, "a\u0303\u0301", n.Normalize("a\u0301\u0303"))
	})

	t.Run("IPASubstitutions", func(t *testing.T) {
		n := New(WithIPASubstitutions())
		assert.Equal(t, "\u0261a", n.Normalize("ga"))
		assert.Equal(t, "\u02C8pa", n.Normalize("'pa"))
		assert.Equal(t, "ga", Default.Normalize("ga"))
	})

	t.Run("DecomposeAffricates", func(t *testing.T) {
		n := New(WithDecomposeAffricates())
		assert.Equal(t, "t\u0361\u0283a", n.Normalize("\u02A7a"))
		assert.Equal(t, "d\u0361\u0292", n.Normalize("\u02A4"))
		assert.Equal(t, "\u02A7", Default.Normalize("\u02A7"))
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"p\u02B0\u00E6\u0303n",
		"t:est",
		"WORD",
		"\u0259\u0303\u0300\u02B7",
		"p\u02B0\u00E6\u0303\u02D0n",
		"t\u0361\u0283",
		"k\u035Cp",
		"\u0273\u034B",
		"\u0259\u0303\u02D0\u02DE",
		"a\u0351\u02B0\u0357",
		"caf\u00E9",
		"pi\u00F1ata",
		"na\u00EFve",
		"t\u203F\u0325s",
		"\u02C8stress",
		"syl.la.ble",
	}

	for _, opts := range [][]Option{nil, {WithPreserveTones()}, {WithIPASubstitutions(), WithDecomposeAffricates()}} {
		n := New(opts...)
		for _, in := range inputs {
			once := n.Normalize(in)
			assert.Equal(t, once, n.Normalize(once), "input %q", in)
		}
	}
}

func TestNormalize_Equivalence(t *testing.T) {
	n := New(WithPreserveTones())
	assert.Equal(t, n.Normalize("\u00E9"), n.Normalize("e\u0301"))
	assert.Equal(t, n.Normalize("a\u0303\u0325"), n.Normalize("a\u0325\u0303"))
}

func TestString(t *testing.T) {
	assert.Equal(t, "a\u02D0", String(" A: "))
}

func TestCanonicalizeTies(t *testing.T) {
	assert.Equal(t, "t\u0361s", CanonicalizeTies("t\u035Cs"))
	assert.Equal(t, "ts", CanonicalizeTies("ts\u0361"))
	assert.Equal(t, "ts", CanonicalizeTies("\u203Fts"))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsToneMark('\u0301'))
	assert.False(t, IsToneMark('\u0303'))
	assert.True(t, IsToneLetter('\u02E5'))
	assert.True(t, IsTie('\u203F'))
	assert.True(t, IsCombining('\u0325'))
	assert.False(t, IsCombining('a'))
}

func TestIsValidIPA(t *testing.T) {
	assert.True(t, IsValidIPA("p\u02B0a"))
	assert.True(t, IsValidIPA("[t\u0361\u0283a]"))
	assert.True(t, IsValidIPA("\u0283\u0259.\u014B"))
	assert.False(t, IsValidIPA("abc1"))
	assert.False(t, IsValidIPA("a\u20AC"))
}

func TestNFC(t *testing.T) {
	assert.Equal(t, "\u00E3", NFC("a\u0303"))
}
