package normalize

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// Tie is the canonical tie bar (COMBINING DOUBLE INVERTED BREVE).
	Tie = '\u0361'

	// Length is the IPA length mark.
	Length = '\u02D0'
)

// tieVariants are every joiner accepted as a tie bar on input.
var tieVariants = map[rune]struct{}{
	'\u0361': {}, // double inverted breve (canonical)
	'\u035C': {}, // double breve below
	'\u203F': {}, // undertie
}

// diacriticOrder lists attachments from closest to the base to furthest.
var diacriticOrder = []rune{
	// syllabicity and voicing
	'\u0329', // syllabic
	'\u032F', // non-syllabic
	'\u0325', // voiceless (ring below)
	'\u030A', // voiceless (ring above)
	'\u032C', // voiced
	'\u0324', // breathy voiced
	'\u0330', // creaky voiced

	// secondary articulation and place refinements
	'\u033C', // linguolabial
	'\u032A', // dental
	'\u033A', // apical
	'\u033B', // laminal
	'\u031F', // advanced
	'\u0320', // retracted
	'\u031D', // raised
	'\u031E', // lowered
	'\u0318', // advanced tongue root
	'\u0319', // retracted tongue root
	'\u0339', // more rounded
	'\u031C', // less rounded
	'\u0334', // velarized or pharyngealized
	'\u0303', // nasalized
	'\u0308', // centralized
	'\u033D', // mid-centralized
	'\u0306', // extra-short
	'\u031A', // no audible release

	// tone marks
	'\u030B', // extra high
	'\u0301', // high
	'\u0304', // mid
	'\u0300', // low
	'\u030F', // extra low
	'\u030C', // rising
	'\u0302', // falling

	// post-base modifier letters
	'\u02B0', // aspirated
	'\u02B1', // breathy aspirated
	'\u02B7', // labialized
	'\u02B2', // palatalized
	'\u02E0', // velarized
	'\u02E4', // pharyngealized
	'\u207F', // nasal release
	'\u02E1', // lateral release
	'\u02DE', // rhoticity
	'\u02D1', // half-long
	'\u02D0', // long
}

var (
	diacriticRank = func() map[rune]int {
		m := make(map[rune]int, len(diacriticOrder))
		for i, r := range diacriticOrder {
			m[r] = i
		}
		return m
	}()

	unknownRank = len(diacriticOrder)
	tieRank     = unknownRank + 1
)

var toneMarks = map[rune]struct{}{
	'\u0301': {}, // high
	'\u0300': {}, // low
	'\u0304': {}, // mid
	'\u030C': {}, // rising
	'\u0302': {}, // falling
	'\u030F': {}, // extra low
	'\u030B': {}, // extra high
}

var toneLetters = map[rune]struct{}{
	'\u02E5': {}, '\u02E6': {}, '\u02E7': {}, '\u02E8': {}, '\u02E9': {},
	'\u00B9': {}, '\u00B2': {}, '\u00B3': {}, '\u2074': {}, '\u2075': {},
	'\u2081': {}, '\u2082': {}, '\u2083': {}, '\u2084': {}, '\u2085': {},
}

var ipaSubstitutions = strings.NewReplacer(
	"g", "\u0261",
	"'", "ˈ",
	`"`, "ˈ",
)

var affricates = strings.NewReplacer(
	"ʧ", "t\u0361ʃ",
	"ʤ", "d\u0361ʒ",
	"ʦ", "t\u0361s",
	"ʣ", "d\u0361z",
)

// Options controls the optional steps of the pipeline.
type Options struct {
	// PreserveTones keeps tone marks and tone letters.
	PreserveTones bool

	// IPASubstitutions maps ASCII look-alikes to IPA code points
	// (g -> ɡ, apostrophe and quote -> primary stress).
	IPASubstitutions bool

	// DecomposeAffricates rewrites ligature affricates (ʧ ʤ ʦ ʣ) as tied sequences.
	DecomposeAffricates bool
}

// Option configures a Normalizer.
type Option func(*Options)

// WithPreserveTones keeps tone marks instead of removing them.
func WithPreserveTones() Option {
	return func(o *Options) { o.PreserveTones = true }
}

// WithIPASubstitutions enables ASCII to IPA code point substitutions.
func WithIPASubstitutions() Option {
	return func(o *Options) { o.IPASubstitutions = true }
}

// WithDecomposeAffricates rewrites affricate ligatures as tied sequences.
func WithDecomposeAffricates() Option {
	return func(o *Options) { o.DecomposeAffricates = true }
}

// Normalizer canonicalizes phonetic strings. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer.
func New(optFns ...Option) *Normalizer {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Normalizer{opts: opts}
}

// Default is the Normalizer with every optional step disabled.
var Default = New()

// String normalizes text with the Default normalizer.
func String(text string) string {
	return Default.Normalize(text)
}

// Options returns the configured options.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize runs the full pipeline. It never fails; malformed input yields a
// best-effort result.
func (n *Normalizer) Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = norm.NFD.String(text)
	text = UnifyLength(text)

	if n.opts.IPASubstitutions {
		text = ipaSubstitutions.Replace(text)
	}
	if n.opts.DecomposeAffricates {
		text = affricates.Replace(text)
	}

	if !n.opts.PreserveTones {
		text = RemoveTones(text)
	}

	text = OrderDiacritics(text)
	return CanonicalizeTies(text)
}

// UnifyLength collapses ASCII colon notation to the IPA length mark.
func UnifyLength(text string) string {
	if !strings.Contains(text, ":") {
		return text
	}
	text = strings.ReplaceAll(text, "::", "ːː")
	return strings.ReplaceAll(text, ":", "ː")
}

// RemoveTones drops combining tone marks and tone letters.
func RemoveTones(text string) string {
	return strings.Map(func(r rune) rune {
		if IsToneMark(r) || IsToneLetter(r) {
			return -1
		}
		return r
	}, text)
}

// IsToneMark reports whether r is a combining tone diacritic.
func IsToneMark(r rune) bool {
	_, ok := toneMarks[r]
	return ok
}

// IsToneLetter reports whether r is a Chao tone letter or tone number.
func IsToneLetter(r rune) bool {
	_, ok := toneLetters[r]
	return ok
}

// IsTie reports whether r is any accepted tie-bar form.
func IsTie(r rune) bool {
	_, ok := tieVariants[r]
	return ok
}

// IsCombining reports whether r is a combining mark.
func IsCombining(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me, unicode.Mc)
}

// attaches reports whether r belongs to the preceding base character.
func attaches(r rune) bool {
	if IsCombining(r) || IsTie(r) {
		return true
	}
	_, known := diacriticRank[r]
	return known
}

func rank(r rune) int {
	if IsTie(r) {
		return tieRank
	}
	if i, ok := diacriticRank[r]; ok {
		return i
	}
	return unknownRank
}

func ccc(r rune) uint8 {
	return norm.NFD.PropertiesString(string(r)).CCC()
}

// OrderDiacritics sorts the attachments of every base character by the
// diacritic priority list. Tie bars are kept after every other attachment.
// A space directly before a combining mark is dropped so the mark rejoins its
// base.
func OrderDiacritics(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	cluster := make([]rune, 0, 4)

	flush := func() {
		slices.SortStableFunc(cluster, func(a, b rune) int {
			ra, rb := rank(a), rank(b)
			if ra != rb {
				return ra - rb
			}
			if ra == unknownRank {
				// NFD orders runs of marks by combining class; sorting the same
				// way keeps the result a fixed point.
				return int(ccc(a)) - int(ccc(b))
			}
			return 0
		})
		out = append(out, cluster...)
		cluster = cluster[:0]
	}

	for i, r := range runes {
		if r == ' ' && i+1 < len(runes) && IsCombining(runes[i+1]) && len(out)+len(cluster) > 0 {
			continue
		}
		if attaches(r) {
			cluster = append(cluster, r)
			continue
		}
		flush()
		out = append(out, r)
	}
	flush()

	return string(out)
}

// CanonicalizeTies maps every tie variant to U+0361, collapses repeated ties,
// and drops ties that do not sit between two symbols.
func CanonicalizeTies(text string) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	pending := false

	for _, r := range runes {
		if IsTie(r) {
			if len(out) > 0 {
				pending = true
			}
			continue
		}
		if pending && !attaches(r) {
			out = append(out, Tie)
		}
		if !attaches(r) {
			pending = false
		}
		out = append(out, r)
	}

	return string(out)
}

// NFC returns the composed form of text, suitable for display.
func NFC(text string) string {
	return norm.NFC.String(text)
}

// IsValidIPA reports whether text only contains IPA letters, modifiers,
// diacritics, and the delimiters " []/.".
func IsValidIPA(text string) bool {
	for _, r := range text {
		switch {
		case isIPALetter(r), IsModifier(r), IsCombining(r), IsTie(r):
		case strings.ContainsRune(" []/.", r):
		default:
			return false
		}
	}
	return true
}

func isIPALetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 0x0250 && r <= 0x02AF: // IPA Extensions
		return true
	case r >= 0x1D00 && r <= 0x1DBF: // Phonetic Extensions (+ Supplement)
		return true
	case strings.ContainsRune("æçðøħŋœǀǁǂǃθβχ", r):
		return true
	}
	return false
}

// IsModifier reports whether r is a spacing modifier letter or tone letter.
func IsModifier(r rune) bool {
	switch {
	case r >= 0x02B0 && r <= 0x02FF: // Spacing Modifier Letters
		return true
	case r >= 0xA700 && r <= 0xA71F: // Modifier Tone Letters
		return true
	case r == 0x207F: // superscript n
		return true
	}
	return false
}
