package collection

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tdewolff/opentype"
)

// Style is the slant of a face.
type Style int

// Styles ordered by slant, used for distances between faces.
const (
	StyleRegular Style = iota
	StyleOblique
	StyleItalic
)

func (style Style) String() string {
	switch style {
	case StyleRegular:
		return "Regular"
	case StyleOblique:
		return "Oblique"
	case StyleItalic:
		return "Italic"
	}
	return fmt.Sprintf("Style(%d)", int(style))
}

// FontSubfamily identifies a face within a family. Weight is an OS/2 weight class (100-900) and Width an OS/2 width class (1-9).
type FontSubfamily struct {
	Style  Style
	Weight int
	Width  int
}

// Normal is the upright face of normal weight and width.
var Normal = FontSubfamily{StyleRegular, opentype.WeightNormal, opentype.WidthNormal}

var weightNames = map[int]string{
	opentype.WeightThin:       "Thin",
	opentype.WeightExtraLight: "ExtraLight",
	opentype.WeightLight:      "Light",
	opentype.WeightMedium:     "Medium",
	opentype.WeightSemiBold:   "SemiBold",
	opentype.WeightBold:       "Bold",
	opentype.WeightExtraBold:  "ExtraBold",
	opentype.WeightBlack:      "Black",
}

var widthNames = map[int]string{
	opentype.WidthUltraCondensed: "UltraCondensed",
	opentype.WidthExtraCondensed: "ExtraCondensed",
	opentype.WidthCondensed:      "Condensed",
	opentype.WidthSemiCondensed:  "SemiCondensed",
	opentype.WidthSemiExpanded:   "SemiExpanded",
	opentype.WidthExpanded:       "Expanded",
	opentype.WidthExtraExpanded:  "ExtraExpanded",
	opentype.WidthUltraExpanded:  "UltraExpanded",
}

// String returns a name such as "Condensed Bold Italic", or "Regular" for the normal face.
func (sub FontSubfamily) String() string {
	words := []string{}
	if sub.Width != opentype.WidthNormal {
		if name, ok := widthNames[sub.Width]; ok {
			words = append(words, name)
		} else {
			words = append(words, fmt.Sprintf("Width%d", sub.Width))
		}
	}
	if sub.Weight != opentype.WeightNormal {
		if name, ok := weightNames[sub.Weight]; ok {
			words = append(words, name)
		} else {
			words = append(words, fmt.Sprintf("Weight%d", sub.Weight))
		}
	}
	if sub.Style != StyleRegular {
		words = append(words, sub.Style.String())
	}
	if len(words) == 0 {
		return "Regular"
	}
	return strings.Join(words, " ")
}

// Distance is the cost of substituting sub by other. Style dominates, then width, then weight.
func (sub FontSubfamily) Distance(other FontSubfamily) int {
	return 1000*abs(int(sub.Style)-int(other.Style)) + abs(sub.Weight-other.Weight) + 100*abs(sub.Width-other.Width)
}

func (sub FontSubfamily) less(other FontSubfamily) bool {
	if sub.Style != other.Style {
		return sub.Style < other.Style
	} else if sub.Width != other.Width {
		return sub.Width < other.Width
	}
	return sub.Weight < other.Weight
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// ParseSubfamily reads style, weight and width keywords such as "SemiBold Italic" or "Extra Condensed". Unknown words are ignored and missing properties are normal.
func ParseSubfamily(s string) FontSubfamily {
	sub := Normal
	allTokens(strings.Fields(s)).apply(&sub)
	return sub
}

type tokenKind int

const (
	styleToken tokenKind = iota
	weightToken
	widthToken
)

type keyword struct {
	kind  tokenKind
	value int
}

var keywords = map[string]keyword{
	"regular": {styleToken, int(StyleRegular)},
	"roman":   {styleToken, int(StyleRegular)},
	"upright": {styleToken, int(StyleRegular)},
	"normal":  {styleToken, int(StyleRegular)},
	"italic":  {styleToken, int(StyleItalic)},
	"it":      {styleToken, int(StyleItalic)},
	"oblique": {styleToken, int(StyleOblique)},
	"slanted": {styleToken, int(StyleOblique)},

	"thin":       {weightToken, opentype.WeightThin},
	"hairline":   {weightToken, opentype.WeightThin},
	"extralight": {weightToken, opentype.WeightExtraLight},
	"ultralight": {weightToken, opentype.WeightExtraLight},
	"light":      {weightToken, opentype.WeightLight},
	"semilight":  {weightToken, 350},
	"book":       {weightToken, opentype.WeightNormal},
	"medium":     {weightToken, opentype.WeightMedium},
	"semibold":   {weightToken, opentype.WeightSemiBold},
	"demibold":   {weightToken, opentype.WeightSemiBold},
	"demi":       {weightToken, opentype.WeightSemiBold},
	"bold":       {weightToken, opentype.WeightBold},
	"extrabold":  {weightToken, opentype.WeightExtraBold},
	"ultrabold":  {weightToken, opentype.WeightExtraBold},
	"heavy":      {weightToken, opentype.WeightBlack},
	"black":      {weightToken, opentype.WeightBlack},
	"extrablack": {weightToken, opentype.WeightBlack},
	"ultrablack": {weightToken, opentype.WeightBlack},

	"ultracondensed": {widthToken, opentype.WidthUltraCondensed},
	"extracondensed": {widthToken, opentype.WidthExtraCondensed},
	"compressed":     {widthToken, opentype.WidthExtraCondensed},
	"condensed":      {widthToken, opentype.WidthCondensed},
	"cond":           {widthToken, opentype.WidthCondensed},
	"narrow":         {widthToken, opentype.WidthCondensed},
	"semicondensed":  {widthToken, opentype.WidthSemiCondensed},
	"semiexpanded":   {widthToken, opentype.WidthSemiExpanded},
	"expanded":       {widthToken, opentype.WidthExpanded},
	"extended":       {widthToken, opentype.WidthExpanded},
	"wide":           {widthToken, opentype.WidthExpanded},
	"extraexpanded":  {widthToken, opentype.WidthExtraExpanded},
	"extraextended":  {widthToken, opentype.WidthExtraExpanded},
	"ultraexpanded":  {widthToken, opentype.WidthUltraExpanded},
	"ultraextended":  {widthToken, opentype.WidthUltraExpanded},
}

// prefixes modify the keyword that follows them, possibly in the next word.
var prefixes = map[string]string{
	"extra": "extra",
	"ext":   "extra",
	"ultra": "ultra",
	"semi":  "semi",
	"demi":  "semi",
}

type tokens struct {
	style, weight, width *int
}

func (toks *tokens) set(kw keyword) {
	v := kw.value
	switch kw.kind {
	case styleToken:
		toks.style = &v
	case weightToken:
		toks.weight = &v
	case widthToken:
		toks.width = &v
	}
}

// merge overrides the tokens that are set in other.
func (toks *tokens) merge(other tokens) {
	if other.style != nil {
		toks.style = other.style
	}
	if other.weight != nil {
		toks.weight = other.weight
	}
	if other.width != nil {
		toks.width = other.width
	}
}

func (toks tokens) apply(sub *FontSubfamily) {
	if toks.style != nil {
		sub.Style = Style(*toks.style)
	}
	if toks.weight != nil {
		sub.Weight = *toks.weight
	}
	if toks.width != nil {
		sub.Width = *toks.width
	}
}

type part struct {
	s    string
	word int
}

// splitWord splits on hyphens, underscores and lower-to-upper case changes, so that "SemiBold" and "Semi-Bold" both give two parts.
func splitWord(word string) []string {
	parts := []string{}
	start := 0
	runes := []rune(word)
	for i, r := range runes {
		if r == '-' || r == '_' {
			if start < i {
				parts = append(parts, string(runes[start:i]))
			}
			start = i + 1
		} else if 0 < i && start < i && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

// trailingTokens matches the trailing words against the keyword table, from the last word backwards, until a word does not consist solely of keywords. It returns the matched tokens and the number of leading words that were not matched. The leftmost keyword of each kind wins.
func trailingTokens(words []string) (tokens, int) {
	parts := []part{}
	for i, word := range words {
		for _, s := range splitWord(word) {
			parts = append(parts, part{strings.ToLower(s), i})
		}
	}

	type match struct {
		kw   keyword
		word int
	}
	matches := []match{}
	cut := 0
	for k := len(parts) - 1; 0 <= k; k-- {
		kw, ok := keywords[parts[k].s]
		if 0 < k {
			if prefix, isPrefix := prefixes[parts[k-1].s]; isPrefix {
				if kw2, ok2 := keywords[prefix+parts[k].s]; ok2 {
					kw, ok = kw2, true
					k--
				}
			}
		}
		if !ok {
			// drop the partially matched word
			cut = parts[k].word + 1
			for 0 < len(matches) && matches[len(matches)-1].word == parts[k].word {
				matches = matches[:len(matches)-1]
			}
			break
		}
		matches = append(matches, match{kw, parts[k].word})
	}

	toks := tokens{}
	for _, m := range matches {
		toks.set(m.kw)
	}
	return toks, cut
}

// allTokens matches all words, skipping the ones that are not keywords.
func allTokens(words []string) tokens {
	toks := tokens{}
	for 0 < len(words) {
		trailing, cut := trailingTokens(words)
		toks.merge(trailing)
		if cut == len(words) {
			cut-- // skip unknown word
		}
		words = words[:cut]
	}
	return toks
}

// faceInfo holds the properties of a font from which its family and subfamily are derived.
type faceInfo struct {
	family, subfamily string
	weightClass       int
	widthClass        int
	italic, oblique   bool
}

type namePair struct {
	family, subfamily opentype.NameID
}

// namePairs in order of preference.
var namePairs = []namePair{
	{opentype.NameWWSFamily, opentype.NameWWSSubfamily},
	{opentype.NameTypographicFamily, opentype.NameTypographicSubfamily},
	{opentype.NameFontFamily, opentype.NameFontSubfamily},
}

func describe(f *opentype.Font) faceInfo {
	info := faceInfo{}
	for i, pair := range namePairs {
		if family := f.Name(pair.family); family != "" {
			info.family = family
			for _, pair := range namePairs[i:] {
				if subfamily := f.Name(pair.subfamily); subfamily != "" {
					info.subfamily = subfamily
					break
				}
			}
			break
		}
	}

	info.weightClass = int(f.WeightClass())
	info.widthClass = int(f.WidthClass())
	if !f.HasOS2() && f.MacStyle()&opentype.MacStyleBold != 0 {
		info.weightClass = opentype.WeightBold
	}
	info.italic = f.IsItalic()
	info.oblique = f.FsSelection()&opentype.FsSelectionOblique != 0
	return info
}

// resolve derives the family name and subfamily. Keywords trailing the family name are moved to the subfamily and reconciled with the OS/2 classes.
func (info faceInfo) resolve() (string, FontSubfamily) {
	family := strings.Join(strings.Fields(info.family), " ")
	words := strings.Fields(family)
	toks, cut := trailingTokens(words)
	if 0 < cut && cut < len(words) {
		family = strings.Join(words[:cut], " ")
	}
	toks.merge(allTokens(strings.Fields(info.subfamily)))

	sub := FontSubfamily{
		Style:  StyleRegular,
		Weight: normalizeWeight(info.weightClass),
		Width:  info.widthClass,
	}
	if sub.Width < opentype.WidthUltraCondensed || opentype.WidthUltraExpanded < sub.Width {
		sub.Width = opentype.WidthNormal
	}
	if info.italic {
		sub.Style = StyleItalic
	} else if info.oblique {
		sub.Style = StyleOblique
	}

	if toks.style != nil {
		sub.Style = Style(*toks.style)
	}
	if toks.weight != nil && weightTokenWins(*toks.weight, sub.Weight) {
		sub.Weight = *toks.weight
	}
	if toks.width != nil && side(*toks.width-opentype.WidthNormal) != side(sub.Width-opentype.WidthNormal) {
		sub.Width = *toks.width
	}
	return family, sub
}

// weightTokenWins reports whether a weight keyword overrides the OS/2 weight class. Both must be lighter than normal, or they must be close and the class must not be one of the common defaults.
func weightTokenWins(token, class int) bool {
	if token < opentype.WeightNormal && class < opentype.WeightNormal {
		return true
	}
	switch class {
	case opentype.WeightBold, opentype.WeightNormal, opentype.WeightMedium:
		return false
	}
	return abs(token-class) < 150
}

func normalizeWeight(class int) int {
	if class <= 0 {
		return opentype.WeightNormal
	} else if class < 10 {
		return 100 * class // some old fonts use 1-9
	} else if 1000 < class {
		return 1000
	}
	return class
}

func side(d int) int {
	if d < 0 {
		return -1
	} else if 0 < d {
		return 1
	}
	return 0
}
