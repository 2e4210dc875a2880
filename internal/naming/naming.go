// Package naming implements the two-way creative name cipher. Internal
// names follow the geo_slot_approach_comment_number convention; the
// external form is a short masked code safe to hand to partners.
package naming

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Masking styles for external codes.
const (
	StyleIPhone  = 1 // all lowercase
	StyleBlogger = 2 // every third char uppercase
	StyleRandom  = 3 // random case per char
)

const (
	internalKeyLen = 30
	maxHistory     = 1000
	maxDecodeParts = 5
)

// cipherPair is one base dictionary entry. Order matters: reverse
// lookups resolve conflicts in favor of later entries.
type cipherPair struct {
	word string
	code string
}

var baseCipher = []cipherPair{
	// Geographic codes
	{"BD", "q4"}, {"GR", "ns"}, {"US", "e5"}, {"BR", "x7"}, {"IN", "w9"}, {"UK", "m2"},
	{"DE", "k8"}, {"FR", "j6"}, {"IT", "h3"}, {"ES", "g1"}, {"CA", "f4"}, {"AU", "d2"},
	{"JP", "c7"}, {"KR", "b9"}, {"TH", "a1"}, {"VN", "z5"}, {"PH", "y8"}, {"ID", "x3"},
	{"MY", "w6"}, {"SG", "v9"}, {"TW", "u2"}, {"HK", "t5"}, {"MX", "s8"}, {"CO", "r1"},

	// Slot/game types
	{"plinko", "mn"}, {"chicken", "lp"}, {"slots", "7V"}, {"poker", "kj"}, {"crash", "hg"},
	{"blackjack", "fd"}, {"roulette", "sa"}, {"baccarat", "qw"}, {"mines", "er"}, {"wheel", "ty"},
	{"aviator", "ui"}, {"keno", "op"}, {"limbo", "as"}, {"dice", "df"}, {"hilo", "gh"},
	{"towers", "jk"}, {"stairs", "zx"}, {"balloon", "cv"}, {"goal", "bn"}, {"scratch", "nm"},

	// Approaches
	{"timer", "08"}, {"couple", "lu"}, {"prank", "d9"}, {"fake", "c8"}, {"review", "b7"},
	{"tutorial", "a6"}, {"reaction", "95"}, {"unboxing", "84"}, {"challenge", "73"},
	{"lifestyle", "62"}, {"travel", "51"}, {"cooking", "40"}, {"gym", "39"}, {"car", "28"},
	{"adapt", "4c"}, {"native", "3b"}, {"banner", "2a"}, {"video", "19"}, {"carousel", "08"},

	// Comments
	{"nekittopchik", "3"}, {"topchik", "4"}, {"bomb", "5"}, {"fire", "6"}, {"mega", "7"},
	{"super", "8"}, {"ultra", "9"}, {"best", "1"}, {"new", "2"}, {"hot", "0"},
	{"cool", "a"}, {"nice", "b"}, {"good", "c"}, {"great", "d"}, {"awesome", "e"},
	{"perfect", "f"}, {"amazing", "g"}, {"fantastic", "h"}, {"incredible", "i"}, {"wonderful", "j"},

	// Digits map to themselves
	{"1", "1"}, {"2", "2"}, {"3", "3"}, {"4", "4"}, {"5", "5"},
	{"6", "6"}, {"7", "7"}, {"8", "8"}, {"9", "9"}, {"0", "0"},
}

// ignoreExtensions are stripped before decoding so file names decode
// the same as bare codes.
var ignoreExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".jpg", ".png", ".gif"}

// EncodeResult is one encoded name. The internal code is the long
// hash-derived form kept for internal tracking.
type EncodeResult struct {
	External string `json:"external"`
	Internal string `json:"internal"`
	Original string `json:"original"`
	Style    int    `json:"style"`
}

// DecodeResult is one decode attempt.
type DecodeResult struct {
	Success     bool   `json:"success"`
	DecodedName string `json:"decoded_name,omitempty"`
	Type        string `json:"type,omitempty"`
	Code        string `json:"code,omitempty"`
	Method      string `json:"method,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HistoryRecord is one operation in the persisted audit trail.
type HistoryRecord struct {
	Timestamp string `json:"timestamp"`
	Operation string `json:"operation"`
	Input     string `json:"input"`
	Output    string `json:"output"`
	Success   bool   `json:"success"`
}

// System is the cipher with its persisted dictionary, code mappings
// and history. A system with an empty dir keeps everything in memory.
type System struct {
	mu         sync.Mutex
	dir        string
	cipher     map[string]string
	reverse    map[string]string
	codeToName map[string]string
	history    []HistoryRecord
	logger     *zap.Logger
	now        func() time.Time
	rng        *rand.Rand
}

// NewSystem loads any persisted dictionary state from dir. Base
// dictionary entries always take precedence over persisted ones.
func NewSystem(dir string, logger *zap.Logger) *System {
	s := &System{
		dir:        dir,
		cipher:     make(map[string]string, len(baseCipher)),
		reverse:    make(map[string]string, len(baseCipher)),
		codeToName: make(map[string]string),
		logger:     logger,
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, p := range baseCipher {
		s.cipher[strings.ToLower(p.word)] = strings.ToLower(p.code)
		s.reverse[strings.ToLower(p.code)] = strings.ToLower(p.word)
	}
	if dir != "" {
		s.loadFiles()
	}
	return s
}

func (s *System) loadFiles() {
	var saved map[string]string
	if readJSON(filepath.Join(s.dir, "dict.json"), &saved) == nil {
		for word, code := range saved {
			if _, ok := s.cipher[word]; !ok {
				s.cipher[word] = code
				s.reverse[code] = word
			}
		}
	}
	readJSON(filepath.Join(s.dir, "code_mappings.json"), &s.codeToName)
	readJSON(filepath.Join(s.dir, "naming_history.json"), &s.history)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *System) writeJSON(name string, v any) {
	if s.dir == "" {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("naming state dir unavailable", zap.Error(err))
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("failed to persist naming state", zap.String("file", name), zap.Error(err))
	}
}

// internalKey derives the long internal code: the first 30 hex chars
// of the name's SHA-256, alternating upper and lower case.
func internalKey(name string) string {
	sum := sha256.Sum256([]byte(name))
	hexSum := hex.EncodeToString(sum[:])
	var b strings.Builder
	for i, c := range hexSum[:internalKeyLen] {
		if i%2 == 0 {
			b.WriteRune(toUpper(c))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func toUpper(c rune) rune {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}

func (s *System) applyStyle(code string, style int) string {
	switch style {
	case StyleIPhone:
		return strings.ToLower(code)
	case StyleBlogger:
		var b strings.Builder
		for i, c := range code {
			if i%3 == 0 {
				b.WriteString(strings.ToUpper(string(c)))
			} else {
				b.WriteString(strings.ToLower(string(c)))
			}
		}
		return b.String()
	case StyleRandom:
		var b strings.Builder
		for _, c := range code {
			if s.rng.Intn(2) == 0 {
				b.WriteString(strings.ToUpper(string(c)))
			} else {
				b.WriteString(strings.ToLower(string(c)))
			}
		}
		return b.String()
	default:
		return code
	}
}

// Encode ciphers one creative name. Unknown words get fresh codes
// minted into the dictionary so the mapping stays two-way.
func (s *System) Encode(name string, style int) (EncodeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) < 3 {
		err := fmt.Errorf("invalid creative name %q: want geo_slot_approach_comment_number", name)
		s.addHistory("encode", name, "ERROR: "+err.Error(), false)
		return EncodeResult{Original: name}, err
	}

	part := func(i int, def string) string {
		if i < len(parts) {
			return parts[i]
		}
		return def
	}
	geo, slot, approach := parts[0], parts[1], part(2, "")
	comment, number := part(3, ""), part(4, "1")

	var coded []string
	coded = append(coded, s.codeFor(geo, 2))
	coded = append(coded, s.codeFor(slot, 2))
	if approach != "" {
		coded = append(coded, s.codeFor(approach, 2))
	}
	if comment != "" {
		coded = append(coded, s.codeFor(comment, 1))
	}
	// A trailing underscore leaves the number part empty; it simply
	// contributes nothing, same as the comment part.
	if number != "" {
		if code, ok := s.cipher[number]; ok {
			coded = append(coded, code)
		} else {
			coded = append(coded, number[:1])
		}
	}

	external := s.applyStyle(strings.Join(coded, ""), style)
	result := EncodeResult{
		External: external,
		Internal: internalKey(name),
		Original: name,
		Style:    style,
	}

	s.codeToName[strings.ToLower(external)] = strings.ToLower(name)
	s.writeJSON("code_mappings.json", s.codeToName)
	s.addHistory("encode", name, external, true)
	return result, nil
}

// codeFor returns the cipher code for a word, minting and persisting a
// new one when the word is unknown.
func (s *System) codeFor(word string, length int) string {
	if code, ok := s.cipher[word]; ok {
		return code
	}
	code := s.newCode(word, length)
	s.cipher[word] = code
	s.reverse[code] = word
	s.writeJSON("dict.json", s.cipher)
	s.logger.Info("minted cipher code", zap.String("word", word), zap.String("code", code))
	return code
}

// newCode builds a unique short code from the word's prefix plus a
// hash character, falling back to numbered suffixes on collision.
func (s *System) newCode(word string, length int) string {
	prefix := word
	if len(word) >= length-1 {
		prefix = word[:length-1]
	}
	sum := md5.Sum([]byte(word))
	candidate := prefix + hex.EncodeToString(sum[:])[:1]

	for counter := 1; s.taken(candidate); counter++ {
		candidate = prefix + fmt.Sprintf("%d", counter%10)
		if counter > 50 {
			candidate = hex.EncodeToString(sum[:])[:1] + fmt.Sprintf("%02d", 10+s.rng.Intn(90))
			break
		}
	}
	if len(candidate) > length {
		candidate = candidate[:length]
	}
	return candidate
}

func (s *System) taken(code string) bool {
	_, inReverse := s.reverse[code]
	_, inMappings := s.codeToName[code]
	return inReverse || inMappings
}

// Decode resolves a code back to a creative name. File extensions are
// stripped first; saved mappings win over piecewise decoding.
func (s *System) Decode(code string) DecodeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := stripExtension(code)

	if r, ok := s.decodeInternal(clean); ok {
		s.addHistory("decode", code, r.DecodedName, true)
		return r
	}
	if r, ok := s.decodeExternal(clean); ok {
		s.addHistory("decode", code, r.DecodedName, true)
		return r
	}

	result := DecodeResult{
		Success: false,
		Error:   fmt.Sprintf("unknown code format: %s", clean),
		Code:    clean,
	}
	s.addHistory("decode", code, "ERROR: "+result.Error, false)
	return result
}

func stripExtension(code string) string {
	lower := strings.ToLower(code)
	for _, ext := range ignoreExtensions {
		if strings.HasSuffix(lower, ext) {
			return code[:len(code)-len(ext)]
		}
	}
	return code
}

// decodeInternal matches the long mixed-case hash form.
func (s *System) decodeInternal(code string) (DecodeResult, bool) {
	if len(code) != internalKeyLen {
		return DecodeResult{}, false
	}
	hasUpper := strings.IndexFunc(code, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
	hasLower := strings.IndexFunc(code, func(r rune) bool { return r >= 'a' && r <= 'z' }) >= 0
	if !hasUpper || !hasLower {
		return DecodeResult{}, false
	}
	return DecodeResult{
		Success:     true,
		DecodedName: "[INTERNAL_CODE_MATCHED]",
		Type:        "internal",
		Code:        code,
	}, true
}

// decodeExternal tries the saved mapping first, then a greedy
// piecewise parse against the reverse dictionary, longest code first.
func (s *System) decodeExternal(code string) (DecodeResult, bool) {
	normalized := strings.ToLower(code)

	if name, ok := s.codeToName[normalized]; ok {
		return DecodeResult{
			Success:     true,
			DecodedName: name,
			Type:        "external_saved",
			Code:        code,
			Method:      "direct_mapping",
		}, true
	}

	if len(code) > 15 {
		return DecodeResult{}, false
	}

	var found []string
	for i := 0; i < len(normalized) && len(found) < maxDecodeParts; {
		matched := false
		for _, length := range []int{3, 2, 1} {
			if i+length > len(normalized) {
				continue
			}
			if word, ok := s.reverse[normalized[i:i+length]]; ok {
				found = append(found, word)
				i += length
				matched = true
				break
			}
		}
		if !matched {
			end := i + 2
			if end > len(normalized) {
				end = len(normalized)
			}
			found = append(found, "[UNKNOWN:"+normalized[i:end]+"]")
			i = end
		}
	}

	if len(found) == 0 {
		return DecodeResult{}, false
	}
	return DecodeResult{
		Success:     true,
		DecodedName: strings.Join(found, "_"),
		Type:        "external",
		Code:        code,
	}, true
}

// BatchEncode ciphers a list of names, collecting per-name failures
// into the result rather than aborting the batch.
func (s *System) BatchEncode(names []string, style int) []EncodeResult {
	results := make([]EncodeResult, 0, len(names))
	for _, name := range names {
		r, err := s.Encode(name, style)
		if err != nil {
			r = EncodeResult{Original: name}
		}
		results = append(results, r)
	}
	return results
}

// BatchDecode resolves a list of codes.
func (s *System) BatchDecode(codes []string) []DecodeResult {
	results := make([]DecodeResult, 0, len(codes))
	for _, code := range codes {
		results = append(results, s.Decode(code))
	}
	return results
}

// Dictionary returns a copy of the cipher dictionary.
func (s *System) Dictionary() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.cipher))
	for k, v := range s.cipher {
		out[k] = v
	}
	return out
}

// AddMapping registers a custom word/code pair.
func (s *System) AddMapping(word, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	word = strings.ToLower(word)
	code = strings.ToLower(code)
	s.cipher[word] = code
	s.reverse[code] = word
	s.writeJSON("dict.json", s.cipher)
}

// History returns the most recent n records, newest last.
func (s *System) History(n int) []HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	out := make([]HistoryRecord, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

func (s *System) addHistory(operation, input, output string, success bool) {
	s.history = append(s.history, HistoryRecord{
		Timestamp: s.now().Format(time.RFC3339),
		Operation: operation,
		Input:     input,
		Output:    output,
		Success:   success,
	})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	s.writeJSON("naming_history.json", s.history)
}
