// Package instruction tokenizes directive instruction strings and extracts
// positional arguments, flags and key-prefixed fields from them.
// Intentionally flat: whitespace-delimited tokens, no grammar.
package instruction

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Separator divides a package name from a local name.
	Separator = "."
	// FlagPrefix starts every flag token.
	FlagPrefix = "--"
	// FieldSeparator ends the key of a key-prefixed field.
	FieldSeparator = ":"
	// ListSeparator splits list-typed field values.
	ListSeparator = ","
)

// Instruction is an immutable parsed instruction string together with the
// package that owns it.
type Instruction struct {
	raw    string
	pkg    string
	tokens []string
}

// Parse splits raw on whitespace. pkg is used to qualify bare names.
func Parse(raw, pkg string) *Instruction {
	return &Instruction{
		raw:    raw,
		pkg:    pkg,
		tokens: strings.Fields(raw),
	}
}

// Raw returns the original instruction text.
func (i *Instruction) Raw() string { return i.raw }

// Package returns the owning package name.
func (i *Instruction) Package() string { return i.pkg }

// Len returns the number of tokens.
func (i *Instruction) Len() int { return len(i.tokens) }

// Tokens returns a copy of all tokens in order.
func (i *Instruction) Tokens() []string {
	out := make([]string, len(i.tokens))
	copy(out, i.tokens)
	return out
}

// Type returns the type tag used for registry lookup: the first token, or
// its key when the first token is a field ("tag:cured" has type "tag").
// Empty instructions have an empty type.
func (i *Instruction) Type() string {
	if len(i.tokens) == 0 {
		return ""
	}
	first := i.tokens[0]
	if strings.HasPrefix(first, FlagPrefix) {
		return first
	}
	if k := strings.Index(first, ":"); k > 0 {
		return first[:k]
	}
	return first
}

// Token returns the n-th token (0 is the type tag).
func (i *Instruction) Token(n int) (string, error) {
	if n < 0 || n >= len(i.tokens) {
		return "", i.malformed("", "not enough arguments")
	}
	return i.tokens[n], nil
}

// Int returns the n-th token converted to an integer.
func (i *Instruction) Int(n int) (int, error) {
	tok, err := i.Token(n)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, i.malformed(tok, "could not parse a number")
	}
	return v, nil
}

// Flag reports whether a "--name" token is present. Repeated flags are
// the same as one.
func (i *Instruction) Flag(name string) bool {
	want := FlagPrefix + name
	for _, tok := range i.tokens {
		if tok == want {
			return true
		}
	}
	return false
}

// Field returns the value of the first "key:value" token. A token that is
// exactly "key:" yields an empty value with ok set.
func (i *Instruction) Field(key string) (string, bool) {
	prefix := key + FieldSeparator
	for _, tok := range i.tokens {
		if strings.HasPrefix(tok, prefix) {
			return tok[len(prefix):], true
		}
	}
	return "", false
}

// RequiredField is Field but fails when the key is absent or empty.
func (i *Instruction) RequiredField(key string) (string, error) {
	v, ok := i.Field(key)
	if !ok || v == "" {
		return "", i.malformed(key+FieldSeparator, "missing required field")
	}
	return v, nil
}

// IntField returns an integer field, or def when the key is absent.
func (i *Instruction) IntField(key string, def int) (int, error) {
	v, ok := i.Field(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, i.malformed(key+FieldSeparator+v, "could not parse a number")
	}
	return n, nil
}

// List returns the comma-separated values of a field, each qualified with
// the instruction's package. Absent fields yield nil.
func (i *Instruction) List(key string) []string {
	v, ok := i.Field(key)
	if !ok {
		return nil
	}
	return QualifyAll(SplitList(v), i.pkg)
}

// Qualify qualifies a single name against the instruction's package.
func (i *Instruction) Qualify(name string) string {
	return Qualify(name, i.pkg)
}

func (i *Instruction) malformed(token, cause string) *MalformedError {
	return &MalformedError{Instruction: i.raw, Token: token, Cause: cause}
}

// Malformed builds a MalformedError for this instruction. Handler
// factories use it to report content problems they detect themselves.
func (i *Instruction) Malformed(token, cause string) error {
	return i.malformed(token, cause)
}

// Qualify prefixes name with pkg unless it already contains Separator.
func Qualify(name, pkg string) string {
	if strings.Contains(name, Separator) || pkg == "" {
		return name
	}
	return pkg + Separator + name
}

// QualifyAll qualifies every name in place and returns the slice.
func QualifyAll(names []string, pkg string) []string {
	for n, name := range names {
		names[n] = Qualify(name, pkg)
	}
	return names
}

// Split separates a qualified name into package and local name. Bare names
// have an empty package.
func Split(name string) (pkg, local string) {
	idx := strings.Index(name, Separator)
	if idx < 0 {
		return "", name
	}
	return name[:idx], name[idx+len(Separator):]
}

// SplitList splits a comma-separated value, dropping empty entries.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ListSeparator) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MalformedError reports an instruction that is syntactically valid text
// but cannot be interpreted: missing arguments, bad numbers, unknown modes.
type MalformedError struct {
	Instruction string
	Token       string
	Cause       string
}

func (e *MalformedError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("malformed instruction %q: %s", e.Instruction, e.Cause)
	}
	return fmt.Sprintf("malformed instruction %q at %q: %s", e.Instruction, e.Token, e.Cause)
}
