package revisionist

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsmannschott/revisionist/pkg/ordmap"
)

// propertyReplaceAndNormalize builds an edit callback applying a
// single pattern/replace/normalize clause: replace a literal substring
// in every matched property's value, then strip any stray '\r' a
// Windows checkout left behind.
func propertyReplaceAndNormalize(pattern, oldVal, newVal string) func(*ordmap.Map) error {
	return func(props *ordmap.Map) error {
		for _, key := range props.Keys() {
			if props.IsDeletionRecord(key) {
				continue
			}
			matched, err := filepath.Match(pattern, key)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
			val, _ := props.GetString(key)
			val = strings.ReplaceAll(val, oldVal, newVal)
			val = string(crStrip(val))
			props.SetString(key, val)
		}
		return nil
	}
}

func crStrip(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return out
}

// externalsFixture carries a single revision property svn:externals
// whose value ends in "\r\n".
const externalsFixture = "SVN-fs-dump-format-version: 3\n" +
	"\n" +
	"Revision-number: 5\n" +
	"Prop-content-length: 66\n" +
	"Content-length: 66\n" +
	"\n" +
	"K 13\n" +
	"svn:externals\n" +
	"V 31\n" +
	"svn://old.com/repos/lib ^/lib\r\n" +
	"\n" +
	"PROPS-END\n" +
	"\n"

func TestEditStream_ReplaceHostAndNormalizeLineBreaks(t *testing.T) {
	var out bytes.Buffer
	err := EditStream(strings.NewReader(externalsFixture), &out,
		propertyReplaceAndNormalize("svn:externals", "old.com", "new.com"))
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Prop-content-length: 65\n")
	assert.Contains(t, got, "Content-length: 65\n")
	assert.Contains(t, got, "V 30\nsvn://new.com/repos/lib ^/lib\n")
	assert.NotContains(t, got, "\r")
}

// multiPropertyFixture carries two revision properties, only one of
// which matches the "svn:ext*" glob used below.
const multiPropertyFixture = "SVN-fs-dump-format-version: 3\n" +
	"\n" +
	"Revision-number: 9\n" +
	"Prop-content-length: 57\n" +
	"Content-length: 57\n" +
	"\n" +
	"K 13\n" +
	"svn:externals\n" +
	"V 3\n" +
	"foo\n" +
	"K 7\n" +
	"svn:log\n" +
	"V 3\n" +
	"bar\n" +
	"PROPS-END\n" +
	"\n"

func TestEditStream_GlobPatternOnlyMatchesSelectedProperty(t *testing.T) {
	var out bytes.Buffer
	err := EditStream(strings.NewReader(multiPropertyFixture), &out,
		propertyReplaceAndNormalize("svn:ext*", "foo", "quux"))
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "V 4\nquux\n")
	assert.Contains(t, got, "V 3\nbar\n")
}

func TestValidate_AcceptsWellFormedStream(t *testing.T) {
	require.NoError(t, Validate(strings.NewReader(externalsFixture)))
}

func TestValidate_RejectsTruncatedStream(t *testing.T) {
	truncated := strings.TrimSuffix(externalsFixture, "PROPS-END\n\n")
	err := Validate(strings.NewReader(truncated))
	require.Error(t, err)
}
