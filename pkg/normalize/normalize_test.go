package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes_StripsCRLF(t *testing.T) {
	assert.Equal(t, []byte("svn://new.com/repos/lib ^/lib\n"),
		Bytes([]byte("svn://new.com/repos/lib ^/lib\r\n")))
}

func TestBytes_StripsLoneCR(t *testing.T) {
	assert.Equal(t, []byte("ab"), Bytes([]byte("a\rb")))
}

func TestBytes_NoCRIsUnchanged(t *testing.T) {
	assert.Equal(t, []byte("no carriage returns here"), Bytes([]byte("no carriage returns here")))
}

func TestBytes_AllCR(t *testing.T) {
	assert.Empty(t, Bytes([]byte("\r\r\r")))
}

func TestBytes_Empty(t *testing.T) {
	assert.Empty(t, Bytes([]byte{}))
}
