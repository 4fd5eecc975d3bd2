package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompterString(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nvalue\n"), &out)

	assert.Equal(t, "fallback", p.String("Name", "fallback"))
	assert.Equal(t, "value", p.String("Name", "fallback"))
	assert.Contains(t, out.String(), "Name [fallback]: ")
}

func TestPrompterRequiredRetries(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n\nfiles\n"), &out)

	assert.Equal(t, "files", p.Required("Bucket", ""))
	assert.Equal(t, 2, strings.Count(out.String(), "A value is required"))
}

func TestPrompterRequiredEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	assert.Equal(t, "", p.Required("Bucket", ""))
}

func TestPrompterChoice(t *testing.T) {
	p := NewPrompter(strings.NewReader("9\n2\n"), &bytes.Buffer{})
	assert.Equal(t, 1, p.Choice("Provider", []string{"supabase", "s3", "minio"}, 0))

	p = NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	assert.Equal(t, 0, p.Choice("Provider", []string{"supabase", "s3"}, 0))
}

func TestPrompterYesNo(t *testing.T) {
	p := NewPrompter(strings.NewReader("maybe\nyes\n"), &bytes.Buffer{})
	assert.True(t, p.YesNo("Overwrite", false))

	p = NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	assert.False(t, p.YesNo("Overwrite", false))
}
