// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidtube/pkg/identity"
)

/*
TestUsername verifies case folding and Unicode compatibility normalization.
*/
func TestUsername(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower", "alice", "alice"},
		{"mixed_case", "AlIcE", "alice"},
		{"padded", "  Bob  ", "bob"},
		{"full_width", "Ａｌｉｃｅ", "alice"},
		{"ligature", "ﬁona", "fiona"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.Username(tt.input))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", identity.Email("  Alice@Example.com "))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "u:alice", identity.Key("Alice", "alice@example.com"))
	assert.Equal(t, "e:alice@example.com", identity.Key("", " Alice@Example.com"))
	assert.Empty(t, identity.Key(" ", ""))

	// Key and lookup share one canonical email.
	assert.Equal(t, "e:"+identity.Email("BOB@Example.com"), identity.Key("", "BOB@Example.com"))
}
