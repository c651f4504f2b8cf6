package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw  string
		want EntityKind
	}{
		{"article", KindArticle},
		{"articles", KindArticle},
		{" Events ", KindEvent},
		{"publication", KindPublication},
		{"products", KindProduct},
		{"company", KindCompany},
		{"companies", KindCompany},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseKind(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind_Unknown(t *testing.T) {
	for _, raw := range []string{"", "author", "companys", "s"} {
		_, err := ParseKind(raw)
		assert.True(t, errors.Is(err, ErrUnknownKind), "raw=%q err=%v", raw, err)
	}
}

func TestKindSpecs(t *testing.T) {
	for _, k := range Kinds() {
		spec, err := k.Spec()
		require.NoError(t, err)
		assert.Equal(t, k, spec.Kind)
		assert.NotEmpty(t, spec.EntityTable)
		assert.NotEmpty(t, spec.LinkTable)
		assert.NotEmpty(t, spec.TitleColumn)
	}

	article, _ := KindArticle.Spec()
	assert.True(t, article.HasHighlight)
	assert.False(t, article.HasRedirect)

	publication, _ := KindPublication.Spec()
	assert.True(t, publication.HasRedirect)
	assert.False(t, publication.HasHighlight)

	_, err := EntityKind("author").Spec()
	assert.ErrorIs(t, err, ErrUnknownKind)
}
