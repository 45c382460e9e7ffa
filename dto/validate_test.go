package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeData(t *testing.T) {
	var p CreateProjectDTO
	err := DecodeData(`{"title":"Edit my wedding video","description":"Need a 10 minute highlight reel cut from 3 hours of footage.","type":"FIXED","budgetMin":"300"}`, &p)
	require.NoError(t, err)
	assert.Equal(t, "FIXED", p.Type)

	assert.EqualError(t, DecodeData("", &p), "missing data field")
	assert.Error(t, DecodeData("{", &p))

	var bad CreateProjectDTO
	err = DecodeData(`{"title":"Edit","description":"short","type":"WEEKLY","budgetMin":"1"}`, &bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title")
	assert.Contains(t, err.Error(), "Type")
}

func TestDecodeDataNested(t *testing.T) {
	var page CreatePageDTO
	err := DecodeData(`{"title":"About","sections":[{"heading":"no key"}]}`, &page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key")

	var blog CreateBlogDTO
	require.NoError(t, DecodeData(`{"title":"Hello","content":"<p>x</p>","status":"DRAFT"}`, &blog))
}
