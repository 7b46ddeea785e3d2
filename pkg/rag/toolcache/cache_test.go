package toolcache

import (
	"context"
	"log"
	"testing"
	"time"

	"campus-qa-be/pkg/rag/tools"
	"campus-qa-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyIsStableAcrossParamOrder(t *testing.T) {
	a := cacheKey("get_person_schedule", map[string]interface{}{
		"program": "BSCS", "year_level": "2",
	})
	b := cacheKey("get_person_schedule", map[string]interface{}{
		"year_level": "2", "program": "BSCS",
	})
	assert.Equal(t, a, b, "equivalent invocations must share one key")
}

func TestCacheKeySeparatesToolsAndParams(t *testing.T) {
	base := cacheKey("get_person_schedule", map[string]interface{}{"program": "BSCS"})

	assert.NotEqual(t, base, cacheKey("get_student_grades", map[string]interface{}{"program": "BSCS"}))
	assert.NotEqual(t, base, cacheKey("get_person_schedule", map[string]interface{}{"program": "BSIT"}))
}

func TestDisabledCacheDegradesSilently(t *testing.T) {
	c := NewCache(nil, log.Default())
	ctx := context.Background()
	params := map[string]interface{}{"person_name": "Jared"}
	result := &tools.Result{Status: tools.StatusSuccess, Documents: []store.Document{{Content: "x"}}}

	assert.Nil(t, c.Get(ctx, "get_person_profile", params))
	assert.NotPanics(t, func() {
		c.Set(ctx, "get_person_profile", params, result, time.Minute)
	})

	var nilCache *Cache
	assert.Nil(t, nilCache.Get(ctx, "get_person_profile", params))
	assert.NotPanics(t, func() {
		nilCache.Set(ctx, "get_person_profile", params, result, time.Minute)
	})
}
