package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"neorecon/internal/core/model"
)

func resp(code int, body string) *model.Response {
	return &model.Response{StatusCode: code, Body: body}
}

func TestClassifyDistinctCodes(t *testing.T) {
	rule := &model.SiteRule{EString: "profile-card", ECode: 200, MString: "Page not found", MCode: 404}

	assert.Equal(t, model.StatusFound, Classify(rule, resp(200, `<div class="profile-card">`)))
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(404, "Page not found")))
	// existence string present but code wrong
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(404, `<div class="profile-card">`)))
	// existence matched but missing string also present
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(200, `profile-card Page not found`)))
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(200, "nothing")))
}

func TestClassifyAmbiguousCodes(t *testing.T) {
	rule := &model.SiteRule{EString: `"user":`, ECode: 200, MString: `"user":null`, MCode: 200}

	status, signals := Explain(rule, resp(200, `{"user":{"id":1}}`))
	assert.Equal(t, model.StatusFound, status)
	assert.True(t, signals.Ambiguous)
	assert.False(t, signals.MissingByCode)

	status, signals = Explain(rule, resp(200, `{"user":null}`))
	assert.Equal(t, model.StatusNotFound, status)
	assert.True(t, signals.MissingByString)
	assert.False(t, signals.MissingByCode)
}

func TestClassifyCodeOnly(t *testing.T) {
	// e_string 为空时只看状态码
	rule := &model.SiteRule{ECode: 200, MString: "not found", MCode: 404}
	assert.Equal(t, model.StatusFound, Classify(rule, resp(200, "")))
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(404, "")))
}

func TestClassifyCodeMismatchExcludes(t *testing.T) {
	rule := &model.SiteRule{EString: "Sorry", ECode: 404, MString: "", MCode: 200}
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(200, "no Sorry here")))
}

func TestClassifyEmptyMissingStringAlwaysExcludes(t *testing.T) {
	rule := &model.SiteRule{EString: "Sorry", ECode: 404, MString: "", MCode: 200}
	status, signals := Explain(rule, resp(404, "no Sorry here"))
	assert.Equal(t, model.StatusNotFound, status)
	assert.True(t, signals.Existence)
	assert.True(t, signals.MissingByString)

	// 状态码相同的情况也一样
	rule = &model.SiteRule{EString: "profile", ECode: 200, MCode: 200}
	assert.Equal(t, model.StatusNotFound, Classify(rule, resp(200, "profile")))
}

func TestClassifyNeverNone(t *testing.T) {
	rule := &model.SiteRule{EString: "x", ECode: 200, MString: "y", MCode: 404}
	for _, r := range []*model.Response{resp(0, ""), resp(200, "x"), resp(200, "xy"), resp(500, "x")} {
		assert.NotEqual(t, model.StatusNone, Classify(rule, r))
	}
}
