package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/icg/internal/models"
)

func testPersona() *models.Persona {
	return &models.Persona{
		ID:   "p1",
		Name: "Ava",
		Attributes: map[string]any{
			"age_range": "25-35",
			"gender":    "woman",
		},
	}
}

func TestPreviewPrompt(t *testing.T) {
	p := testPersona()
	p.Description = "freckles"
	p.Attributes["style"] = "casual"

	got := PreviewPrompt("professional headshot", p)
	assert.Equal(t,
		"professional headshot of a 25-35 year old woman, casual style, freckles, "+
			"high quality, professional photography, studio lighting", got)
}

func TestPreviewPromptDefaults(t *testing.T) {
	got := PreviewPrompt("casual portrait", &models.Persona{Name: "X"})
	assert.Equal(t,
		"casual portrait of a 25-35 year old person, "+
			"high quality, professional photography, studio lighting", got)
}

func TestPortraitPromptDefaults(t *testing.T) {
	got := PortraitPrompt(testPersona(), nil)
	assert.Equal(t,
		"professional portrait of Ava, a 25-35 year old woman, "+
			"business attire, professional headshot, studio background, professional lighting, "+
			"high quality, detailed, professional photography", got)
}

func TestPortraitPromptStyleAndSetting(t *testing.T) {
	got := PortraitPrompt(testPersona(), map[string]any{
		"style":             "artistic",
		"setting":           "nature",
		"additional_prompt": "soft focus",
	})
	assert.Equal(t,
		"professional portrait of Ava, a 25-35 year old woman, "+
			"artistic portrait, creative lighting, nature background, scenic environment, "+
			"high quality, detailed, professional photography, soft focus", got)
}

func TestFullBodyPrompt(t *testing.T) {
	got := FullBodyPrompt(testPersona(), map[string]any{"style": "casual", "setting": "outdoor"})
	assert.Equal(t,
		"full body shot of Ava, a 25-35 year old woman, "+
			"casual attire, relaxed pose, outdoor setting, natural lighting, "+
			"high quality, detailed, professional photography, full body visible", got)
}

func TestActionPrompt(t *testing.T) {
	got := ActionPrompt(testPersona(), map[string]any{"action": "exercising", "setting": "gym"})
	assert.Equal(t,
		"Ava, a 25-35 year old woman, "+
			"exercising, athletic pose, in a gym, fitness environment, "+
			"high quality, detailed, professional photography", got)
}

func TestSocialPostPrompt(t *testing.T) {
	got := SocialPostPrompt(testPersona(), map[string]any{"platform": "linkedin", "theme": "travel"})
	assert.Equal(t,
		"social media post featuring Ava, a 25-35 year old woman, "+
			"linkedin professional post, business context, travel content, scenic location, "+
			"high quality, detailed, professional photography, social media aesthetic", got)
}

func TestSettingHelpers(t *testing.T) {
	settings := map[string]any{
		"a": "x",
		"b": float64(3),
		"c": 4,
		"d": 2.5,
	}
	assert.Equal(t, "x", stringSetting(settings, "a", "def"))
	assert.Equal(t, "def", stringSetting(settings, "missing", "def"))
	assert.Equal(t, 3, intSetting(settings, "b", 9))
	assert.Equal(t, 4, intSetting(settings, "c", 9))
	assert.Equal(t, 9, intSetting(settings, "missing", 9))
	assert.Equal(t, 2.5, floatSetting(settings, "d", 1.0))
	assert.Equal(t, 4.0, floatSetting(settings, "c", 1.0))
	assert.Equal(t, 1.0, floatSetting(settings, "missing", 1.0))
}
